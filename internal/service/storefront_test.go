package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func voucher(code, vendor string, pct float64) *domain.Voucher {
	return &domain.Voucher{
		ID:                 "id-" + code,
		Code:               code,
		VendorID:           vendor,
		DiscountPercentage: pct,
		ExpiresAt:          time.Now().Add(24 * time.Hour),
		IsActive:           true,
	}
}

// --- Refresh ---

func TestRefresh_InitialLoadSelectsEverything(t *testing.T) {
	f := newFixture(t)

	v := f.load(t, "u1", item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 2))

	assert.True(t, v.Session.Initialized)
	assert.ElementsMatch(t, []string{"1", "2"}, v.Session.Selection.IDs())
	assert.Equal(t, int64(200), v.Summary.Subtotal)
	assert.True(t, v.Summary.AllSelected)
	assert.Contains(t, f.events.names(), "cart.refreshed")
}

func TestRefresh_PreservesSelectionAndDropsRemovedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 1), item("3", "30", "8", 10, 1))

	_, err := f.svc.ToggleSelect(ctx, "u1", "1")
	require.NoError(t, err)

	v := f.load(t, "u1", item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 1))
	assert.Equal(t, []string{"2"}, v.Session.Selection.IDs())

	// Nothing of the old selection survives: everything is selected again.
	v = f.load(t, "u1", item("4", "40", "9", 5, 1))
	assert.Equal(t, []string{"4"}, v.Session.Selection.IDs())
}

func TestRefresh_WithoutPreserveSelectsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []domain.CartItem{item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 1)}
	f.load(t, "u1", items...)
	_, err := f.svc.ClearSelection(ctx, "u1")
	require.NoError(t, err)

	f.backend.On("FetchCartWithDetails", mock.Anything).Return(items, nil).Once()
	v, err := f.svc.Refresh(ctx, "u1", RefreshOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, v.Session.Selection.IDs())
}

func TestRefresh_FailureResetsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	f.backend.On("FetchCartWithDetails", mock.Anything).
		Return(nil, apperrors.ServiceUnavailable("cart backend unavailable")).Once()

	_, err := f.svc.Refresh(ctx, "u1", DefaultRefreshOptions())
	require.Error(t, err)
	assert.Equal(t, "CART_FETCH_FAILED", appErrCode(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))

	v, err := f.svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Session.Items)
	assert.Zero(t, v.Session.Selection.Len())
	assert.Zero(t, v.Summary.Total)
}

func TestRefresh_UnauthorizedIsReturnedAsIs(t *testing.T) {
	f := newFixture(t)
	f.backend.On("FetchCartWithDetails", mock.Anything).
		Return(nil, apperrors.Unauthorized("token expired")).Once()

	_, err := f.svc.Refresh(context.Background(), "u1", DefaultRefreshOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, "UNAUTHORIZED", appErrCode(err))
}

func TestRefresh_StaleResultIsDiscarded(t *testing.T) {
	f := newFixture(t)
	before := counterValue(t, staleResponses.WithLabelValues("refresh"))

	f.backend.On("FetchCartWithDetails", mock.Anything).
		Run(func(mock.Arguments) {
			f.sessions.commitNewer(t, "u1", func(s *domain.Session) {
				s.Items = []domain.CartItem{item("9", "90", "7", 1, 1)}
				s.Selection = domain.NewSelection("9")
				s.Initialized = true
			})
		}).
		Return([]domain.CartItem{item("1", "10", "7", 100, 1)}, nil).Once()

	v, err := f.svc.Refresh(context.Background(), "u1", DefaultRefreshOptions())
	require.NoError(t, err)
	require.Len(t, v.Session.Items, 1)
	assert.Equal(t, "9", v.Session.Items[0].ID)
	assert.Equal(t, before+1, counterValue(t, staleResponses.WithLabelValues("refresh")))
	assert.NotContains(t, f.events.names(), "cart.refreshed")
}

func TestRefresh_DropsExpiredSellerVoucher(t *testing.T) {
	v7 := voucher("V7OFF", "7", 10)
	f := newFixture(t, v7)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 150, 1))

	_, err := f.svc.ApplySellerVoucher(ctx, "u1", "v7off")
	require.NoError(t, err)

	f.vouchers.vouchers[v7.ID].ExpiresAt = time.Now().Add(-time.Minute)
	v := f.load(t, "u1", item("1", "10", "7", 150, 1))

	assert.Empty(t, v.Session.SellerVouchers)
	assert.Zero(t, v.Session.VoucherDiscount)
	require.Len(t, v.Notices, 1)
	assert.Equal(t, "Voucher V7OFF is no longer valid and was removed", v.Notices[0].Message)
}

func TestRefreshFromEvent_IgnoresUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.backend.On("FetchCartWithDetails", mock.Anything).
		Return(nil, apperrors.Unauthorized("no token")).Once()

	assert.NoError(t, f.svc.RefreshFromEvent(context.Background(), "u1", true))
}

func TestRefresh_RequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), "", DefaultRefreshOptions())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// --- AddItem ---

func TestAddItem_SelectsNewItemsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1), item("3", "30", "7", 30, 1))
	_, err := f.svc.ToggleSelect(ctx, "u1", "1")
	require.NoError(t, err)

	f.backend.On("FetchCart", mock.Anything).
		Return([]domain.CartItem{item("1", "10", "7", 100, 1), item("3", "30", "7", 30, 1)}, nil).Once()
	f.backend.On("AddItem", mock.Anything, "20", 2).Return(nil).Once()
	f.backend.On("GetProduct", mock.Anything, "20").Return(&domain.Product{ID: "20", Name: "Teh Botol"}, nil).Once()
	f.backend.On("FetchCartWithDetails", mock.Anything).
		Return([]domain.CartItem{item("1", "10", "7", 100, 1), item("3", "30", "7", 30, 1), item("2", "20", "7", 5, 2)}, nil).Once()

	v, err := f.svc.AddItem(ctx, "u1", AddItemInput{ProductID: "20", Quantity: 2})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2", "3"}, v.Session.Selection.IDs())
	require.Len(t, v.Notices, 1)
	assert.Equal(t, "Teh Botol added to cart", v.Notices[0].Message)
	f.backend.AssertExpectations(t)
}

func TestAddItem_UnchangedCartIsAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := []domain.CartItem{item("1", "10", "7", 100, 1)}

	f.backend.On("FetchCart", mock.Anything).Return(cart, nil).Once()
	f.backend.On("AddItem", mock.Anything, "10", 1).Return(nil).Once()
	f.backend.On("GetProduct", mock.Anything, "10").Return(nil, apperrors.NotFound("product", "10")).Once()
	f.backend.On("FetchCartWithDetails", mock.Anything).Return(cart, nil).Once()

	_, err := f.svc.AddItem(ctx, "u1", AddItemInput{ProductID: "10", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, "CART_UNCHANGED", appErrCode(err))
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))
	assert.Contains(t, err.Error(), "failed to add to cart (cart unchanged)")
}

func TestAddItem_BackendRejection(t *testing.T) {
	f := newFixture(t)
	f.backend.On("FetchCart", mock.Anything).Return([]domain.CartItem{}, nil).Once()
	f.backend.On("AddItem", mock.Anything, "10", 1).Return(apperrors.Unprocessable("OUT_OF_STOCK", "out of stock")).Once()

	_, err := f.svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "10", Quantity: 1})
	assert.Equal(t, "OUT_OF_STOCK", appErrCode(err))
}

// --- UpdateQuantity / RemoveItem ---

func TestUpdateQuantity_Success(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 1))
	f.backend.On("UpdateItem", mock.Anything, "1", 3).Return(nil).Once()

	v, err := f.svc.UpdateQuantity(context.Background(), "u1", "01", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Session.Items[0].Quantity)
	assert.Equal(t, int64(300), v.Summary.Subtotal)
	assert.Equal(t, "Updated item 1 quantity to 3", v.Notices[0].Message)
}

func TestUpdateQuantity_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 2))

	f.backend.On("UpdateItem", mock.Anything, "1", 5).Return(apperrors.ServiceUnavailable("down")).Once()
	f.backend.On("FetchCartWithDetails", mock.Anything).Return([]domain.CartItem{item("1", "10", "7", 100, 2)}, nil).Once()

	_, err := f.svc.UpdateQuantity(ctx, "u1", "1", 5)
	require.Error(t, err)
	assert.Equal(t, "CART_UPDATE_FAILED", appErrCode(err))
	assert.Contains(t, err.Error(), "error updating quantity for item 1")

	v, err := f.svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Session.Items[0].Quantity)
	f.backend.AssertExpectations(t)
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	_, err := f.svc.UpdateQuantity(context.Background(), "u1", "42", 2)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.backend.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveItem_Success(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 1))
	f.backend.On("RemoveItem", mock.Anything, "2").Return(nil).Once()

	v, err := f.svc.RemoveItem(context.Background(), "u1", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, domain.ItemIDs(v.Session.Items))
	assert.Equal(t, []string{"1"}, v.Session.Selection.IDs())
}

func TestRemoveItem_RestoresItemAndSelectionOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []domain.CartItem{item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 1)}
	f.load(t, "u1", items...)

	f.backend.On("RemoveItem", mock.Anything, "2").Return(apperrors.ServiceUnavailable("down")).Once()
	f.backend.On("FetchCartWithDetails", mock.Anything).Return(items, nil).Once()

	_, err := f.svc.RemoveItem(ctx, "u1", "2")
	require.Error(t, err)
	assert.Equal(t, "CART_REMOVE_FAILED", appErrCode(err))

	v, err := f.svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, domain.ItemIDs(v.Session.Items))
	assert.ElementsMatch(t, []string{"1", "2"}, v.Session.Selection.IDs())
}

func TestClearCart_DropsPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))
	_, err := f.svc.ApplyPromo(ctx, "u1", "SAVE20")
	require.NoError(t, err)

	f.backend.On("ClearCart", mock.Anything).Return(nil).Once()
	v, err := f.svc.ClearCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Session.Items)
	assert.Nil(t, v.Session.Promo)
	assert.Contains(t, f.events.names(), "promo.cleared:cart_cleared")
}

func TestClearCart_Failure(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 1))
	f.backend.On("ClearCart", mock.Anything).Return(errors.New("boom")).Once()

	_, err := f.svc.ClearCart(context.Background(), "u1")
	assert.Equal(t, "CART_CLEAR_FAILED", appErrCode(err))

	v, _ := f.svc.GetSession(context.Background(), "u1")
	assert.Len(t, v.Session.Items, 1)
}

// --- Selection ---

func TestSelection_ToggleSelectAllClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1), item("2", "20", "7", 50, 1))

	v, err := f.svc.ToggleSelect(ctx, "u1", "01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, v.Session.Selection.IDs())
	assert.Equal(t, int64(50), v.Summary.Subtotal)
	assert.Equal(t, int64(100), v.Summary.UnselectedValue)

	v, err = f.svc.ClearSelection(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, v.Summary.SelectedCount)
	assert.Zero(t, v.Summary.Total)

	v, err = f.svc.SelectAll(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, v.Summary.AllSelected)

	_, err = f.svc.ToggleSelect(ctx, "u1", "99")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestMutate_RetriesOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	f.sessions.conflicts = 2
	v, err := f.svc.ToggleSelect(ctx, "u1", "1")
	require.NoError(t, err)
	assert.Zero(t, v.Session.Selection.Len())

	f.sessions.conflicts = maxSaveAttempts
	_, err = f.svc.SelectAll(ctx, "u1")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

// --- Promo ---

func TestApplyPromo_StandardCode(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 2), item("2", "20", "8", 50, 1))

	v, err := f.svc.ApplyPromo(context.Background(), "u1", " save20 ")
	require.NoError(t, err)
	require.NotNil(t, v.Session.Promo)
	assert.Equal(t, "SAVE20", v.Session.Promo.Code)
	assert.Equal(t, domain.PromoTypeStandard, v.Session.Promo.Type)
	assert.Equal(t, int64(50), v.Summary.PromoDiscount)
	assert.Equal(t, int64(200), v.Summary.Total)
	assert.Equal(t, "Promo code applied: 20% discount", v.Notices[0].Message)
	assert.Contains(t, f.events.names(), "promo.applied")
}

func TestApplyPromo_UsesSelectedItemsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 2), item("2", "20", "8", 50, 1))
	_, err := f.svc.ToggleSelect(ctx, "u1", "2")
	require.NoError(t, err)

	v, err := f.svc.ApplyPromo(ctx, "u1", "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.Session.Promo.Amount)
	assert.Equal(t, int64(180), v.Summary.Total)
}

func TestApplyPromo_VendorVoucher(t *testing.T) {
	f := newFixture(t, voucher("TOKO10", "7", 10))
	a := item("1", "10", "7", 100, 1)
	a.Seller = "Toko A"
	f.load(t, "u1", a, item("2", "20", "8", 300, 1))

	v, err := f.svc.ApplyPromo(context.Background(), "u1", "toko10")
	require.NoError(t, err)
	p := v.Session.Promo
	require.NotNil(t, p)
	assert.Equal(t, domain.PromoTypeVoucher, p.Type)
	assert.Equal(t, int64(10), p.Amount)
	assert.Equal(t, []string{"1"}, p.ItemIDs)
	assert.Equal(t, 10.0, v.Session.Items[0].DiscountPercentage)
	assert.Zero(t, v.Session.Items[1].DiscountPercentage)
	assert.Equal(t, "Voucher applied: 10% off items from Toko A", v.Notices[0].Message)
}

func TestApplyPromo_ProductRestrictedVoucher(t *testing.T) {
	vc := voucher("PROD20SPECIAL", "7", 15)
	vc.ProductIDs = []string{"20"}
	f := newFixture(t, vc)
	f.load(t, "u1", item("1", "10", "7", 100, 1), item("2", "20", "7", 200, 1))

	v, err := f.svc.ApplyPromo(context.Background(), "u1", "PROD20SPECIAL")
	require.NoError(t, err)
	assert.Equal(t, int64(30), v.Session.Promo.Amount)
	assert.Equal(t, []string{"2"}, v.Session.Promo.ItemIDs)
}

func TestApplyPromo_VoucherCappedByMaxDiscount(t *testing.T) {
	vc := voucher("CAP15", "7", 15)
	vc.MaxDiscount = 10
	f := newFixture(t, vc)
	f.load(t, "u1", item("1", "10", "7", 200, 1))

	v, err := f.svc.ApplyPromo(context.Background(), "u1", "CAP15")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Session.Promo.Amount)
	assert.Equal(t, int64(190), v.Summary.Total)
}

func TestApplyPromo_MinimumPurchaseClearsPromo(t *testing.T) {
	vc := voucher("MIN120", "7", 10)
	vc.MinPurchase = 120
	f := newFixture(t, vc)
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))
	_, err := f.svc.ApplyPromo(ctx, "u1", "SAVE20")
	require.NoError(t, err)

	_, err = f.svc.ApplyPromo(ctx, "u1", "MIN120")
	var promoErr *domain.PromoError
	require.True(t, errors.As(err, &promoErr))
	assert.Equal(t, domain.CodeMinimumPurchase, promoErr.Code)
	assert.Equal(t, int64(20), promoErr.Shortfall)
	assert.Equal(t, map[string]int64{"min_purchase": 120, "shortfall": 20}, promoErr.ErrorDetails())

	v, err := f.svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, v.Session.Promo)
	assert.Equal(t, int64(100), v.Summary.Total)
	assert.Contains(t, f.events.names(), "promo.cleared:"+domain.CodeMinimumPurchase)
}

func TestApplyPromo_Rejections(t *testing.T) {
	expired := voucher("OLD", "7", 10)
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	inactive := voucher("OFF", "7", 10)
	inactive.IsActive = false
	other := voucher("ELSEWHERE", "8", 10)

	tests := []struct {
		code string
		want string
	}{
		{"NOPE", domain.CodeInvalidPromo},
		{"OLD", domain.CodeVoucherExpired},
		{"OFF", domain.CodeVoucherExpired},
		{"ELSEWHERE", domain.CodeVoucherNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f := newFixture(t, expired, inactive, other)
			f.load(t, "u1", item("1", "10", "7", 100, 1))

			_, err := f.svc.ApplyPromo(context.Background(), "u1", tt.code)
			var promoErr *domain.PromoError
			require.True(t, errors.As(err, &promoErr))
			assert.Equal(t, tt.want, promoErr.Code)
			assert.Nil(t, promoErr.ErrorDetails())
		})
	}
}

func TestApplyPromo_EmptyCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ApplyPromo(context.Background(), "u1", "  ")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestApplyPromo_LookupFailureIsNotAPromoError(t *testing.T) {
	f := newFixture(t)
	f.vouchers.err = errors.New("connection refused")
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	_, err := f.svc.ApplyPromo(context.Background(), "u1", "SELLER5")
	require.Error(t, err)
	var promoErr *domain.PromoError
	assert.False(t, errors.As(err, &promoErr))
}

func TestRemovePromo_ClearsEveryDiscount(t *testing.T) {
	f := newFixture(t, voucher("V7OFF", "7", 10))
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))
	_, err := f.svc.ApplyPromo(ctx, "u1", "SAVE20")
	require.NoError(t, err)
	_, err = f.svc.ApplySellerVoucher(ctx, "u1", "V7OFF")
	require.NoError(t, err)

	v, err := f.svc.RemovePromo(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, v.Session.Promo)
	assert.Empty(t, v.Session.SellerVouchers)
	assert.False(t, v.Session.SellerVoucherMode)
	assert.Zero(t, v.Summary.Discount)
	assert.Equal(t, "Discount cleared", v.Notices[0].Message)
	assert.Contains(t, f.events.names(), "promo.cleared:removed")
}

func TestRemovePromo_NothingAppliedPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	v, err := f.svc.RemovePromo(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Discount cleared", v.Notices[0].Message)
	for _, name := range f.events.names() {
		assert.NotContains(t, name, "promo.cleared")
	}
}

func TestApplyPromo_RejectionClearsSellerVouchers(t *testing.T) {
	f := newFixture(t, voucher("V7OFF", "7", 10))
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 200, 1))

	v, err := f.svc.ApplySellerVoucher(ctx, "u1", "V7OFF")
	require.NoError(t, err)
	require.Equal(t, int64(20), v.Summary.Discount)

	_, err = f.svc.ApplyPromo(ctx, "u1", "BOGUS")
	var promoErr *domain.PromoError
	require.True(t, errors.As(err, &promoErr))
	assert.Equal(t, domain.CodeInvalidPromo, promoErr.Code)

	v, err = f.svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, v.Session.SellerVoucherMode)
	assert.Empty(t, v.Session.SellerVouchers)
	assert.Zero(t, v.Session.VoucherDiscount)
	assert.Zero(t, v.Summary.Discount)
	assert.Equal(t, int64(200), v.Summary.Total)
	assert.Zero(t, v.Session.Items[0].DiscountPercentage)
}

// --- Seller vouchers ---

func TestSellerVouchers_StackAcrossVendors(t *testing.T) {
	v7 := voucher("V7OFF", "7", 10)
	v7.MinPurchase = 100
	f := newFixture(t, v7, voucher("V8OFF", "8", 20))
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 150, 1), item("2", "20", "8", 100, 1))

	_, err := f.svc.ApplySellerVoucher(ctx, "u1", "V7OFF")
	require.NoError(t, err)
	v, err := f.svc.ApplySellerVoucher(ctx, "u1", "V8OFF")
	require.NoError(t, err)

	assert.True(t, v.Session.SellerVoucherMode)
	assert.Equal(t, int64(35), v.Summary.VoucherDiscount)
	assert.Equal(t, int64(215), v.Summary.Total)
	assert.Equal(t, 10.0, v.Session.Items[0].DiscountPercentage)
	assert.Equal(t, 20.0, v.Session.Items[1].DiscountPercentage)

	// Deselecting vendor 7 keeps its voucher attached at zero.
	v, err = f.svc.ToggleSelect(ctx, "u1", "1")
	require.NoError(t, err)
	require.Contains(t, v.Session.SellerVouchers, "7")
	assert.Zero(t, v.Session.SellerVouchers["7"].Amount)
	assert.Equal(t, int64(20), v.Summary.VoucherDiscount)

	v, err = f.svc.SetSellerVoucherMode(ctx, "u1", false)
	require.NoError(t, err)
	assert.Zero(t, v.Summary.VoucherDiscount)
	assert.Len(t, v.Session.SellerVouchers, 2)
	assert.Equal(t, "Seller vouchers hidden", v.Notices[0].Message)
}

func TestSellerVouchers_ReplacePerVendor(t *testing.T) {
	f := newFixture(t, voucher("V7A", "7", 10), voucher("V7B", "7", 25))
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	_, err := f.svc.ApplySellerVoucher(ctx, "u1", "V7A")
	require.NoError(t, err)
	v, err := f.svc.ApplySellerVoucher(ctx, "u1", "V7B")
	require.NoError(t, err)

	require.Len(t, v.Session.SellerVouchers, 1)
	assert.Equal(t, "V7B", v.Session.SellerVouchers["7"].Code)
	assert.Equal(t, int64(25), v.Summary.VoucherDiscount)
}

func TestSellerVouchers_RejectsStandardCode(t *testing.T) {
	f := newFixture(t)
	f.load(t, "u1", item("1", "10", "7", 100, 1))

	_, err := f.svc.ApplySellerVoucher(context.Background(), "u1", "SAVE20")
	var promoErr *domain.PromoError
	require.True(t, errors.As(err, &promoErr))
	assert.Equal(t, domain.CodeInvalidPromo, promoErr.Code)
}

func TestRemoveSellerVoucher(t *testing.T) {
	f := newFixture(t, voucher("V7OFF", "7", 10))
	ctx := context.Background()
	f.load(t, "u1", item("1", "10", "7", 100, 1))
	_, err := f.svc.ApplySellerVoucher(ctx, "u1", "V7OFF")
	require.NoError(t, err)

	v, err := f.svc.RemoveSellerVoucher(ctx, "u1", "007")
	require.NoError(t, err)
	assert.Empty(t, v.Session.SellerVouchers)
	assert.Zero(t, v.Session.Items[0].DiscountPercentage)

	_, err = f.svc.RemoveSellerVoucher(ctx, "u1", "7")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- Catalog ---

func TestListProducts_Paginates(t *testing.T) {
	f := newFixture(t)
	f.backend.On("ListProducts", mock.Anything, 2, 20).
		Return([]domain.Product{{ID: "21", Name: "Kopi"}}, 41, nil).Once()

	res, err := f.svc.ListProducts(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)
	assert.Len(t, res.Items, 1)
}

func TestGetProduct_NormalizesID(t *testing.T) {
	f := newFixture(t)
	f.backend.On("GetProduct", mock.Anything, "5").Return(&domain.Product{ID: "5"}, nil).Once()

	p, err := f.svc.GetProduct(context.Background(), " 05 ")
	require.NoError(t, err)
	assert.Equal(t, "5", p.ID)
}
