package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/storefront/internal/domain"
)

func item(id, vendor string, price int64, qty int) domain.CartItem {
	return domain.CartItem{ID: id, ProductID: "p" + id, VendorID: vendor, Price: price, Quantity: qty, Currency: "IDR"}
}

func TestSubtotal(t *testing.T) {
	assert.Zero(t, Subtotal(nil))
	assert.Equal(t, int64(250*2+100*3), Subtotal([]domain.CartItem{item("1", "7", 250, 2), item("2", "7", 100, 3)}))
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		amount int64
		pct    float64
		want   int64
	}{
		{1000, 10, 100},
		{995, 10, 100}, // 99.5 rounds half up
		{994, 10, 99},
		{333, 15, 50}, // 49.95
		{200, 12.5, 25},
		{0, 50, 0},
		{100, 0, 0},
		{100, -5, 0},
		{100, 150, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentOf(tt.amount, tt.pct), "%d * %v%%", tt.amount, tt.pct)
	}
}

func TestVoucherDiscount_Cap(t *testing.T) {
	v := &domain.Voucher{DiscountPercentage: 15, MaxDiscount: 10}
	assert.Equal(t, int64(10), VoucherDiscount(v, 200))

	v.MaxDiscount = 0
	assert.Equal(t, int64(30), VoucherDiscount(v, 200))
}

func TestDiscountAndTotal(t *testing.T) {
	assert.Equal(t, int64(30), Discount(10, 20))
	assert.Equal(t, int64(10), Discount(10, -5))
	assert.Equal(t, int64(70), Total(100, 30))
	assert.Zero(t, Total(100, 130))
	assert.Zero(t, Total(0, 0))
}

func TestTotalNeverNegative(t *testing.T) {
	for subtotal := int64(0); subtotal <= 500; subtotal += 37 {
		for discount := int64(0); discount <= 800; discount += 53 {
			assert.GreaterOrEqual(t, Total(subtotal, discount), int64(0))
		}
	}
}

func TestSummarize(t *testing.T) {
	s := domain.NewSession("u1", time.Now())
	s.Items = []domain.CartItem{item("1", "7", 100, 2), item("2", "8", 50, 1), item("3", "7", 30, 1)}
	s.Selection = domain.NewSelection("1", "2")
	s.Promo = &domain.AppliedPromo{Code: "SAVE20", Type: domain.PromoTypeStandard, Amount: 50}
	s.VoucherDiscount = 20
	s.SellerVouchers["7"] = domain.AppliedVoucher{Code: "VENDOR7OFF", VendorID: "7"}

	sum := Summarize(s)
	assert.Equal(t, 3, sum.ItemCount)
	assert.Equal(t, 2, sum.SelectedCount)
	assert.False(t, sum.AllSelected)
	assert.Equal(t, int64(250), sum.Subtotal)
	assert.Equal(t, int64(280), sum.TotalCartValue)
	assert.Equal(t, int64(30), sum.UnselectedValue)
	assert.Equal(t, int64(50), sum.PromoDiscount)
	assert.Zero(t, sum.VoucherDiscount, "voucher discount ignored outside seller-voucher mode")
	assert.Equal(t, int64(200), sum.Total)
	assert.Equal(t, "IDR", sum.Currency)

	s.SellerVoucherMode = true
	sum = Summarize(s)
	assert.Equal(t, int64(20), sum.VoucherDiscount)
	assert.Equal(t, int64(70), sum.Discount)
	assert.Equal(t, int64(180), sum.Total)

	require := assert.New(t)
	require.Len(sum.Vendors, 2)
	require.Equal("Seller #7", sum.Vendors[0].Seller)
	require.Equal(int64(230), sum.Vendors[0].Subtotal)
	require.Equal("VENDOR7OFF", sum.Vendors[0].Voucher)
	require.Len(sum.Vendors[0].Items, 2)
	require.Equal("Seller #8", sum.Vendors[1].Seller)
}

func TestSummarize_DiscountLargerThanSubtotal(t *testing.T) {
	s := domain.NewSession("u1", time.Now())
	s.Items = []domain.CartItem{item("1", "7", 10, 1)}
	s.Selection = domain.NewSelection("1")
	s.Promo = &domain.AppliedPromo{Amount: 100}

	assert.Zero(t, Summarize(s).Total)
}

func TestVendorIDs(t *testing.T) {
	items := []domain.CartItem{item("1", "8", 1, 1), item("2", "7", 1, 1), item("3", "8", 1, 1), item("4", "", 1, 1)}
	assert.Equal(t, []string{"7", "8"}, VendorIDs(items))
}
