package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/pricing"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// RefreshOptions controls a cart refresh.
type RefreshOptions struct {
	// PreserveSelections keeps the existing selection (intersected with the
	// new cart). When false every item is selected, as on a first load.
	PreserveSelections bool `json:"preserve_selections"`
	// SuppressNotifications drops user-facing notices from the result, for
	// refreshes the user did not ask for.
	SuppressNotifications bool `json:"suppress_notifications"`
}

// DefaultRefreshOptions preserves selections and shows notices.
func DefaultRefreshOptions() RefreshOptions {
	return RefreshOptions{PreserveSelections: true}
}

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	ProductID domain.FlexID `json:"product_id" validate:"required"`
	Quantity  int           `json:"quantity" validate:"gte=1,lte=100"`
}

// UpdateQuantityInput holds the new quantity of a cart item.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=100"`
}

// ApplyCodeInput carries a promo or voucher code.
type ApplyCodeInput struct {
	Code string `json:"code" validate:"required,max=64"`
}

// SellerVoucherModeInput toggles seller-voucher mode.
type SellerVoucherModeInput struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// VoucherSeeder creates sample vouchers for a cart.
type VoucherSeeder interface {
	SeedSampleVouchers(ctx context.Context, items []domain.CartItem) (int, error)
}

// StorefrontService owns the per-user storefront session: the fetched cart,
// the checkout selection and the applied discounts.
type StorefrontService struct {
	store    *sessionStore
	backend  CartBackend
	resolver *DiscountResolver
	events   EventPublisher
	seeder   VoucherSeeder
	logger   *slog.Logger
}

// NewStorefrontService creates the storefront service. seeder may be nil to
// disable sample voucher seeding.
func NewStorefrontService(
	sessions repository.SessionRepository,
	backend CartBackend,
	resolver *DiscountResolver,
	events EventPublisher,
	seeder VoucherSeeder,
	logger *slog.Logger,
) *StorefrontService {
	return &StorefrontService{
		store:    &sessionStore{repo: sessions, logger: logger, now: time.Now},
		backend:  backend,
		resolver: resolver,
		events:   events,
		seeder:   seeder,
		logger:   logger,
	}
}

// GetSession returns the stored session, priced.
func (s *StorefrontService) GetSession(ctx context.Context, userID string) (*domain.SessionView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	sess, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

// Refresh refetches the cart from the backend and replaces the session items.
// On failure the cart is reset to empty and an error is returned.
func (s *StorefrontService) Refresh(ctx context.Context, userID string, opts RefreshOptions) (*domain.SessionView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	gen, err := s.store.reserve(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, fetchErr := s.backend.FetchCartWithDetails(ctx)
	if fetchErr != nil {
		cartRefreshes.WithLabelValues("failed").Inc()
		s.logger.WarnContext(ctx, "cart fetch failed, resetting cart",
			slog.String("user_id", userID),
			slog.String("error", fetchErr.Error()),
		)
		if _, _, err := s.store.commitFenced(ctx, userID, gen, "refresh", func(sess *domain.Session) error {
			sess.Items = []domain.CartItem{}
			sess.Selection = domain.Selection{}
			_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
			return err
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to reset session after fetch failure",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		if errors.Is(fetchErr, apperrors.ErrUnauthorized) {
			return nil, fetchErr
		}
		return nil, cartError("CART_FETCH_FAILED", "failed to fetch cart", fetchErr)
	}

	var (
		initial bool
		dropped []string
	)
	sess, committed, err := s.store.commitFenced(ctx, userID, gen, "refresh", func(sess *domain.Session) error {
		initial = !sess.Initialized || !opts.PreserveSelections
		sess.Items = items
		sess.Selection = sess.Selection.Reconcile(items, initial)
		sess.Initialized = true
		var err error
		dropped, err = s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !committed {
		return s.finish(sess, opts)
	}
	cartRefreshes.WithLabelValues("committed").Inc()

	sum := pricing.Summarize(sess)
	s.emit(ctx, "cart.refreshed", s.events.PublishCartRefreshed(ctx, sess, sum, initial))
	if sess.SellerVoucherMode && len(sess.SellerVouchers)+len(dropped) > 0 {
		s.emit(ctx, "voucher.discount_calculated",
			s.events.PublishVoucherDiscountCalculated(ctx, userID, sess.VoucherDiscount, appliedVouchers(sess)))
	}

	if s.seeder != nil && len(items) > 0 {
		if n, err := s.seeder.SeedSampleVouchers(ctx, items); err != nil {
			s.logger.WarnContext(ctx, "sample voucher seeding failed", slog.String("error", err.Error()))
		} else if n > 0 {
			s.logger.InfoContext(ctx, "seeded sample vouchers", slog.Int("count", n))
		}
	}

	s.logger.InfoContext(ctx, "cart refreshed",
		slog.String("user_id", userID),
		slog.Int("items", len(sess.Items)),
		slog.Int("selected", sess.Selection.Len()),
		slog.Int64("generation", gen),
	)

	var notices []domain.Notice
	for _, code := range dropped {
		notices = append(notices, info("Voucher %s is no longer valid and was removed", code))
	}
	return s.finish(sess, opts, notices...)
}

func (s *StorefrontService) finish(sess *domain.Session, opts RefreshOptions, notices ...domain.Notice) (*domain.SessionView, error) {
	if opts.SuppressNotifications {
		return view(sess), nil
	}
	return view(sess, notices...), nil
}

// RefreshFromEvent refreshes a session in the background, without notices.
// Authentication failures are not retried.
func (s *StorefrontService) RefreshFromEvent(ctx context.Context, userID string, preserveSelections bool) error {
	_, err := s.Refresh(ctx, userID, RefreshOptions{PreserveSelections: preserveSelections, SuppressNotifications: true})
	if errors.Is(err, apperrors.ErrUnauthorized) {
		s.logger.WarnContext(ctx, "background refresh rejected by backend", slog.String("user_id", userID))
		return nil
	}
	return err
}

// AddItem adds a product to the cart. Items that were not in the cart before
// are selected.
func (s *StorefrontService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.SessionView, error) {
	productID := string(input.ProductID)
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	gen, err := s.store.reserve(ctx, userID)
	if err != nil {
		return nil, err
	}

	before, err := s.backend.FetchCart(ctx)
	if err != nil {
		return nil, cartError("CART_FETCH_FAILED", "failed to fetch cart", err)
	}
	if err := s.backend.AddItem(ctx, productID, input.Quantity); err != nil {
		return nil, err
	}

	name := ""
	if p, err := s.backend.GetProduct(ctx, productID); err == nil {
		name = p.Name
	}

	after, err := s.backend.FetchCartWithDetails(ctx)
	if err != nil {
		return nil, cartError("CART_FETCH_FAILED", "failed to fetch cart", err)
	}
	if sameContents(before, after) {
		msg := "failed to add to cart (cart unchanged)"
		if name != "" {
			msg = fmt.Sprintf("failed to add %s to cart (cart unchanged)", name)
		}
		return nil, apperrors.Unprocessable("CART_UNCHANGED", msg)
	}

	known := domain.NewSelection(domain.ItemIDs(before)...)
	sess, committed, err := s.store.commitFenced(ctx, userID, gen, "add_item", func(sess *domain.Session) error {
		initial := !sess.Initialized
		sess.Items = after
		sess.Selection = sess.Selection.Reconcile(after, initial)
		for _, it := range after {
			if !known.Has(it.ID) {
				sess.Selection.Add(it.ID)
			}
		}
		sess.Initialized = true
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !committed {
		return view(sess), nil
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", input.Quantity),
	)
	if name == "" {
		name = "Item"
	}
	return view(sess, success("%s added to cart", name)), nil
}

// sameContents compares carts by product and quantity, ignoring order.
func sameContents(before, after []domain.CartItem) bool {
	if len(before) != len(after) {
		return false
	}
	key := func(items []domain.CartItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = fmt.Sprintf("%s:%d", it.ProductID, it.Quantity)
		}
		sort.Strings(out)
		return out
	}
	a, b := key(before), key(after)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UpdateQuantity sets an item's quantity. The session is updated before the
// backend call; if the call fails the previous quantity is restored and the
// cart is refetched.
func (s *StorefrontService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.SessionView, error) {
	itemID = domain.NormalizeID(itemID)
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	gen, err := s.store.reserve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var prior int
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		i := domain.FindItem(sess.Items, itemID)
		if i < 0 {
			return apperrors.NotFound("cart item", itemID)
		}
		prior = sess.Items[i].Quantity
		sess.Items[i].Quantity = quantity
		sess.Generation = max(sess.Generation, gen)
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.backend.UpdateItem(ctx, itemID, quantity); err != nil {
		s.logger.WarnContext(ctx, "quantity update failed, restoring",
			slog.String("user_id", userID),
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		s.rollback(ctx, userID, gen, "update_quantity", func(sess *domain.Session) error {
			if i := domain.FindItem(sess.Items, itemID); i >= 0 {
				sess.Items[i].Quantity = prior
			}
			_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
			return err
		})
		return nil, cartError("CART_UPDATE_FAILED", fmt.Sprintf("error updating quantity for item %s", itemID), err)
	}

	item := sess.Items[domain.FindItem(sess.Items, itemID)]
	return view(sess, success("Updated %s quantity to %d", item.DisplayName(), quantity)), nil
}

// RemoveItem removes an item from the cart and the selection. The session is
// updated before the backend call; if the call fails the item and its
// selection are restored and the cart is refetched.
func (s *StorefrontService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.SessionView, error) {
	itemID = domain.NormalizeID(itemID)
	gen, err := s.store.reserve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		removed     domain.CartItem
		index       int
		wasSelected bool
	)
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		index = domain.FindItem(sess.Items, itemID)
		if index < 0 {
			return apperrors.NotFound("cart item", itemID)
		}
		removed = sess.Items[index]
		wasSelected = sess.Selection.Has(itemID)
		sess.Items = append(domain.CloneItems(sess.Items[:index]), sess.Items[index+1:]...)
		sess.Selection.Remove(itemID)
		sess.Generation = max(sess.Generation, gen)
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.backend.RemoveItem(ctx, itemID); err != nil {
		s.logger.WarnContext(ctx, "item removal failed, restoring",
			slog.String("user_id", userID),
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		s.rollback(ctx, userID, gen, "remove_item", func(sess *domain.Session) error {
			if domain.FindItem(sess.Items, itemID) < 0 {
				at := min(index, len(sess.Items))
				sess.Items = append(domain.CloneItems(sess.Items[:at]), append([]domain.CartItem{removed}, sess.Items[at:]...)...)
			}
			if wasSelected {
				sess.Selection.Add(itemID)
			}
			_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
			return err
		})
		return nil, cartError("CART_REMOVE_FAILED", fmt.Sprintf("error removing item %s from cart", itemID), err)
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
	)
	return view(sess, success("Removed %s from cart", removed.DisplayName())), nil
}

// rollback undoes an optimistic write unless a newer request has since been
// applied, then refetches the cart without notices.
func (s *StorefrontService) rollback(ctx context.Context, userID string, gen int64, op string, fn func(sess *domain.Session) error) {
	_, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		if sess.Generation != gen {
			return errStale
		}
		return fn(sess)
	})
	switch {
	case errors.Is(err, errStale):
		staleResponses.WithLabelValues(op + "_rollback").Inc()
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to restore session",
			slog.String("user_id", userID),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}

	if _, err := s.Refresh(ctx, userID, RefreshOptions{PreserveSelections: true, SuppressNotifications: true}); err != nil {
		s.logger.WarnContext(ctx, "refetch after failed update failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// ClearCart empties the cart on the backend and then locally. The promo is
// dropped with the items.
func (s *StorefrontService) ClearCart(ctx context.Context, userID string) (*domain.SessionView, error) {
	gen, err := s.store.reserve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.ClearCart(ctx); err != nil {
		return nil, cartError("CART_CLEAR_FAILED", "failed to clear cart", err)
	}

	var code string
	sess, committed, err := s.store.commitFenced(ctx, userID, gen, "clear_cart", func(sess *domain.Session) error {
		code = ""
		if sess.Promo != nil {
			code = sess.Promo.Code
		}
		sess.Items = []domain.CartItem{}
		sess.Selection = domain.Selection{}
		sess.ClearPromo()
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	if committed && code != "" {
		s.emit(ctx, "promo.cleared", s.events.PublishPromoCleared(ctx, userID, code, "cart_cleared"))
	}
	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))
	return view(sess, success("Cart cleared")), nil
}

// ToggleSelect flips the selection of one item.
func (s *StorefrontService) ToggleSelect(ctx context.Context, userID, itemID string) (*domain.SessionView, error) {
	itemID = domain.NormalizeID(itemID)
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		if domain.FindItem(sess.Items, itemID) < 0 {
			return apperrors.NotFound("cart item", itemID)
		}
		sess.Selection.Toggle(itemID)
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

// SelectAll selects every item in the cart.
func (s *StorefrontService) SelectAll(ctx context.Context, userID string) (*domain.SessionView, error) {
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		sess.Selection = domain.SelectAllOf(sess.Items)
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

// ClearSelection deselects every item.
func (s *StorefrontService) ClearSelection(ctx context.Context, userID string) (*domain.SessionView, error) {
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		sess.Selection = domain.Selection{}
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

// ApplyPromo resolves code against the selected items. On a business rule
// failure every discount is cleared (promo and seller vouchers), the cleared
// state is saved and the *domain.PromoError is returned.
func (s *StorefrontService) ApplyPromo(ctx context.Context, userID, code string) (*domain.SessionView, error) {
	var (
		resolveErr *domain.PromoError
		subtotal   int64
		previous   string
	)
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		resolveErr, previous = nil, ""
		if sess.Promo != nil {
			previous = sess.Promo.Code
		}
		subtotal = pricing.Subtotal(sess.SelectedItems())
		promo, err := s.resolver.Resolve(ctx, code, sess.Items, sess.Selection)
		if err != nil {
			if !errors.As(err, &resolveErr) {
				return err
			}
			sess.ClearPromo()
			sess.ClearSellerVouchers()
			return nil
		}
		sess.Promo = promo
		sess.Restamp()
		return nil
	})
	if err != nil {
		return nil, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	if resolveErr != nil {
		s.logger.InfoContext(ctx, "promo code rejected",
			slog.String("user_id", userID),
			slog.String("code", normalized),
			slog.String("reason", resolveErr.Code),
		)
		s.emit(ctx, "promo.cleared", s.events.PublishPromoCleared(ctx, userID, normalized, resolveErr.Code))
		return nil, resolveErr
	}

	promo := sess.Promo
	s.emit(ctx, "promo.applied", s.events.PublishPromoApplied(ctx, userID, promo, subtotal))
	s.logger.InfoContext(ctx, "promo applied",
		slog.String("user_id", userID),
		slog.String("code", promo.Code),
		slog.String("type", string(promo.Type)),
		slog.Int64("amount", promo.Amount),
		slog.String("replaced", previous),
	)

	if promo.Type == domain.PromoTypeStandard {
		return view(sess, success("Promo code applied: %s%% discount", formatPct(promo.Percentage))), nil
	}
	seller := "this seller"
	for _, it := range sess.Items {
		if it.VendorID == promo.VendorID && it.Seller != "" {
			seller = it.Seller
			break
		}
	}
	return view(sess, success("Voucher applied: %s%% off items from %s", formatPct(promo.Percentage), seller)), nil
}

// RemovePromo clears every discount: the promo and all seller vouchers.
func (s *StorefrontService) RemovePromo(ctx context.Context, userID string) (*domain.SessionView, error) {
	var code string
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		code = ""
		if sess.Promo != nil {
			code = sess.Promo.Code
		}
		sess.ClearPromo()
		sess.ClearSellerVouchers()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if code != "" {
		s.emit(ctx, "promo.cleared", s.events.PublishPromoCleared(ctx, userID, code, "removed"))
	}
	return view(sess, success("Discount cleared")), nil
}

// SetSellerVoucherMode turns seller-voucher mode on or off. Applied seller
// vouchers are kept while the mode is off but do not count.
func (s *StorefrontService) SetSellerVoucherMode(ctx context.Context, userID string, enabled bool) (*domain.SessionView, error) {
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		sess.SellerVoucherMode = enabled
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !enabled {
		return view(sess, success("Seller vouchers hidden")), nil
	}
	s.emit(ctx, "voucher.discount_calculated",
		s.events.PublishVoucherDiscountCalculated(ctx, userID, sess.VoucherDiscount, appliedVouchers(sess)))
	return view(sess, success("Seller vouchers enabled")), nil
}

// ApplySellerVoucher attaches a voucher for its vendor, replacing any voucher
// already attached for that vendor, and turns seller-voucher mode on.
func (s *StorefrontService) ApplySellerVoucher(ctx context.Context, userID, code string) (*domain.SessionView, error) {
	var applied domain.AppliedVoucher
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		var err error
		applied, err = s.resolver.ResolveSellerVoucher(ctx, code, sess.SelectedItems())
		if err != nil {
			return err
		}
		sess.SellerVoucherMode = true
		sess.SellerVouchers[applied.VendorID] = applied
		_, err = s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}

	if v, ok := sess.SellerVouchers[applied.VendorID]; ok {
		applied = v
	}
	s.emit(ctx, "voucher.applied", s.events.PublishVoucherApplied(ctx, userID, applied))
	s.emit(ctx, "voucher.discount_calculated",
		s.events.PublishVoucherDiscountCalculated(ctx, userID, sess.VoucherDiscount, appliedVouchers(sess)))
	s.logger.InfoContext(ctx, "seller voucher applied",
		slog.String("user_id", userID),
		slog.String("code", applied.Code),
		slog.String("vendor_id", applied.VendorID),
		slog.Int64("amount", applied.Amount),
	)
	return view(sess, success("Voucher %s applied: %s%% off", applied.Code, formatPct(applied.Percentage))), nil
}

// RemoveSellerVoucher detaches the voucher of one vendor.
func (s *StorefrontService) RemoveSellerVoucher(ctx context.Context, userID, vendorID string) (*domain.SessionView, error) {
	vendorID = domain.NormalizeID(vendorID)
	sess, err := s.store.mutate(ctx, userID, func(sess *domain.Session) error {
		if _, ok := sess.SellerVouchers[vendorID]; !ok {
			return apperrors.NotFound("seller voucher", vendorID)
		}
		delete(sess.SellerVouchers, vendorID)
		_, err := s.resolver.RecalculateSellerVouchers(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, "voucher.discount_calculated",
		s.events.PublishVoucherDiscountCalculated(ctx, userID, sess.VoucherDiscount, appliedVouchers(sess)))
	return view(sess, success("Seller voucher removed")), nil
}

// ListProducts returns one page of the backend catalog.
func (s *StorefrontService) ListProducts(ctx context.Context, page, perPage int) (pagination.Result[domain.Product], error) {
	p := pagination.New(page, perPage)
	products, total, err := s.backend.ListProducts(ctx, p.Page, p.PerPage)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, p), nil
}

// GetProduct returns one product from the backend catalog.
func (s *StorefrontService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	id = domain.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	p, err := s.backend.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// emit logs a failed publish. Events never fail the operation.
func (s *StorefrontService) emit(ctx context.Context, name string, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish "+name+" event", slog.String("error", err.Error()))
	}
}

func formatPct(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
