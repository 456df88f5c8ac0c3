package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/pricing"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// PromoCatalog looks up standard promo codes. *promo.Catalog satisfies it.
type PromoCatalog interface {
	Lookup(code string) (domain.PromoCode, bool)
}

// VoucherLookup finds a voucher by code.
type VoucherLookup interface {
	GetByCode(ctx context.Context, code string) (*domain.Voucher, error)
}

// DiscountResolver turns a code into a discount against the selected items.
// Standard promo codes are tried first, then seller vouchers.
type DiscountResolver struct {
	catalog  PromoCatalog
	vouchers VoucherLookup
	now      func() time.Time
}

// NewDiscountResolver creates a resolver.
func NewDiscountResolver(catalog PromoCatalog, vouchers VoucherLookup) *DiscountResolver {
	return &DiscountResolver{catalog: catalog, vouchers: vouchers, now: time.Now}
}

// Resolve computes the promo for code. Business rule failures are returned as
// *domain.PromoError; anything else is an infrastructure error.
func (r *DiscountResolver) Resolve(ctx context.Context, code string, items []domain.CartItem, selection domain.Selection) (*domain.AppliedPromo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.InvalidInput("promo code is required")
	}
	selected := selection.Filter(items)

	if p, ok := r.catalog.Lookup(code); ok {
		amount := pricing.PercentOf(pricing.Subtotal(selected), p.Percentage)
		promoResolutions.WithLabelValues("standard", "applied").Inc()
		return &domain.AppliedPromo{
			Code:       p.Code,
			Type:       domain.PromoTypeStandard,
			Percentage: p.Percentage,
			Amount:     amount,
		}, nil
	}

	v, eligible, err := r.voucherFor(ctx, code, selected)
	if err != nil {
		return nil, err
	}
	amount := pricing.VoucherDiscount(v, pricing.Subtotal(eligible))
	promoResolutions.WithLabelValues("voucher", "applied").Inc()
	return &domain.AppliedPromo{
		Code:       v.Code,
		Type:       domain.PromoTypeVoucher,
		Percentage: v.DiscountPercentage,
		Amount:     amount,
		VoucherID:  v.ID,
		VendorID:   domain.NormalizeID(v.VendorID),
		ItemIDs:    domain.ItemIDs(eligible),
	}, nil
}

// ResolveSellerVoucher validates a voucher for seller-voucher mode. The same
// eligibility rules as Resolve apply; standard promo codes are not accepted.
func (r *DiscountResolver) ResolveSellerVoucher(ctx context.Context, code string, selected []domain.CartItem) (domain.AppliedVoucher, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.AppliedVoucher{}, apperrors.InvalidInput("voucher code is required")
	}
	v, eligible, err := r.voucherFor(ctx, code, selected)
	if err != nil {
		return domain.AppliedVoucher{}, err
	}
	promoResolutions.WithLabelValues("seller_voucher", "applied").Inc()
	return domain.AppliedVoucher{
		VoucherID:  v.ID,
		Code:       v.Code,
		VendorID:   domain.NormalizeID(v.VendorID),
		Percentage: v.DiscountPercentage,
		Amount:     pricing.VoucherDiscount(v, pricing.Subtotal(eligible)),
		ItemIDs:    domain.ItemIDs(eligible),
	}, nil
}

// voucherFor runs the voucher checks in order: existence, validity,
// applicability, minimum purchase.
func (r *DiscountResolver) voucherFor(ctx context.Context, code string, selected []domain.CartItem) (*domain.Voucher, []domain.CartItem, error) {
	v, err := r.vouchers.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			promoResolutions.WithLabelValues("none", "invalid").Inc()
			return nil, nil, domain.ErrInvalidPromo()
		}
		return nil, nil, fmt.Errorf("lookup voucher: %w", err)
	}
	if !v.IsValid(r.now()) {
		promoResolutions.WithLabelValues("voucher", "expired").Inc()
		return nil, nil, domain.ErrVoucherExpired()
	}
	eligible := v.EligibleItems(selected)
	if len(eligible) == 0 {
		promoResolutions.WithLabelValues("voucher", "not_applicable").Inc()
		return nil, nil, domain.ErrVoucherNotApplicable()
	}
	if sub := pricing.Subtotal(eligible); v.MinPurchase > 0 && sub < v.MinPurchase {
		promoResolutions.WithLabelValues("voucher", "minimum_not_met").Inc()
		return nil, nil, domain.ErrMinimumPurchase(v.MinPurchase, sub)
	}
	return v, eligible, nil
}

// RecalculateSellerVouchers recomputes every seller voucher against the
// currently selected items and refreshes the session's voucher total and item
// stamps. Vouchers that no longer exist or have expired are dropped; a voucher
// whose minimum purchase is no longer met stays attached with a zero amount.
// It returns the codes that were dropped.
func (r *DiscountResolver) RecalculateSellerVouchers(ctx context.Context, s *domain.Session) ([]string, error) {
	var dropped []string
	selected := s.SelectedItems()
	now := r.now()
	var total int64

	vendors := make([]string, 0, len(s.SellerVouchers))
	for vendor := range s.SellerVouchers {
		vendors = append(vendors, vendor)
	}
	sort.Strings(vendors)

	for _, vendor := range vendors {
		applied := s.SellerVouchers[vendor]
		v, err := r.vouchers.GetByCode(ctx, applied.Code)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("lookup voucher %s: %w", applied.Code, err)
		}
		if err != nil || !v.IsValid(now) {
			delete(s.SellerVouchers, vendor)
			dropped = append(dropped, applied.Code)
			continue
		}

		eligible := v.EligibleItems(selected)
		sub := pricing.Subtotal(eligible)
		applied.Percentage = v.DiscountPercentage
		applied.Amount = 0
		applied.ItemIDs = nil
		if len(eligible) > 0 && (v.MinPurchase == 0 || sub >= v.MinPurchase) {
			applied.Amount = pricing.VoucherDiscount(v, sub)
			applied.ItemIDs = domain.ItemIDs(eligible)
		}
		s.SellerVouchers[vendor] = applied
		total += applied.Amount
	}

	s.VoucherDiscount = total
	s.Restamp()
	return dropped, nil
}

// appliedVouchers lists the session's seller vouchers ordered by vendor.
func appliedVouchers(s *domain.Session) []domain.AppliedVoucher {
	out := make([]domain.AppliedVoucher, 0, len(s.SellerVouchers))
	for _, v := range s.SellerVouchers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out
}
