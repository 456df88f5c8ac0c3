// Package pricing holds the pure arithmetic behind cart totals and discounts.
// All amounts are in the smallest currency unit.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Subtotal is the sum of price times quantity over items.
func Subtotal(items []domain.CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return sum
}

// PercentOf returns round(amount * pct / 100), rounding halves away from zero,
// clamped to [0, amount].
func PercentOf(amount int64, pct float64) int64 {
	if amount <= 0 || pct <= 0 {
		return 0
	}
	v := decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(pct)).
		Div(hundred).
		Round(0).
		IntPart()
	return min(max(v, 0), amount)
}

// VoucherDiscount is the voucher percentage of eligibleSubtotal, capped at
// the voucher's MaxDiscount when one is set.
func VoucherDiscount(v *domain.Voucher, eligibleSubtotal int64) int64 {
	d := PercentOf(eligibleSubtotal, v.DiscountPercentage)
	if v.MaxDiscount > 0 && d > v.MaxDiscount {
		d = v.MaxDiscount
	}
	return d
}

// Discount combines the promo and voucher discounts. They stack.
func Discount(promo, voucher int64) int64 {
	return max(promo, 0) + max(voucher, 0)
}

// Total is subtotal minus discount, never below zero.
func Total(subtotal, discount int64) int64 {
	return max(subtotal-discount, 0)
}

// Summarize prices a session. The voucher discount only counts while
// seller-voucher mode is on.
func Summarize(s *domain.Session) domain.Summary {
	selected := s.SelectedItems()
	subtotal := Subtotal(selected)
	all := Subtotal(s.Items)

	voucher := int64(0)
	if s.SellerVoucherMode {
		voucher = s.VoucherDiscount
	}
	promo := s.PromoDiscount()
	discount := Discount(promo, voucher)

	currency := ""
	if len(s.Items) > 0 {
		currency = s.Items[0].Currency
	}

	return domain.Summary{
		ItemCount:       len(s.Items),
		SelectedCount:   len(selected),
		AllSelected:     s.Selection.AllSelected(s.Items),
		Subtotal:        subtotal,
		TotalCartValue:  all,
		UnselectedValue: all - subtotal,
		PromoDiscount:   promo,
		VoucherDiscount: voucher,
		Discount:        discount,
		Total:           Total(subtotal, discount),
		Currency:        currency,
		Vendors:         GroupByVendor(s),
	}
}

// GroupByVendor groups the cart by seller, in order of first appearance.
func GroupByVendor(s *domain.Session) []domain.VendorGroup {
	index := map[string]int{}
	groups := []domain.VendorGroup{}
	for _, it := range s.Items {
		key := it.SellerLabel()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			g := domain.VendorGroup{VendorID: it.VendorID, Seller: key}
			if v, ok := s.SellerVouchers[it.VendorID]; ok && s.SellerVoucherMode {
				g.Voucher = v.Code
			}
			groups = append(groups, g)
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal += it.LineTotal()
	}
	return groups
}

// VendorIDs returns the distinct vendor ids in items, sorted.
func VendorIDs(items []domain.CartItem) []string {
	seen := map[string]struct{}{}
	for _, it := range items {
		if it.VendorID != "" {
			seen[it.VendorID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
