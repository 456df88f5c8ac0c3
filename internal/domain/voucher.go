package domain

import (
	"slices"
	"time"
)

// Voucher is a seller-issued discount code. MinPurchase and MaxDiscount are
// ignored when zero. An empty ProductIDs list means the voucher covers every
// product of the vendor.
type Voucher struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	VendorID           string    `json:"vendor_id"`
	ProductIDs         []string  `json:"product_ids,omitempty"`
	DiscountPercentage float64   `json:"discount_percentage"`
	MinPurchase        int64     `json:"min_purchase,omitempty"`
	MaxDiscount        int64     `json:"max_discount,omitempty"`
	ExpiresAt          time.Time `json:"expires_at"`
	IsActive           bool      `json:"is_active"`
	Description        string    `json:"description,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsValid reports whether the voucher is active and not yet expired at now.
func (v *Voucher) IsValid(now time.Time) bool {
	return v.IsActive && now.Before(v.ExpiresAt)
}

// AppliesTo reports whether item is covered: same vendor and, for
// product-restricted vouchers, a listed product.
func (v *Voucher) AppliesTo(item CartItem) bool {
	if item.VendorID == "" || NormalizeID(v.VendorID) != item.VendorID {
		return false
	}
	if len(v.ProductIDs) == 0 {
		return true
	}
	return slices.ContainsFunc(v.ProductIDs, func(p string) bool {
		return NormalizeID(p) == item.ProductID
	})
}

// EligibleItems returns the items the voucher covers, in order.
func (v *Voucher) EligibleItems(items []CartItem) []CartItem {
	var out []CartItem
	for _, it := range items {
		if v.AppliesTo(it) {
			out = append(out, it)
		}
	}
	return out
}

// VoucherFilter narrows a voucher listing.
type VoucherFilter struct {
	VendorID   string
	ActiveOnly bool
	Page       int
	PerPage    int
}
