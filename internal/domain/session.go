package domain

import (
	"fmt"
	"slices"
	"time"
)

// SessionSchemaVersion is the layout version written with every session.
const SessionSchemaVersion = 1

// Session is the per-user storefront state: the last fetched cart, the
// checkout selection and the applied discounts. It is shared by the cart
// and checkout pages.
type Session struct {
	UserID            string                    `json:"user_id"`
	SchemaVersion     int                       `json:"schema_version"`
	Version           int                       `json:"version"`
	Generation        int64                     `json:"generation"`
	Items             []CartItem                `json:"items"`
	Selection         Selection                 `json:"selection"`
	Initialized       bool                      `json:"initialized"`
	Promo             *AppliedPromo             `json:"promo,omitempty"`
	SellerVoucherMode bool                      `json:"seller_voucher_mode"`
	SellerVouchers    map[string]AppliedVoucher `json:"seller_vouchers,omitempty"`
	VoucherDiscount   int64                     `json:"voucher_discount"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// NewSession returns an empty session for userID.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:         userID,
		SchemaVersion:  SessionSchemaVersion,
		Items:          []CartItem{},
		Selection:      Selection{},
		SellerVouchers: map[string]AppliedVoucher{},
		UpdatedAt:      now,
	}
}

// Normalize fills nil collections after decoding and upgrades older layouts.
// Sessions written by a newer layout are rejected.
func (s *Session) Normalize() error {
	if s.SchemaVersion > SessionSchemaVersion {
		return fmt.Errorf("session schema version %d is newer than supported %d", s.SchemaVersion, SessionSchemaVersion)
	}
	s.SchemaVersion = SessionSchemaVersion
	if s.Items == nil {
		s.Items = []CartItem{}
	}
	if s.Selection == nil {
		s.Selection = Selection{}
	}
	if s.SellerVouchers == nil {
		s.SellerVouchers = map[string]AppliedVoucher{}
	}
	return nil
}

// SelectedItems returns the selected cart items in cart order.
func (s *Session) SelectedItems() []CartItem {
	return s.Selection.Filter(s.Items)
}

// PromoDiscount is the amount of the applied promo, or zero.
func (s *Session) PromoDiscount() int64 {
	if s.Promo == nil {
		return 0
	}
	return s.Promo.Amount
}

// ClearPromo drops the applied promo and its per-item stamps.
func (s *Session) ClearPromo() {
	s.Promo = nil
	s.Restamp()
}

// ClearSellerVouchers drops every seller voucher and leaves seller-voucher mode.
func (s *Session) ClearSellerVouchers() {
	s.SellerVouchers = map[string]AppliedVoucher{}
	s.VoucherDiscount = 0
	s.SellerVoucherMode = false
	s.Restamp()
}

// Restamp recomputes each item's discount percentage from the applied
// voucher promo and, in seller-voucher mode, the seller vouchers. When two
// vouchers cover one item the larger percentage is shown.
func (s *Session) Restamp() {
	ClearItemDiscounts(s.Items)
	stamp := func(ids []string, pct float64) {
		for _, id := range ids {
			if i := FindItem(s.Items, id); i >= 0 && pct > s.Items[i].DiscountPercentage {
				s.Items[i].DiscountPercentage = pct
			}
		}
	}
	if s.Promo != nil && s.Promo.Type == PromoTypeVoucher {
		stamp(s.Promo.ItemIDs, s.Promo.Percentage)
	}
	if s.SellerVoucherMode {
		for _, v := range s.SellerVouchers {
			stamp(v.ItemIDs, v.Percentage)
		}
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Items = CloneItems(s.Items)
	cp.Selection = s.Selection.Clone()
	if s.Promo != nil {
		p := *s.Promo
		p.ItemIDs = slices.Clone(s.Promo.ItemIDs)
		cp.Promo = &p
	}
	cp.SellerVouchers = make(map[string]AppliedVoucher, len(s.SellerVouchers))
	for k, v := range s.SellerVouchers {
		v.ItemIDs = slices.Clone(v.ItemIDs)
		cp.SellerVouchers[k] = v
	}
	return &cp
}
