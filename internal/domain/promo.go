package domain

import (
	"fmt"
	"net/http"
)

// PromoType tells which resolution stage produced a discount.
type PromoType string

const (
	PromoTypeStandard PromoType = "standard"
	PromoTypeVoucher  PromoType = "voucher"
)

// PromoCode is an entry of the static, seller-independent promo table.
type PromoCode struct {
	Code       string  `json:"code"`
	Percentage float64 `json:"percentage"`
}

// AppliedPromo is the discount currently attached to a session through the
// promo field. Amount never exceeds the subtotal it was computed against.
type AppliedPromo struct {
	Code       string    `json:"code"`
	Type       PromoType `json:"type"`
	Percentage float64   `json:"percentage"`
	Amount     int64     `json:"amount"`
	VoucherID  string    `json:"voucher_id,omitempty"`
	VendorID   string    `json:"vendor_id,omitempty"`
	ItemIDs    []string  `json:"item_ids,omitempty"`
}

// AppliedVoucher is a voucher attached in seller-voucher mode. There is at
// most one per vendor.
type AppliedVoucher struct {
	VoucherID  string   `json:"voucher_id"`
	Code       string   `json:"code"`
	VendorID   string   `json:"vendor_id"`
	Percentage float64  `json:"percentage"`
	Amount     int64    `json:"amount"`
	ItemIDs    []string `json:"item_ids,omitempty"`
}

// Promo failure codes.
const (
	CodeInvalidPromo         = "INVALID_PROMO_CODE"
	CodeVoucherExpired       = "VOUCHER_EXPIRED"
	CodeVoucherNotApplicable = "VOUCHER_NOT_APPLICABLE"
	CodeMinimumPurchase      = "MINIMUM_PURCHASE_NOT_MET"
)

// PromoError explains why a code could not be applied.
type PromoError struct {
	Code        string
	Message     string
	MinPurchase int64
	Shortfall   int64
}

func (e *PromoError) Error() string { return e.Message }

// ErrorCode returns the machine-readable failure code.
func (e *PromoError) ErrorCode() string { return e.Code }

// HTTPStatus maps every promo failure to 422.
func (e *PromoError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// ErrorDetails exposes the purchase shortfall for MINIMUM_PURCHASE_NOT_MET.
func (e *PromoError) ErrorDetails() any {
	if e.Code != CodeMinimumPurchase {
		return nil
	}
	return map[string]int64{
		"min_purchase": e.MinPurchase,
		"shortfall":    e.Shortfall,
	}
}

// ErrInvalidPromo is returned when a code matches neither table nor voucher.
func ErrInvalidPromo() *PromoError {
	return &PromoError{Code: CodeInvalidPromo, Message: "invalid promo code or voucher"}
}

// ErrVoucherExpired is returned for inactive or expired vouchers.
func ErrVoucherExpired() *PromoError {
	return &PromoError{Code: CodeVoucherExpired, Message: "this voucher has expired"}
}

// ErrVoucherNotApplicable is returned when no selected item is covered.
func ErrVoucherNotApplicable() *PromoError {
	return &PromoError{Code: CodeVoucherNotApplicable, Message: "this voucher cannot be applied to any items in your cart"}
}

// ErrMinimumPurchase is returned when the eligible subtotal is below the
// voucher minimum.
func ErrMinimumPurchase(minPurchase, eligibleSubtotal int64) *PromoError {
	shortfall := minPurchase - eligibleSubtotal
	return &PromoError{
		Code:        CodeMinimumPurchase,
		Message:     fmt.Sprintf("minimum purchase of %d required, add %d more from this seller", minPurchase, shortfall),
		MinPurchase: minPurchase,
		Shortfall:   shortfall,
	}
}
