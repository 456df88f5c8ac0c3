package domain

// Summary is the priced view of a session.
type Summary struct {
	ItemCount       int           `json:"item_count"`
	SelectedCount   int           `json:"selected_count"`
	AllSelected     bool          `json:"all_selected"`
	Subtotal        int64         `json:"subtotal"`
	TotalCartValue  int64         `json:"total_cart_value"`
	UnselectedValue int64         `json:"unselected_value"`
	PromoDiscount   int64         `json:"promo_discount"`
	VoucherDiscount int64         `json:"voucher_discount"`
	Discount        int64         `json:"discount"`
	Total           int64         `json:"total"`
	Currency        string        `json:"currency,omitempty"`
	Vendors         []VendorGroup `json:"vendors"`
}

// VendorGroup is the cart items of one seller.
type VendorGroup struct {
	VendorID string     `json:"vendor_id"`
	Seller   string     `json:"seller"`
	Items    []CartItem `json:"items"`
	Subtotal int64      `json:"subtotal"`
	Voucher  string     `json:"voucher,omitempty"`
}

// NoticeLevel classifies a user-facing notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a short message for the user describing the outcome of an action.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// SessionView is what the API returns for a session.
type SessionView struct {
	Session *Session `json:"session"`
	Summary Summary  `json:"summary"`
	Notices []Notice `json:"notices,omitempty"`
}

// Product is a catalog entry as exposed by the backend.
type Product struct {
	ID          string `json:"id"`
	VendorID    string `json:"vendor_id"`
	Seller      string `json:"seller,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Stock       int    `json:"stock"`
}
