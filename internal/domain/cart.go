package domain

// CartItem is one line of the user's cart, enriched with product details.
// IDs are canonical (see NormalizeID). Prices are in the smallest currency unit.
type CartItem struct {
	ID                 string  `json:"id"`
	ProductID          string  `json:"product_id"`
	VendorID           string  `json:"vendor_id"`
	Seller             string  `json:"seller,omitempty"`
	Name               string  `json:"name"`
	Price              int64   `json:"price"`
	Quantity           int     `json:"quantity"`
	Currency           string  `json:"currency,omitempty"`
	ImageURL           string  `json:"image_url,omitempty"`
	Stock              int     `json:"stock,omitempty"`
	DiscountPercentage float64 `json:"discount_percentage,omitempty"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// DisplayName falls back to the item id when the product name is unknown.
func (i CartItem) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return "item " + i.ID
}

// SellerLabel is the grouping key shown for an item's seller.
func (i CartItem) SellerLabel() string {
	switch {
	case i.Seller != "":
		return i.Seller
	case i.VendorID != "":
		return "Seller #" + i.VendorID
	default:
		return "Unknown Seller"
	}
}

// FindItem returns the index of the item with the given id, or -1.
func FindItem(items []CartItem, id string) int {
	id = NormalizeID(id)
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneItems returns a copy of items that can be modified independently.
func CloneItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

// ItemIDs returns the ids of items in order.
func ItemIDs(items []CartItem) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}

// ClearItemDiscounts resets the per-item voucher percentage on every item.
func ClearItemDiscounts(items []CartItem) {
	for i := range items {
		items[i].DiscountPercentage = 0
	}
}
