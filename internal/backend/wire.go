package backend

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

// amount decodes a number or numeric string and rounds it to a whole minor
// unit. Anything unparseable decodes as zero.
type amount int64

func (a *amount) UnmarshalJSON(b []byte) error {
	*a = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return nil
	}
	*a = amount(d.Round(0).IntPart())
	return nil
}

type wireProduct struct {
	ID          domain.FlexID `json:"id"`
	VendorID    domain.FlexID `json:"vendor_id"`
	Seller      string        `json:"seller"`
	VendorName  string        `json:"vendor_name"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       amount        `json:"price"`
	Currency    string        `json:"currency"`
	ImageURL    string        `json:"image_url"`
	Stock       amount        `json:"stock"`
}

func (p wireProduct) toDomain() domain.Product {
	seller := p.Seller
	if seller == "" {
		seller = p.VendorName
	}
	return domain.Product{
		ID:          string(p.ID),
		VendorID:    string(p.VendorID),
		Seller:      seller,
		Name:        p.Name,
		Description: p.Description,
		Price:       int64(p.Price),
		Currency:    p.Currency,
		ImageURL:    p.ImageURL,
		Stock:       int(p.Stock),
	}
}

type wireCartItem struct {
	ID        domain.FlexID `json:"id"`
	ProductID domain.FlexID `json:"product_id"`
	VendorID  domain.FlexID `json:"vendor_id"`
	Name      string        `json:"name"`
	Price     amount        `json:"price"`
	Quantity  amount        `json:"quantity"`
	Currency  string        `json:"currency"`
	ImageURL  string        `json:"image_url"`
	Product   *wireProduct  `json:"product"`
}

func (w wireCartItem) toDomain() domain.CartItem {
	item := domain.CartItem{
		ID:        string(w.ID),
		ProductID: string(w.ProductID),
		VendorID:  string(w.VendorID),
		Name:      w.Name,
		Price:     int64(w.Price),
		Quantity:  int(w.Quantity),
		Currency:  w.Currency,
		ImageURL:  w.ImageURL,
	}
	if w.Product != nil {
		item = withProduct(item, w.Product.toDomain())
	}
	return item
}

// withProduct overlays product details on a cart line. Product fields win
// when set; cart-level values are kept otherwise.
func withProduct(item domain.CartItem, p domain.Product) domain.CartItem {
	if item.ProductID == "" {
		item.ProductID = p.ID
	}
	if p.VendorID != "" {
		item.VendorID = p.VendorID
	}
	if p.Seller != "" {
		item.Seller = p.Seller
	}
	if p.Name != "" {
		item.Name = p.Name
	}
	if p.Price > 0 {
		item.Price = p.Price
	}
	if p.Currency != "" {
		item.Currency = p.Currency
	}
	if p.ImageURL != "" {
		item.ImageURL = p.ImageURL
	}
	item.Stock = p.Stock
	return item
}

// unwrap peels {"data": ...} envelopes, including nested ones.
func unwrap(raw json.RawMessage) json.RawMessage {
	for range 3 {
		var env map[string]json.RawMessage
		if json.Unmarshal(raw, &env) != nil {
			return raw
		}
		data, ok := env["data"]
		if !ok || isNull(data) {
			return raw
		}
		// {"data":[...]} is a collection, handled by elements.
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
			return raw
		}
		raw = data
	}
	return raw
}

// elements returns the array found at the root or under one of the
// collection keys. Missing collections decode as empty.
func elements(raw json.RawMessage) []json.RawMessage {
	raw = unwrap(raw)
	var arr []json.RawMessage
	if json.Unmarshal(raw, &arr) == nil {
		return arr
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	for _, key := range []string{"items", "products", "data", "cart_items"} {
		if v, ok := obj[key]; ok && json.Unmarshal(v, &arr) == nil {
			return arr
		}
	}
	return nil
}

// total finds a collection size under the usual keys, falling back to n.
func total(raw json.RawMessage, n int) int {
	candidates := []json.RawMessage{raw, unwrap(raw)}
	for _, c := range candidates {
		var obj map[string]json.RawMessage
		if json.Unmarshal(c, &obj) != nil {
			continue
		}
		if meta, ok := obj["meta"]; ok {
			var m map[string]json.RawMessage
			if json.Unmarshal(meta, &m) == nil {
				for k, v := range m {
					obj[k] = v
				}
			}
		}
		for _, key := range []string{"total_count", "total"} {
			var v amount
			if rv, ok := obj[key]; ok && json.Unmarshal(rv, &v) == nil && v > 0 {
				return int(v)
			}
		}
	}
	return n
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
