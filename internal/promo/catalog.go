// Package promo holds the static, seller-independent promo code table.
package promo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

// Catalog is an immutable lookup table of standard promo codes.
type Catalog struct {
	codes map[string]float64
}

// NewCatalog builds a catalog from code percentages. Codes are stored upper-cased.
func NewCatalog(codes map[string]float64) (*Catalog, error) {
	c := &Catalog{codes: make(map[string]float64, len(codes))}
	for code, pct := range codes {
		key := normalize(code)
		if key == "" {
			return nil, fmt.Errorf("empty promo code")
		}
		if pct <= 0 || pct > 100 {
			return nil, fmt.Errorf("promo code %s: percentage %v outside (0,100]", key, pct)
		}
		if _, dup := c.codes[key]; dup {
			return nil, fmt.Errorf("duplicate promo code %s", key)
		}
		c.codes[key] = pct
	}
	return c, nil
}

// Parse reads a "CODE:PCT,CODE:PCT" list as found in PROMO_CODES.
func Parse(raw string) (*Catalog, error) {
	codes := map[string]float64{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, pctRaw, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("promo entry %q: expected CODE:PERCENT", entry)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(pctRaw), 64)
		if err != nil {
			return nil, fmt.Errorf("promo entry %q: %w", entry, err)
		}
		key := normalize(code)
		if _, dup := codes[key]; dup {
			return nil, fmt.Errorf("duplicate promo code %s", key)
		}
		codes[key] = pct
	}
	return NewCatalog(codes)
}

// Lookup matches code case-insensitively after trimming surrounding space.
func (c *Catalog) Lookup(code string) (domain.PromoCode, bool) {
	key := normalize(code)
	pct, ok := c.codes[key]
	if !ok {
		return domain.PromoCode{}, false
	}
	return domain.PromoCode{Code: key, Percentage: pct}, true
}

// Codes lists the catalog sorted by code.
func (c *Catalog) Codes() []domain.PromoCode {
	out := make([]domain.PromoCode, 0, len(c.codes))
	for code, pct := range c.codes {
		out = append(out, domain.PromoCode{Code: code, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
