package domain

import (
	"encoding/json"
	"sort"
)

// Selection is the set of cart item ids chosen for checkout. It is encoded
// as a sorted JSON array.
type Selection map[string]struct{}

// NewSelection builds a selection from raw ids.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// SelectAllOf returns a selection holding every item.
func SelectAllOf(items []CartItem) Selection {
	return NewSelection(ItemIDs(items)...)
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s[NormalizeID(id)]
	return ok
}

// Add selects id.
func (s Selection) Add(id string) {
	if id = NormalizeID(id); id != "" {
		s[id] = struct{}{}
	}
}

// Remove deselects id.
func (s Selection) Remove(id string) {
	delete(s, NormalizeID(id))
}

// Toggle flips id and reports whether it is now selected.
func (s Selection) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Len is the number of selected ids.
func (s Selection) Len() int { return len(s) }

// IDs returns the selected ids sorted.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Retain returns the ids of s that still exist in items.
func (s Selection) Retain(items []CartItem) Selection {
	out := make(Selection, len(s))
	for i := range items {
		if _, ok := s[items[i].ID]; ok {
			out[items[i].ID] = struct{}{}
		}
	}
	return out
}

// Reconcile derives the selection after a cart fetch. On the initial load
// every item is selected. Later loads keep the selected ids that still exist;
// if none survive while the cart is non-empty, everything is selected again.
func (s Selection) Reconcile(items []CartItem, initial bool) Selection {
	if initial {
		return SelectAllOf(items)
	}
	kept := s.Retain(items)
	if kept.Len() == 0 && len(items) > 0 {
		return SelectAllOf(items)
	}
	return kept
}

// Filter returns the selected items in cart order.
func (s Selection) Filter(items []CartItem) []CartItem {
	out := make([]CartItem, 0, len(s))
	for i := range items {
		if _, ok := s[items[i].ID]; ok {
			out = append(out, items[i])
		}
	}
	return out
}

// AllSelected reports whether every item is selected and the cart is non-empty.
func (s Selection) AllSelected(items []CartItem) bool {
	return len(items) > 0 && s.Retain(items).Len() == len(items)
}

// MarshalJSON implements json.Marshaler.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON implements json.Unmarshaler. Numeric and string ids are both accepted.
func (s *Selection) UnmarshalJSON(b []byte) error {
	var ids []FlexID
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	out := make(Selection, len(ids))
	for _, id := range ids {
		out.Add(string(id))
	}
	*s = out
	return nil
}
