package reconcile

import (
	"fmt"
	"strings"
)

// Registry holds the items of a report keyed by code, in insertion order.
// It is not safe for concurrent use; Session serializes access to it.
type Registry struct {
	items map[string]*Item
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Item)}
}

// Add registers an item under its code. Surrounding spaces are removed from
// the code so Get finds the item by its trimmed code.
func (r *Registry) Add(item *Item) error {
	if item == nil || strings.TrimSpace(item.Code) == "" {
		return fmt.Errorf("%w: item code is empty", ErrValidation)
	}
	item.Code = strings.TrimSpace(item.Code)
	if _, exists := r.items[item.Code]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, item.Code)
	}
	r.items[item.Code] = item
	r.order = append(r.order, item.Code)
	return nil
}

// AddAll registers all items or none of them. Codes are trimmed as in Add.
func (r *Registry) AddAll(items []*Item) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.Code) == "" {
			return fmt.Errorf("%w: item code is empty", ErrValidation)
		}
		code := strings.TrimSpace(item.Code)
		if _, exists := r.items[code]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, code)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, code)
		}
		seen[code] = struct{}{}
	}

	for _, item := range items {
		item.Code = strings.TrimSpace(item.Code)
		r.items[item.Code] = item
		r.order = append(r.order, item.Code)
	}
	return nil
}

// Get looks up an item by code. The code is trimmed before lookup.
func (r *Registry) Get(code string) (*Item, bool) {
	item, ok := r.items[strings.TrimSpace(code)]
	return item, ok
}

// Len returns the number of registered items.
func (r *Registry) Len() int {
	return len(r.items)
}

// Items returns the registered items in insertion order.
// The returned slice is new but the items are shared.
func (r *Registry) Items() []*Item {
	out := make([]*Item, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.items[code])
	}
	return out
}

// Clone returns a registry holding deep copies of all items.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		items: make(map[string]*Item, len(r.items)),
		order: make([]string, len(r.order)),
	}
	copy(c.order, r.order)
	for code, item := range r.items {
		c.items[code] = item.Clone()
	}
	return c
}
