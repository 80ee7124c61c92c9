package source

import (
	"context"
	"sync"
)

// Static implements a source with a fixed list of items.
type Static struct {
	mu    sync.RWMutex
	items Items
}

var _ Source = (*Static)(nil)

// NewStatic creates a new static source.
//
// Useful for tests and for inputs already held in memory.
//
// Parameters:
//   - items: Fixed input
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	src := source.NewStatic(source.Items{
//	    Values:  []string{"a.nc", "b.nc", "c.nc"},
//	    Weights: []float64{120, 80, 40},
//	})
//	items, _ := src.Items(ctx)
func NewStatic(items Items) *Static {
	return &Static{items: items.clone()}
}

// Items returns a copy of the static input.
//
// Returns:
//   - Items: The fixed input
//   - error: Always nil (never fails)
func (s *Static) Items(_ context.Context) (Items, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.items.clone(), nil
}

// Update replaces the input.
//
// Parameters:
//   - items: New input
func (s *Static) Update(items Items) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items.clone()
}
