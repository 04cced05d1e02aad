package shop

import (
	"context"
	"sync"
)

type MemSnapshots struct {
	mu       sync.RWMutex
	products []Product
	cart     []CartItem
}

func NewMemSnapshots() *MemSnapshots {
	return &MemSnapshots{}
}

func (s *MemSnapshots) Ping(ctx context.Context) error { return nil }

func (s *MemSnapshots) LoadProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemSnapshots) SaveProducts(ctx context.Context, products []Product) error {
	cp := make([]Product, len(products))
	copy(cp, products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = cp
	return nil
}

func (s *MemSnapshots) LoadCart(ctx context.Context) ([]CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CartItem, len(s.cart))
	copy(out, s.cart)
	return out, nil
}

func (s *MemSnapshots) SaveCart(ctx context.Context, items []CartItem) error {
	cp := make([]CartItem, len(items))
	copy(cp, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = cp
	return nil
}
