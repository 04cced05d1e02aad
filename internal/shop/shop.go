package shop

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingImage      = errors.New("image required")
	ErrProductNotFound   = errors.New("product not found")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrInvalidProduct    = errors.New("invalid product")
)

type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Image      string `json:"image"`
}

// CartItem is a snapshot of the product at add time. Later catalog
// edits to price or image do not propagate; only stock is kept in
// sync by the cart operations themselves.
type CartItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Image      string `json:"image"`
	Quantity   int    `json:"quantity"`
}

// Shop owns both the catalog and the cart. Every cart operation
// mutates the two collections under one lock so that per product,
// stock plus the reserved cart quantity stays constant.
type Shop struct {
	mu       sync.Mutex
	products []Product
	cart     []CartItem

	snapshots Snapshots
	log       *zap.Logger
}

func New(snapshots Snapshots, log *zap.Logger) *Shop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shop{snapshots: snapshots, log: log}
}

// Load reads both persisted sequences. Missing or unreadable state
// degrades to empty collections rather than failing startup.
func (s *Shop) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.snapshots.LoadProducts(ctx)
	if err != nil {
		s.log.Warn("load products snapshot failed, starting empty", zap.Error(err))
		products = nil
	}

	cart, err := s.snapshots.LoadCart(ctx)
	if err != nil {
		s.log.Warn("load cart snapshot failed, starting empty", zap.Error(err))
		cart = nil
	}

	s.products = products
	s.cart = cart
}

func (s *Shop) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Shop) Product(id string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.findProduct(id); ok {
		return s.products[i], true
	}
	return Product{}, false
}

// Cart returns the cart lines in display order and the running total.
func (s *Shop) Cart() ([]CartItem, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CartItem, len(s.cart))
	copy(out, s.cart)

	var total int64
	for _, it := range out {
		total += it.PriceCents * int64(it.Quantity)
	}
	return out, total
}

// validateProductFields checks the scalar catalog fields alone, so
// callers can reject a bad submission before any image blob has been
// accepted for it.
func validateProductFields(name string, priceCents int64, stock int) error {
	if strings.TrimSpace(name) == "" || priceCents < 0 || stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

func (s *Shop) CreateProduct(ctx context.Context, name string, priceCents int64, stock int, image string) (Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductFields(name, priceCents, stock); err != nil {
		return Product{}, err
	}
	if image == "" {
		return Product{}, ErrMissingImage
	}

	p := Product{
		ID:         "p_" + uuid.NewString(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		Image:      image,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(s.products, p)
	s.persistProducts(ctx)
	return p, nil
}

func (s *Shop) AddToCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi, ok := s.findProduct(productID)
	if !ok {
		return ErrProductNotFound
	}
	p := &s.products[pi]

	// Stock is decremented as it is reserved, so a positive stock is
	// the whole precondition for taking one more unit.
	if p.Stock <= 0 {
		return ErrOutOfStock
	}

	if li, ok := s.findLine(productID); ok {
		s.cart[li].Quantity++
	} else {
		s.cart = append(s.cart, CartItem{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Image:      p.Image,
			Quantity:   1,
		})
	}

	p.Stock--
	s.persistCart(ctx)
	s.persistProducts(ctx)
	return nil
}

// RemoveFromCart deletes the line at the given display position and
// releases its full reserved quantity back to the product's stock.
func (s *Shop) RemoveFromCart(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.cart) {
		return ErrItemNotFound
	}

	item := s.cart[index]
	s.adjustStock(item.ProductID, item.Quantity)
	s.cart = append(s.cart[:index], s.cart[index+1:]...)

	s.persistCart(ctx)
	s.persistProducts(ctx)
	return nil
}

// UpdateQuantity sets the line's quantity and applies the signed
// difference to the product's stock. A quantity of zero or less is
// ignored, matching the storefront's form behavior.
func (s *Shop) UpdateQuantity(ctx context.Context, index, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.cart) {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		return nil
	}

	line := &s.cart[index]
	pi, ok := s.findProduct(line.ProductID)
	if !ok {
		return ErrProductNotFound
	}
	p := &s.products[pi]

	available := p.Stock + line.Quantity
	if quantity > available {
		return ErrInsufficientStock
	}

	diff := quantity - line.Quantity
	line.Quantity = quantity
	p.Stock -= diff

	s.persistCart(ctx)
	s.persistProducts(ctx)
	return nil
}

// Purchase clears the cart. Stock reserved while shopping stays
// consumed; there is no receipt or order record.
func (s *Shop) Purchase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return ErrEmptyCart
	}

	s.cart = nil
	s.persistCart(ctx)
	return nil
}

func (s *Shop) findProduct(id string) (int, bool) {
	for i := range s.products {
		if s.products[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Shop) findLine(productID string) (int, bool) {
	for i := range s.cart {
		if s.cart[i].ProductID == productID {
			return i, true
		}
	}
	return 0, false
}

// adjustStock is a no-op when the product is gone; cart lines always
// originate from an existing product, so a miss means stale state.
func (s *Shop) adjustStock(productID string, delta int) {
	if i, ok := s.findProduct(productID); ok {
		s.products[i].Stock += delta
	}
}

func (s *Shop) persistProducts(ctx context.Context) {
	if err := s.snapshots.SaveProducts(ctx, s.products); err != nil {
		s.log.Warn("save products snapshot failed", zap.Error(err))
	}
}

func (s *Shop) persistCart(ctx context.Context) {
	if err := s.snapshots.SaveCart(ctx, s.cart); err != nil {
		s.log.Warn("save cart snapshot failed", zap.Error(err))
	}
}
