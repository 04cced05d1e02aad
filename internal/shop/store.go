package shop

import "context"

// Snapshot record keys. Each is rewritten in full after every
// mutating operation and read once at startup.
const (
	productsKey = "products"
	cartKey     = "cart"
)

// Snapshots persists the two sequences as independent records. Loads
// must treat an absent or unparsable record as empty; only transport
// failures are reported as errors.
type Snapshots interface {
	LoadProducts(ctx context.Context) ([]Product, error)
	SaveProducts(ctx context.Context, products []Product) error

	LoadCart(ctx context.Context) ([]CartItem, error)
	SaveCart(ctx context.Context, items []CartItem) error

	Ping(ctx context.Context) error
}
