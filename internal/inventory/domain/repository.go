package domain

import "context"

// ProductRepository is Inventory's read-mostly catalog store; catalog CRUD
// beyond what POS reads is out of scope, so products are seeded by
// migration/fixture only.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, search, category, brand string, limit, offset int) ([]*Product, error)
}

// StockRepository persists StockItem rows and their StockMovement audit
// log.
type StockRepository interface {
	Find(ctx context.Context, productID, size string) (*StockItem, error)
	// Adjust applies delta to the (productID, size) item's quantity and
	// inserts one StockMovement row in a single DB transaction. Returns the
	// updated item.
	Adjust(ctx context.Context, productID, size string, delta int, movementType MovementType, referenceID string) (*StockItem, error)
	ListLow(ctx context.Context) ([]*StockItem, error)
	Movements(ctx context.Context, productID, size string, limit, offset int) ([]*StockMovement, error)
}
