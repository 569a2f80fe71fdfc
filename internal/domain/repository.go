package domain

import (
	"context"
)

// SKURepository defines the interface for SKU persistence
type SKURepository interface {
	// Save persists a SKU (upsert)
	Save(ctx context.Context, sku *SKU) error

	// FindByCode retrieves a SKU by its code, nil when absent
	FindByCode(ctx context.Context, code string) (*SKU, error)

	// Update persists changes with an optimistic version check
	Update(ctx context.Context, sku *SKU) error
}

// SlotRepository defines the interface for slot persistence
type SlotRepository interface {
	// Save persists a slot (upsert)
	Save(ctx context.Context, slot *Slot) error

	// FindByCode retrieves a slot by its code, nil when absent
	FindByCode(ctx context.Context, code string) (*Slot, error)

	// FindFreeStorage retrieves free storage slots ordered by code ascending
	FindFreeStorage(ctx context.Context) ([]*Slot, error)

	// FindByUsage retrieves slots of a usage type ordered by code ascending
	FindByUsage(ctx context.Context, usage SlotUsage) ([]*Slot, error)

	// FindByCodePrefix retrieves slots whose code matches the prefix,
	// ordered by code ascending
	FindByCodePrefix(ctx context.Context, prefix string) ([]*Slot, error)

	// Update persists changes with an optimistic version check; a lost race
	// returns ErrVersionConflict
	Update(ctx context.Context, slot *Slot) error
}

// PalletRepository defines the interface for pallet persistence
type PalletRepository interface {
	// Save persists a pallet (upsert)
	Save(ctx context.Context, pallet *Pallet) error

	// FindByLabel retrieves a pallet by its label, nil when absent
	FindByLabel(ctx context.Context, label string) (*Pallet, error)

	// FindStoredBySKU retrieves stored pallets of a SKU, optionally filtered
	// by lot, ordered by quantity ascending then creation ascending
	FindStoredBySKU(ctx context.Context, skuCode, lotCode string) ([]*Pallet, error)

	// FindBySlot retrieves the pallets currently occupying a slot
	FindBySlot(ctx context.Context, slotCode string) ([]*Pallet, error)

	// Update persists changes with an optimistic version check
	Update(ctx context.Context, pallet *Pallet) error
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Save persists an order (upsert)
	Save(ctx context.Context, order *Order) error

	// FindByNumber retrieves an order by its transport number, nil when absent
	FindByNumber(ctx context.Context, number string) (*Order, error)

	// Update persists changes with an optimistic version check
	Update(ctx context.Context, order *Order) error
}

// MissionRepository defines the interface for mission persistence
type MissionRepository interface {
	// Save persists a mission (upsert)
	Save(ctx context.Context, mission *Mission) error

	// FindByID retrieves a mission by its MissionID, nil when absent
	FindByID(ctx context.Context, missionID string) (*Mission, error)

	// FindOldestPending retrieves the oldest pending mission, FIFO by
	// creation time with mission ID as the tie break; nil when the queue
	// is empty
	FindOldestPending(ctx context.Context) (*Mission, error)

	// FindActiveByOperator retrieves the operator's assigned or in-progress
	// mission, nil when the operator is idle
	FindActiveByOperator(ctx context.Context, operatorID string) (*Mission, error)

	// FindByOrder retrieves all missions belonging to an order
	FindByOrder(ctx context.Context, orderNumber string) ([]*Mission, error)

	// FindByStatus retrieves missions by status in FIFO order
	FindByStatus(ctx context.Context, status MissionStatus, pagination Pagination) ([]*Mission, error)

	// Update persists changes with an optimistic version check
	Update(ctx context.Context, mission *Mission) error

	// Delete removes a mission
	Delete(ctx context.Context, missionID string) error
}

// CountRepository defines the interface for count session persistence
type CountRepository interface {
	// SaveSession persists a session (upsert)
	SaveSession(ctx context.Context, session *CountSession) error

	// FindSession retrieves a session by its SessionID, nil when absent
	FindSession(ctx context.Context, sessionID string) (*CountSession, error)

	// UpdateSession persists changes with an optimistic version check
	UpdateSession(ctx context.Context, session *CountSession) error

	// SaveItem appends a count item
	SaveItem(ctx context.Context, item *CountItem) error

	// FindItems retrieves a session's items in chronological order
	FindItems(ctx context.Context, sessionID string) ([]*CountItem, error)

	// FindLastItem retrieves the chronologically last item, nil when none
	FindLastItem(ctx context.Context, sessionID string) (*CountItem, error)

	// DeleteItem removes a single count item
	DeleteItem(ctx context.Context, item *CountItem) error
}

// EventPublisher defines the interface for the append-only audit sink.
// Publishing is fire-and-forget: callers log failures and proceed.
type EventPublisher interface {
	// Publish appends a domain event
	Publish(ctx context.Context, event DomainEvent) error

	// PublishAll appends multiple domain events
	PublishAll(ctx context.Context, events []DomainEvent) error
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{Page: 1, PageSize: 20}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}
