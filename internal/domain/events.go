package domain

import "time"

// DomainEvent represents a domain event interface
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// PalletMovedEvent is emitted when the ledger moves a pallet between slots
type PalletMovedEvent struct {
	PalletLabel string    `json:"palletLabel"`
	FromSlot    string    `json:"fromSlot,omitempty"`
	ToSlot      string    `json:"toSlot"`
	MovedAt     time.Time `json:"movedAt"`
}

func (e *PalletMovedEvent) EventType() string     { return "wms.ledger.pallet-moved" }
func (e *PalletMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// SlotOccupiedEvent is emitted when a pallet claims a slot
type SlotOccupiedEvent struct {
	SlotCode    string    `json:"slotCode"`
	PalletLabel string    `json:"palletLabel"`
	OccupiedAt  time.Time `json:"occupiedAt"`
}

func (e *SlotOccupiedEvent) EventType() string     { return "wms.ledger.slot-occupied" }
func (e *SlotOccupiedEvent) OccurredAt() time.Time { return e.OccupiedAt }

// SlotFreedEvent is emitted when the last pallet leaves a slot
type SlotFreedEvent struct {
	SlotCode    string    `json:"slotCode"`
	PalletLabel string    `json:"palletLabel"`
	FreedAt     time.Time `json:"freedAt"`
}

func (e *SlotFreedEvent) EventType() string     { return "wms.ledger.slot-freed" }
func (e *SlotFreedEvent) OccurredAt() time.Time { return e.FreedAt }

// MissionCreatedEvent is emitted when a mission enters the queue
type MissionCreatedEvent struct {
	MissionID   string    `json:"missionId"`
	Type        string    `json:"type"`
	PalletLabel string    `json:"palletLabel,omitempty"`
	Quantity    int       `json:"quantity"`
	OrderNumber string    `json:"orderNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *MissionCreatedEvent) EventType() string     { return "wms.mission.created" }
func (e *MissionCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// MissionAssignedEvent is emitted when an operator claims a mission
type MissionAssignedEvent struct {
	MissionID  string    `json:"missionId"`
	OperatorID string    `json:"operatorId"`
	AssignedAt time.Time `json:"assignedAt"`
}

func (e *MissionAssignedEvent) EventType() string     { return "wms.mission.assigned" }
func (e *MissionAssignedEvent) OccurredAt() time.Time { return e.AssignedAt }

// MissionCompletedEvent is emitted on completion, short or full
type MissionCompletedEvent struct {
	MissionID         string    `json:"missionId"`
	OperatorID        string    `json:"operatorId"`
	RequestedQuantity int       `json:"requestedQuantity"`
	CompletedQuantity int       `json:"completedQuantity"`
	DivergenceReason  string    `json:"divergenceReason,omitempty"`
	OrderNumber       string    `json:"orderNumber,omitempty"`
	CompletedAt       time.Time `json:"completedAt"`
}

func (e *MissionCompletedEvent) EventType() string     { return "wms.mission.completed" }
func (e *MissionCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// MissionRevertedEvent is emitted when a claimed mission returns to the queue
type MissionRevertedEvent struct {
	MissionID  string    `json:"missionId"`
	OperatorID string    `json:"operatorId"`
	RevertedAt time.Time `json:"revertedAt"`
}

func (e *MissionRevertedEvent) EventType() string     { return "wms.mission.reverted" }
func (e *MissionRevertedEvent) OccurredAt() time.Time { return e.RevertedAt }

// MissionDeletedEvent is emitted when a pending mission is cancelled
type MissionDeletedEvent struct {
	MissionID   string    `json:"missionId"`
	PalletLabel string    `json:"palletLabel,omitempty"`
	DeletedAt   time.Time `json:"deletedAt"`
}

func (e *MissionDeletedEvent) EventType() string     { return "wms.mission.deleted" }
func (e *MissionDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }

// OrderAllocatedEvent is emitted when every mission of an order completed
type OrderAllocatedEvent struct {
	OrderNumber string    `json:"orderNumber"`
	AllocatedAt time.Time `json:"allocatedAt"`
}

func (e *OrderAllocatedEvent) EventType() string     { return "wms.allocation.order-allocated" }
func (e *OrderAllocatedEvent) OccurredAt() time.Time { return e.AllocatedAt }

// AllocationRunEvent is emitted after an allocation pass over an order
type AllocationRunEvent struct {
	OrderNumber     string    `json:"orderNumber"`
	MissionsCreated int       `json:"missionsCreated"`
	Warnings        []string  `json:"warnings,omitempty"`
	RanAt           time.Time `json:"ranAt"`
}

func (e *AllocationRunEvent) EventType() string     { return "wms.allocation.run" }
func (e *AllocationRunEvent) OccurredAt() time.Time { return e.RanAt }

// CountItemRecordedEvent is emitted for every submitted count location
type CountItemRecordedEvent struct {
	SessionID     string    `json:"sessionId"`
	SlotCode      string    `json:"slotCode"`
	Outcome       string    `json:"outcome"`
	QuantityDelta int       `json:"quantityDelta"`
	Discrepancy   bool      `json:"discrepancy"`
	RecordedAt    time.Time `json:"recordedAt"`
}

func (e *CountItemRecordedEvent) EventType() string     { return "wms.count.item-recorded" }
func (e *CountItemRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// CountUndoneEvent is emitted when the last count item of a session is undone
type CountUndoneEvent struct {
	SessionID string    `json:"sessionId"`
	SlotCode  string    `json:"slotCode"`
	UndoneAt  time.Time `json:"undoneAt"`
}

func (e *CountUndoneEvent) EventType() string     { return "wms.count.undone" }
func (e *CountUndoneEvent) OccurredAt() time.Time { return e.UndoneAt }

// PalletCreatedFromCountEvent is emitted when a blind count finds stock the
// system did not know about
type PalletCreatedFromCountEvent struct {
	SessionID   string    `json:"sessionId"`
	PalletLabel string    `json:"palletLabel"`
	SlotCode    string    `json:"slotCode"`
	SKUCode     string    `json:"skuCode"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *PalletCreatedFromCountEvent) EventType() string     { return "wms.count.pallet-created" }
func (e *PalletCreatedFromCountEvent) OccurredAt() time.Time { return e.CreatedAt }
