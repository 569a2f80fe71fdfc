package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MissionType represents the kind of physical work a mission asks for
type MissionType string

const (
	MissionTypePutaway       MissionType = "putaway"
	MissionTypePicking       MissionType = "picking"
	MissionTypeReplenishment MissionType = "replenishment"
	MissionTypeMove          MissionType = "move"
	MissionTypeCheck         MissionType = "check"
)

// IsValid checks if the mission type is valid
func (t MissionType) IsValid() bool {
	switch t {
	case MissionTypePutaway, MissionTypePicking, MissionTypeReplenishment, MissionTypeMove, MissionTypeCheck:
		return true
	default:
		return false
	}
}

// MissionStatus represents the dispatch status of a mission
type MissionStatus string

const (
	MissionStatusPending    MissionStatus = "pending"
	MissionStatusAssigned   MissionStatus = "assigned"
	MissionStatusInProgress MissionStatus = "in_progress"
	MissionStatusDone       MissionStatus = "done"
)

// CanTransitionTo checks if the status can transition to another status.
// Pending missions must be claimed before completion.
func (s MissionStatus) CanTransitionTo(target MissionStatus) bool {
	validTransitions := map[MissionStatus][]MissionStatus{
		MissionStatusPending:    {MissionStatusAssigned},
		MissionStatusAssigned:   {MissionStatusInProgress, MissionStatusPending, MissionStatusDone},
		MissionStatusInProgress: {MissionStatusDone, MissionStatusPending},
		MissionStatusDone:       {},
	}
	for _, allowed := range validTransitions[s] {
		if target == allowed {
			return true
		}
	}
	return false
}

// IsActive reports whether the mission occupies an operator.
func (s MissionStatus) IsActive() bool {
	return s == MissionStatusAssigned || s == MissionStatusInProgress
}

// Mission is one discrete, assignable unit of operator work. It references
// exactly one pallet and one quantity; a partial pick spawns further
// missions rather than mutating the quantity after creation.
type Mission struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MissionID         string             `bson:"missionId" json:"missionId"`
	Type              MissionType        `bson:"type" json:"type"`
	PalletLabel       string             `bson:"palletLabel,omitempty" json:"palletLabel,omitempty"`
	SourceSlot        string             `bson:"sourceSlot,omitempty" json:"sourceSlot,omitempty"`
	DestinationSlot   string             `bson:"destinationSlot,omitempty" json:"destinationSlot,omitempty"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	OrderNumber       string             `bson:"orderNumber,omitempty" json:"orderNumber,omitempty"`
	Status            MissionStatus      `bson:"status" json:"status"`
	OperatorID        string             `bson:"operatorId,omitempty" json:"operatorId,omitempty"`
	CompletedQuantity int                `bson:"completedQuantity" json:"completedQuantity"`
	DivergenceReason  string             `bson:"divergenceReason,omitempty" json:"divergenceReason,omitempty"`
	Version           int64              `bson:"version" json:"version"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	AssignedAt        *time.Time         `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	StartedAt         *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt       *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	DomainEvents      []DomainEvent      `bson:"-" json:"-"`
}

// NewMission creates a pending mission. CreatedAt defines the FIFO dispatch
// order, ties broken by mission ID.
func NewMission(missionID string, missionType MissionType, palletLabel, sourceSlot, destinationSlot string, quantity int, orderNumber string) (*Mission, error) {
	if !missionType.IsValid() {
		return nil, ErrInvalidStatusTransition
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	m := &Mission{
		ID:              primitive.NewObjectID(),
		MissionID:       missionID,
		Type:            missionType,
		PalletLabel:     palletLabel,
		SourceSlot:      sourceSlot,
		DestinationSlot: destinationSlot,
		Quantity:        quantity,
		OrderNumber:     orderNumber,
		Status:          MissionStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	m.addDomainEvent(&MissionCreatedEvent{
		MissionID:   missionID,
		Type:        string(missionType),
		PalletLabel: palletLabel,
		Quantity:    quantity,
		OrderNumber: orderNumber,
		CreatedAt:   m.CreatedAt,
	})
	return m, nil
}

// Assign claims the mission for an operator.
func (m *Mission) Assign(operatorID string) error {
	if !m.Status.CanTransitionTo(MissionStatusAssigned) {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	m.OperatorID = operatorID
	m.Status = MissionStatusAssigned
	m.AssignedAt = &now
	m.addDomainEvent(&MissionAssignedEvent{
		MissionID:  m.MissionID,
		OperatorID: operatorID,
		AssignedAt: now,
	})
	return nil
}

// Start moves an assigned mission into progress.
func (m *Mission) Start() error {
	if m.Status != MissionStatusAssigned {
		return ErrMissionNotAssigned
	}
	now := time.Now().UTC()
	m.Status = MissionStatusInProgress
	m.StartedAt = &now
	return nil
}

// Complete finishes the mission with the quantity actually handled. A short
// completion without a divergence reason is a caller error.
func (m *Mission) Complete(actualQuantity int, divergenceReason string) error {
	if m.Status == MissionStatusDone {
		return ErrMissionAlreadyDone
	}
	if !m.Status.IsActive() {
		return ErrMissionNotAssigned
	}
	if actualQuantity < 0 || actualQuantity > m.Quantity {
		return ErrInvalidQuantity
	}
	if actualQuantity < m.Quantity && divergenceReason == "" {
		return ErrDivergenceReasonRequired
	}
	now := time.Now().UTC()
	m.Status = MissionStatusDone
	m.CompletedQuantity = actualQuantity
	m.DivergenceReason = divergenceReason
	m.CompletedAt = &now
	m.addDomainEvent(&MissionCompletedEvent{
		MissionID:         m.MissionID,
		OperatorID:        m.OperatorID,
		RequestedQuantity: m.Quantity,
		CompletedQuantity: actualQuantity,
		DivergenceReason:  divergenceReason,
		OrderNumber:       m.OrderNumber,
		CompletedAt:       now,
	})
	return nil
}

// Revert returns an assigned or in-progress mission to the pending queue so
// another operator can claim it. Reverting a done mission is rejected, and a
// second revert fails rather than restoring state twice.
func (m *Mission) Revert() error {
	if m.Status == MissionStatusDone {
		return ErrMissionAlreadyDone
	}
	if m.Status == MissionStatusPending {
		return ErrMissionAlreadyPending
	}
	operator := m.OperatorID
	m.OperatorID = ""
	m.Status = MissionStatusPending
	m.AssignedAt = nil
	m.StartedAt = nil
	m.addDomainEvent(&MissionRevertedEvent{
		MissionID:  m.MissionID,
		OperatorID: operator,
		RevertedAt: time.Now().UTC(),
	})
	return nil
}

// CanDelete reports whether the mission may still be deleted. Deletion is
// only permitted before any operator has claimed it.
func (m *Mission) CanDelete() error {
	if m.Status != MissionStatusPending {
		return ErrMissionNotPending
	}
	return nil
}

// HasDivergence reports whether the mission completed short of the request.
func (m *Mission) HasDivergence() bool {
	return m.Status == MissionStatusDone && m.CompletedQuantity < m.Quantity
}

// addDomainEvent adds a domain event
func (m *Mission) addDomainEvent(event DomainEvent) {
	m.DomainEvents = append(m.DomainEvents, event)
}

// GetDomainEvents returns all buffered domain events
func (m *Mission) GetDomainEvents() []DomainEvent {
	return m.DomainEvents
}

// ClearDomainEvents clears all buffered domain events
func (m *Mission) ClearDomainEvents() {
	m.DomainEvents = nil
}
