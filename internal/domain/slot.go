package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotUsage represents what a storage slot is used for
type SlotUsage string

const (
	SlotUsageStorage     SlotUsage = "storage"
	SlotUsagePickingFace SlotUsage = "picking_face"
	SlotUsageStaging     SlotUsage = "staging"
	SlotUsageShipping    SlotUsage = "shipping_dock"
	SlotUsageReceiving   SlotUsage = "receiving_dock"
)

// IsValid checks if the usage type is valid
func (u SlotUsage) IsValid() bool {
	switch u {
	case SlotUsageStorage, SlotUsagePickingFace, SlotUsageStaging, SlotUsageShipping, SlotUsageReceiving:
		return true
	default:
		return false
	}
}

// SlotStatus represents the occupancy status of a slot
type SlotStatus string

const (
	SlotStatusFree       SlotStatus = "free"
	SlotStatusOccupied   SlotStatus = "occupied"
	SlotStatusPartial    SlotStatus = "partially_occupied"
	SlotStatusBlocked    SlotStatus = "blocked"
	SlotStatusUnderCount SlotStatus = "under_count"
)

// Slot is a physical storage location. It tracks the labels of the pallets
// occupying it; its status is derived from that list and never set directly
// by callers outside the ledger.
type Slot struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code         string             `bson:"code" json:"code"`
	Usage        SlotUsage          `bson:"usage" json:"usage"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Capacity     int                `bson:"capacity" json:"capacity"`
	Status       SlotStatus         `bson:"status" json:"status"`
	PalletLabels []string           `bson:"palletLabels,omitempty" json:"palletLabels,omitempty"`
	Version      int64              `bson:"version" json:"version"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewSlot creates a free slot with the given capacity in unit pallets.
func NewSlot(code string, usage SlotUsage, capacity int, tags []string) (*Slot, error) {
	if code == "" || !usage.IsValid() {
		return nil, ErrInvalidStatusTransition
	}
	if capacity < 1 {
		capacity = 1
	}
	if len(tags) > MaxCompatibilityTags {
		tags = tags[:MaxCompatibilityTags]
	}
	now := time.Now().UTC()
	return &Slot{
		ID:        primitive.NewObjectID(),
		Code:      code,
		Usage:     usage,
		Tags:      tags,
		Capacity:  capacity,
		Status:    SlotStatusFree,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOccupied reports whether at least one pallet references the slot.
func (s *Slot) IsOccupied() bool {
	return len(s.PalletLabels) > 0
}

// IsGeneric reports whether the slot carries no compatibility tags.
func (s *Slot) IsGeneric() bool {
	return len(s.Tags) == 0
}

// IsEligibleForPutaway reports whether a pallet may be stowed here. Blocked
// and under-count slots are never eligible regardless of occupancy.
func (s *Slot) IsEligibleForPutaway() bool {
	return s.Status == SlotStatusFree && s.Usage == SlotUsageStorage
}

// CanAcceptPallet checks whether one more pallet fits on the slot.
func (s *Slot) CanAcceptPallet() error {
	switch s.Status {
	case SlotStatusBlocked:
		return ErrSlotBlocked
	case SlotStatusUnderCount:
		return ErrSlotUnderCount
	}
	if len(s.PalletLabels) >= s.Capacity {
		return ErrSlotCapacityFull
	}
	return nil
}

// Claim records a pallet occupying the slot and recomputes the status.
func (s *Slot) Claim(palletLabel string) error {
	if err := s.CanAcceptPallet(); err != nil {
		return err
	}
	for _, l := range s.PalletLabels {
		if l == palletLabel {
			return nil // already here, no-op
		}
	}
	s.PalletLabels = append(s.PalletLabels, palletLabel)
	s.refreshStatus()
	return nil
}

// Release removes a pallet reference and recomputes the status. Releasing a
// slot that still holds other pallets leaves it occupied; only the last
// pallet leaving flips the status to free.
func (s *Slot) Release(palletLabel string) error {
	for i, l := range s.PalletLabels {
		if l == palletLabel {
			s.PalletLabels = append(s.PalletLabels[:i], s.PalletLabels[i+1:]...)
			s.refreshStatus()
			return nil
		}
	}
	return ErrPalletNotOnSlot
}

// Block marks the slot as unavailable for putaway and allocation.
func (s *Slot) Block() {
	s.Status = SlotStatusBlocked
	s.UpdatedAt = time.Now().UTC()
}

// Unblock restores the derived occupancy status.
func (s *Slot) Unblock() {
	s.refreshStatus()
}

// MarkUnderCount reserves the slot for a counting session, guarding it
// against concurrent ledger mutation.
func (s *Slot) MarkUnderCount() {
	s.Status = SlotStatusUnderCount
	s.UpdatedAt = time.Now().UTC()
}

// ClearUnderCount restores the derived occupancy status after counting.
func (s *Slot) ClearUnderCount() {
	if s.Status == SlotStatusUnderCount {
		s.refreshStatus()
	}
}

func (s *Slot) refreshStatus() {
	switch {
	case len(s.PalletLabels) == 0:
		s.Status = SlotStatusFree
	case len(s.PalletLabels) < s.Capacity:
		s.Status = SlotStatusPartial
	default:
		s.Status = SlotStatusOccupied
	}
	s.UpdatedAt = time.Now().UTC()
}
