package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PalletStatus represents the lifecycle status of a pallet
type PalletStatus string

const (
	PalletStatusPendingID  PalletStatus = "pending_identification"
	PalletStatusIdentified PalletStatus = "identified"
	PalletStatusStored     PalletStatus = "stored"
	PalletStatusAllocated  PalletStatus = "allocated"
	PalletStatusCounted    PalletStatus = "counted"
	PalletStatusShipped    PalletStatus = "shipped"
)

// IsValid checks if the status is valid
func (s PalletStatus) IsValid() bool {
	switch s {
	case PalletStatusPendingID, PalletStatusIdentified, PalletStatusStored,
		PalletStatusAllocated, PalletStatusCounted, PalletStatusShipped:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if the status can transition to another status
func (s PalletStatus) CanTransitionTo(target PalletStatus) bool {
	validTransitions := map[PalletStatus][]PalletStatus{
		PalletStatusPendingID:  {PalletStatusIdentified},
		PalletStatusIdentified: {PalletStatusStored},
		PalletStatusStored:     {PalletStatusAllocated, PalletStatusCounted, PalletStatusIdentified, PalletStatusStored},
		PalletStatusAllocated:  {PalletStatusStored, PalletStatusShipped, PalletStatusIdentified},
		PalletStatusCounted:    {PalletStatusStored, PalletStatusIdentified},
		PalletStatusShipped:    {},
	}
	for _, allowed := range validTransitions[s] {
		if target == allowed {
			return true
		}
	}
	return false
}

// Pallet is the unit of physical stock. The label code derives from the
// receipt number and the sequence within the receipt and is globally unique.
// A pallet occupies at most one slot at a time.
type Pallet struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Label         string             `bson:"label" json:"label"`
	ReceiptNumber string             `bson:"receiptNumber" json:"receiptNumber"`
	Sequence      int                `bson:"sequence" json:"sequence"`
	SKUCode       string             `bson:"skuCode,omitempty" json:"skuCode,omitempty"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	LotCode       string             `bson:"lotCode,omitempty" json:"lotCode,omitempty"`
	ExpiryDate    *time.Time         `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	SlotCode      string             `bson:"slotCode,omitempty" json:"slotCode,omitempty"`
	Status        PalletStatus       `bson:"status" json:"status"`
	Version       int64              `bson:"version" json:"version"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	IdentifiedAt  *time.Time         `bson:"identifiedAt,omitempty" json:"identifiedAt,omitempty"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewPallet creates a pallet awaiting identification. The label is derived
// from the receipt number and sequence.
func NewPallet(receiptNumber string, sequence int) (*Pallet, error) {
	if receiptNumber == "" || sequence < 1 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	return &Pallet{
		ID:            primitive.NewObjectID(),
		Label:         fmt.Sprintf("%s-%03d", receiptNumber, sequence),
		ReceiptNumber: receiptNumber,
		Sequence:      sequence,
		Status:        PalletStatusPendingID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Identify points the pallet at a SKU. All invariant-bearing fields are
// required up front; only lot and expiry are genuinely optional.
func (p *Pallet) Identify(skuCode string, quantity int, lotCode string, expiry *time.Time) error {
	if p.Status != PalletStatusPendingID {
		return ErrInvalidStatusTransition
	}
	if skuCode == "" {
		return ErrPalletNotIdentified
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	now := time.Now().UTC()
	p.SKUCode = skuCode
	p.Quantity = quantity
	p.LotCode = lotCode
	p.ExpiryDate = expiry
	p.Status = PalletStatusIdentified
	p.IdentifiedAt = &now
	p.UpdatedAt = now
	return nil
}

// Store places the pallet on a slot. Only the ledger calls this.
func (p *Pallet) Store(slotCode string) error {
	if !p.Status.CanTransitionTo(PalletStatusStored) && p.Status != PalletStatusStored {
		return ErrInvalidStatusTransition
	}
	p.SlotCode = slotCode
	p.Status = PalletStatusStored
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Relocate changes the pallet's slot without touching its lifecycle status.
// Used for moves of already-allocated pallets to staging.
func (p *Pallet) Relocate(slotCode string) {
	p.SlotCode = slotCode
	p.UpdatedAt = time.Now().UTC()
}

// AllocateForPicking reserves the pallet for an outbound mission.
func (p *Pallet) AllocateForPicking() error {
	if p.Status != PalletStatusStored {
		return ErrInvalidStatusTransition
	}
	p.Status = PalletStatusAllocated
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ReleaseAllocation returns an allocated pallet to the available pool.
func (p *Pallet) ReleaseAllocation() error {
	if p.Status != PalletStatusAllocated {
		return ErrInvalidStatusTransition
	}
	p.Status = PalletStatusStored
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Take removes picked units from the pallet. The remaining quantity is never
// negative.
func (p *Pallet) Take(quantity int) error {
	if quantity <= 0 || quantity > p.Quantity {
		return ErrInvalidQuantity
	}
	p.Quantity -= quantity
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Detach removes the pallet from its slot, returning it to the identified,
// unplaced state. Used by count reconciliation when a slot is declared empty.
func (p *Pallet) Detach() {
	p.SlotCode = ""
	p.Status = PalletStatusIdentified
	p.UpdatedAt = time.Now().UTC()
}

// ApplyCount overwrites the pallet with counted values. A count is
// authoritative: it corrects the stock record rather than advising.
func (p *Pallet) ApplyCount(skuCode string, quantity int, lotCode string, expiry *time.Time) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	p.SKUCode = skuCode
	p.Quantity = quantity
	p.LotCode = lotCode
	p.ExpiryDate = expiry
	p.Status = PalletStatusCounted
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RestoreStored returns a counted pallet to the general stored pool.
func (p *Pallet) RestoreStored() {
	if p.Status == PalletStatusCounted {
		p.Status = PalletStatusStored
		p.UpdatedAt = time.Now().UTC()
	}
}

// Ship marks the pallet as shipped, ending its lifecycle.
func (p *Pallet) Ship() error {
	if p.Status != PalletStatusAllocated {
		return ErrInvalidStatusTransition
	}
	p.SlotCode = ""
	p.Status = PalletStatusShipped
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IsStored reports whether the pallet sits on a slot, unreserved.
func (p *Pallet) IsStored() bool {
	return p.Status == PalletStatusStored && p.SlotCode != ""
}
