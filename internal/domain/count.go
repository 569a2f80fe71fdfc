package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CountSessionStatus represents the status of a counting session
type CountSessionStatus string

const (
	CountSessionOpen   CountSessionStatus = "open"
	CountSessionClosed CountSessionStatus = "closed"
)

// CountOutcome represents what the operator declared for a location
type CountOutcome string

const (
	CountOutcomeCounted CountOutcome = "counted"
	CountOutcomeEmpty   CountOutcome = "empty"
	CountOutcomeSkipped CountOutcome = "skipped"
)

// IsValid checks if the outcome is valid
func (o CountOutcome) IsValid() bool {
	switch o {
	case CountOutcomeCounted, CountOutcomeEmpty, CountOutcomeSkipped:
		return true
	default:
		return false
	}
}

// CountSession is a bounded blind-count over the slots whose codes match the
// scope prefix. Sessions must not overlap in scope; that precondition is the
// caller's to uphold.
type CountSession struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string             `bson:"sessionId" json:"sessionId"`
	Scope      string             `bson:"scope" json:"scope"`
	Status     CountSessionStatus `bson:"status" json:"status"`
	OperatorID string             `bson:"operatorId,omitempty" json:"operatorId,omitempty"`
	Version    int64              `bson:"version" json:"version"`
	StartedAt  time.Time          `bson:"startedAt" json:"startedAt"`
	ClosedAt   *time.Time         `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
}

// NewCountSession opens a session over an address-prefix scope.
func NewCountSession(sessionID, scope, operatorID string) (*CountSession, error) {
	if scope == "" {
		return nil, ErrSlotOutOfScope
	}
	return &CountSession{
		ID:         primitive.NewObjectID(),
		SessionID:  sessionID,
		Scope:      scope,
		Status:     CountSessionOpen,
		OperatorID: operatorID,
		StartedAt:  time.Now().UTC(),
	}, nil
}

// IsOpen reports whether items may still be recorded.
func (s *CountSession) IsOpen() bool {
	return s.Status == CountSessionOpen
}

// Close flips the session status. Completion does not re-validate coverage;
// skipped locations stay visible in the summary.
func (s *CountSession) Close() error {
	if s.Status == CountSessionClosed {
		return ErrSessionClosed
	}
	now := time.Now().UTC()
	s.Status = CountSessionClosed
	s.ClosedAt = &now
	return nil
}

// CountedStock is the pallet content snapshot on either side of a count.
type CountedStock struct {
	PalletLabel string     `bson:"palletLabel,omitempty" json:"palletLabel,omitempty"`
	SKUCode     string     `bson:"skuCode,omitempty" json:"skuCode,omitempty"`
	LotCode     string     `bson:"lotCode,omitempty" json:"lotCode,omitempty"`
	ExpiryDate  *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	Quantity    int        `bson:"quantity" json:"quantity"`
}

// CountItem records one visited location: what was expected, what was found,
// and the resulting discrepancy. RecordedAt orders the items for strict
// last-in-first-out undo.
type CountItem struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID      string             `bson:"sessionId" json:"sessionId"`
	SlotCode       string             `bson:"slotCode" json:"slotCode"`
	Outcome        CountOutcome       `bson:"outcome" json:"outcome"`
	Expected       *CountedStock      `bson:"expected,omitempty" json:"expected,omitempty"`
	Found          *CountedStock      `bson:"found,omitempty" json:"found,omitempty"`
	QuantityDelta  int                `bson:"quantityDelta" json:"quantityDelta"`
	SKUMismatch    bool               `bson:"skuMismatch" json:"skuMismatch"`
	LotMismatch    bool               `bson:"lotMismatch" json:"lotMismatch"`
	ExpiryMismatch bool               `bson:"expiryMismatch" json:"expiryMismatch"`
	CreatedPallet  string             `bson:"createdPallet,omitempty" json:"createdPallet,omitempty"`
	RecordedAt     time.Time          `bson:"recordedAt" json:"recordedAt"`
}

// NewCountItem builds the item for a visited location and computes its
// discrepancy. The quantity delta is counted minus expected; SKU, lot and
// expiry mismatches are flagged independently of the delta, since a quantity
// match with a SKU mismatch is still a discrepancy.
func NewCountItem(sessionID, slotCode string, outcome CountOutcome, expected, found *CountedStock) *CountItem {
	item := &CountItem{
		ID:         primitive.NewObjectID(),
		SessionID:  sessionID,
		SlotCode:   slotCode,
		Outcome:    outcome,
		Expected:   expected,
		Found:      found,
		RecordedAt: time.Now().UTC(),
	}
	if outcome == CountOutcomeSkipped {
		return item
	}

	expectedQty := 0
	if expected != nil {
		expectedQty = expected.Quantity
	}
	foundQty := 0
	if found != nil {
		foundQty = found.Quantity
	}
	item.QuantityDelta = foundQty - expectedQty

	if expected != nil && found != nil {
		item.SKUMismatch = expected.SKUCode != found.SKUCode
		item.LotMismatch = expected.LotCode != found.LotCode
		item.ExpiryMismatch = !equalExpiry(expected.ExpiryDate, found.ExpiryDate)
	}
	return item
}

// HasDiscrepancy reports whether anything diverged from the expectation.
func (i *CountItem) HasDiscrepancy() bool {
	return i.QuantityDelta != 0 || i.SKUMismatch || i.LotMismatch || i.ExpiryMismatch
}

func equalExpiry(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}

// CountSummary aggregates the visible result of a session.
type CountSummary struct {
	SessionID        string `json:"sessionId"`
	Scope            string `json:"scope"`
	Status           string `json:"status"`
	SlotsInScope     int    `json:"slotsInScope"`
	Visited          int    `json:"visited"`
	Counted          int    `json:"counted"`
	DeclaredEmpty    int    `json:"declaredEmpty"`
	Skipped          int    `json:"skipped"`
	Discrepancies    int    `json:"discrepancies"`
	NetQuantityDelta int    `json:"netQuantityDelta"`
	PalletsCreated   int    `json:"palletsCreated"`
}
