package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SKUStatus represents the lifecycle status of a SKU
type SKUStatus string

const (
	SKUStatusActive  SKUStatus = "active"
	SKUStatusBlocked SKUStatus = "blocked"
)

// MaxCompatibilityTags is the maximum number of SRE compatibility tags a SKU
// or slot may carry.
const MaxCompatibilityTags = 5

// SKU represents a product definition. Everything except status and
// descriptive metadata is immutable once a pallet references the SKU.
type SKU struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code           string             `bson:"code" json:"code"`
	Description    string             `bson:"description" json:"description"`
	UnitsPerPallet int                `bson:"unitsPerPallet" json:"unitsPerPallet"`
	Tags           []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Status         SKUStatus          `bson:"status" json:"status"`
	BlockReason    string             `bson:"blockReason,omitempty" json:"blockReason,omitempty"`
	Version        int64              `bson:"version" json:"version"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewSKU creates an active SKU. Tags beyond MaxCompatibilityTags are dropped;
// tag order carries no meaning.
func NewSKU(code, description string, unitsPerPallet int, tags []string) (*SKU, error) {
	if code == "" {
		return nil, ErrInvalidStatusTransition
	}
	if unitsPerPallet < 0 {
		return nil, ErrInvalidQuantity
	}
	if len(tags) > MaxCompatibilityTags {
		tags = tags[:MaxCompatibilityTags]
	}
	now := time.Now().UTC()
	return &SKU{
		ID:             primitive.NewObjectID(),
		Code:           code,
		Description:    description,
		UnitsPerPallet: unitsPerPallet,
		Tags:           tags,
		Status:         SKUStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Block blocks the SKU. A reason is mandatory.
func (s *SKU) Block(reason string) error {
	if reason == "" {
		return ErrBlockReasonRequired
	}
	s.Status = SKUStatusBlocked
	s.BlockReason = reason
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate clears a block.
func (s *SKU) Activate() {
	s.Status = SKUStatusActive
	s.BlockReason = ""
	s.UpdatedAt = time.Now().UTC()
}

// IsBlocked reports whether the SKU is blocked.
func (s *SKU) IsBlocked() bool {
	return s.Status == SKUStatusBlocked
}

// HasTags reports whether the SKU carries any compatibility tags.
func (s *SKU) HasTags() bool {
	return len(s.Tags) > 0
}

// SharesTag reports whether the SKU shares at least one compatibility tag
// with the given tag set. Comparison is order-independent.
func (s *SKU) SharesTag(tags []string) bool {
	for _, mine := range s.Tags {
		for _, other := range tags {
			if mine == other {
				return true
			}
		}
	}
	return false
}
