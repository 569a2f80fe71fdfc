package cloudevents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	factory := NewEventFactory(SourceLedger)

	event := factory.CreateEvent(context.Background(), PalletMoved, "pallet/REC-001-001", map[string]string{
		"palletLabel": "REC-001-001",
	})

	require.NotNil(t, event)
	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, PalletMoved, event.Type)
	assert.Equal(t, SourceLedger, event.Source)
	assert.Equal(t, "pallet/REC-001-001", event.Subject)
	assert.Equal(t, "application/json", event.DataContentType)
	assert.NotEmpty(t, event.ID)
	assert.WithinDuration(t, time.Now().UTC(), event.Time, time.Second)
	assert.Empty(t, event.CorrelationID)
}

func TestCreateEvent_CorrelationFromContext(t *testing.T) {
	factory := NewEventFactory(SourceAPI)
	ctx := context.WithValue(context.Background(), CorrelationIDKey, "corr-123")

	event := factory.CreateEvent(ctx, MissionCreated, "mission/MIS-001", nil)

	assert.Equal(t, "corr-123", event.CorrelationID)
}

func TestCreateEventWithCorrelation(t *testing.T) {
	factory := NewEventFactory(SourceCount)

	event := factory.CreateEventWithCorrelation(context.Background(), CountItemRecorded, "count-session/CNT-001", nil, "corr-456")

	assert.Equal(t, "corr-456", event.CorrelationID)
}

func TestCreateEvent_UniqueIDs(t *testing.T) {
	factory := NewEventFactory(SourceAllocation)

	first := factory.CreateEvent(context.Background(), AllocationRun, "order/ORD-001", nil)
	second := factory.CreateEvent(context.Background(), AllocationRun, "order/ORD-001", nil)

	assert.NotEqual(t, first.ID, second.ID)
}
