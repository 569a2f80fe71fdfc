package cloudevents

import (
	"time"
)

// EventType constants for warehouse domain events
const (
	// Ledger events
	PalletMoved  = "wms.ledger.pallet-moved"
	SlotOccupied = "wms.ledger.slot-occupied"
	SlotFreed    = "wms.ledger.slot-freed"

	// Mission events
	MissionCreated   = "wms.mission.created"
	MissionAssigned  = "wms.mission.assigned"
	MissionCompleted = "wms.mission.completed"
	MissionReverted  = "wms.mission.reverted"
	MissionDeleted   = "wms.mission.deleted"

	// Allocation events
	OrderAllocated = "wms.allocation.order-allocated"
	AllocationRun  = "wms.allocation.run"

	// Count events
	CountItemRecorded  = "wms.count.item-recorded"
	CountUndone        = "wms.count.undone"
	CountPalletCreated = "wms.count.pallet-created"
)

// Source constants for event sources
const (
	SourceLedger     = "/wms/ledger"
	SourceAllocation = "/wms/allocation"
	SourceMission    = "/wms/mission"
	SourceCount      = "/wms/count"
	SourceAPI        = "/wms/warehouse-api"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for the warehouse engine
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Correlation extension propagated across the event stream
	CorrelationID string `json:"wmscorrelationid,omitempty"`
}
