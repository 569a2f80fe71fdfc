package domain

import "errors"

// Ledger errors
var (
	ErrSlotUnavailable   = errors.New("slot is not available")
	ErrSlotBlocked       = errors.New("slot is blocked")
	ErrSlotUnderCount    = errors.New("slot is being counted")
	ErrSlotCapacityFull  = errors.New("slot capacity exceeded")
	ErrPalletNotOnSlot   = errors.New("pallet does not occupy this slot")
	ErrVersionConflict   = errors.New("entity was modified concurrently")
)

// Pallet / SKU errors
var (
	ErrPalletNotIdentified     = errors.New("pallet has not been identified")
	ErrSKUBlocked              = errors.New("sku is blocked")
	ErrBlockReasonRequired     = errors.New("a reason is required to block a sku")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// Mission errors
var (
	ErrOperatorBusy             = errors.New("operator already has an active mission")
	ErrMissionNotAssigned       = errors.New("mission is not assigned to an operator")
	ErrMissionAlreadyDone       = errors.New("mission is already done")
	ErrMissionAlreadyPending    = errors.New("mission is already pending")
	ErrMissionNotPending        = errors.New("mission is no longer pending")
	ErrDivergenceReasonRequired = errors.New("a divergence reason is required for a short completion")
	ErrPalletAlreadyClaimed     = errors.New("pallet is already claimed by another mission")
)

// Count errors
var (
	ErrSessionClosed  = errors.New("count session is closed")
	ErrNothingToUndo  = errors.New("count session has no items to undo")
	ErrSlotOutOfScope = errors.New("slot is outside the session scope")
)
