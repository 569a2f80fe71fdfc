package domain

import (
	"testing"
)

func TestSlotUsage_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		usage SlotUsage
		want  bool
	}{
		{"storage is valid", SlotUsageStorage, true},
		{"picking_face is valid", SlotUsagePickingFace, true},
		{"staging is valid", SlotUsageStaging, true},
		{"shipping_dock is valid", SlotUsageShipping, true},
		{"receiving_dock is valid", SlotUsageReceiving, true},
		{"unknown usage is invalid", SlotUsage("mezzanine"), false},
		{"empty usage is invalid", SlotUsage(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usage.IsValid(); got != tt.want {
				t.Errorf("SlotUsage.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSlot(t *testing.T) {
	t.Run("creates free slot", func(t *testing.T) {
		slot, err := NewSlot("A-01-01", SlotUsageStorage, 2, []string{"chem"})
		if err != nil {
			t.Fatalf("NewSlot() error = %v", err)
		}
		if slot.Status != SlotStatusFree {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusFree)
		}
		if slot.Capacity != 2 {
			t.Errorf("Capacity = %v, want 2", slot.Capacity)
		}
	})

	t.Run("defaults capacity to one", func(t *testing.T) {
		slot, err := NewSlot("A-01-01", SlotUsageStorage, 0, nil)
		if err != nil {
			t.Fatalf("NewSlot() error = %v", err)
		}
		if slot.Capacity != 1 {
			t.Errorf("Capacity = %v, want 1", slot.Capacity)
		}
	})

	t.Run("rejects invalid usage", func(t *testing.T) {
		if _, err := NewSlot("A-01-01", SlotUsage("nope"), 1, nil); err == nil {
			t.Error("NewSlot() error = nil, want error")
		}
	})
}

func TestSlot_ClaimRelease(t *testing.T) {
	t.Run("claim occupies the slot", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
		if err := slot.Claim("REC-001-001"); err != nil {
			t.Fatalf("Claim() error = %v", err)
		}
		if slot.Status != SlotStatusOccupied {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusOccupied)
		}
		if !slot.IsOccupied() {
			t.Error("IsOccupied() = false, want true")
		}
	})

	t.Run("partial occupancy below capacity", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 2, nil)
		slot.Claim("REC-001-001")
		if slot.Status != SlotStatusPartial {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusPartial)
		}
	})

	t.Run("claim beyond capacity fails", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
		slot.Claim("REC-001-001")
		if err := slot.Claim("REC-001-002"); err != ErrSlotCapacityFull {
			t.Errorf("Claim() error = %v, want ErrSlotCapacityFull", err)
		}
	})

	t.Run("claiming the same pallet twice is a no-op", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
		slot.Claim("REC-001-001")
		if err := slot.Claim("REC-001-001"); err != nil {
			t.Errorf("Claim() error = %v, want nil", err)
		}
		if len(slot.PalletLabels) != 1 {
			t.Errorf("PalletLabels length = %v, want 1", len(slot.PalletLabels))
		}
	})

	t.Run("release of the last pallet frees the slot", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 2, nil)
		slot.Claim("REC-001-001")
		slot.Claim("REC-001-002")
		if err := slot.Release("REC-001-001"); err != nil {
			t.Fatalf("Release() error = %v", err)
		}
		if slot.Status != SlotStatusPartial {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusPartial)
		}
		slot.Release("REC-001-002")
		if slot.Status != SlotStatusFree {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusFree)
		}
	})

	t.Run("release of an absent pallet fails", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
		if err := slot.Release("REC-001-001"); err != ErrPalletNotOnSlot {
			t.Errorf("Release() error = %v, want ErrPalletNotOnSlot", err)
		}
	})
}

func TestSlot_Block(t *testing.T) {
	slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
	slot.Block()

	if err := slot.Claim("REC-001-001"); err != ErrSlotBlocked {
		t.Errorf("Claim() error = %v, want ErrSlotBlocked", err)
	}
	if slot.IsEligibleForPutaway() {
		t.Error("IsEligibleForPutaway() = true on blocked slot")
	}

	slot.Unblock()
	if slot.Status != SlotStatusFree {
		t.Errorf("Status after Unblock = %v, want %v", slot.Status, SlotStatusFree)
	}
}

func TestSlot_UnderCount(t *testing.T) {
	t.Run("under-count slot rejects claims", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
		slot.MarkUnderCount()
		if err := slot.Claim("REC-001-001"); err != ErrSlotUnderCount {
			t.Errorf("Claim() error = %v, want ErrSlotUnderCount", err)
		}
	})

	t.Run("clear restores the derived status", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 2, nil)
		slot.Claim("REC-001-001")
		slot.MarkUnderCount()
		slot.ClearUnderCount()
		if slot.Status != SlotStatusPartial {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusPartial)
		}
	})

	t.Run("clear does not touch a blocked slot", func(t *testing.T) {
		slot, _ := NewSlot("A-01-01", SlotUsageStorage, 1, nil)
		slot.Block()
		slot.ClearUnderCount()
		if slot.Status != SlotStatusBlocked {
			t.Errorf("Status = %v, want %v", slot.Status, SlotStatusBlocked)
		}
	})
}

func TestSlot_IsEligibleForPutaway(t *testing.T) {
	tests := []struct {
		name  string
		usage SlotUsage
		setup func(*Slot)
		want  bool
	}{
		{"free storage slot", SlotUsageStorage, nil, true},
		{"staging slot is not storage", SlotUsageStaging, nil, false},
		{"occupied storage slot", SlotUsageStorage, func(s *Slot) { s.Claim("P-001") }, false},
		{"under-count storage slot", SlotUsageStorage, func(s *Slot) { s.MarkUnderCount() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, _ := NewSlot("A-01-01", tt.usage, 1, nil)
			if tt.setup != nil {
				tt.setup(slot)
			}
			if got := slot.IsEligibleForPutaway(); got != tt.want {
				t.Errorf("IsEligibleForPutaway() = %v, want %v", got, tt.want)
			}
		})
	}
}
