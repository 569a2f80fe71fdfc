package application

import (
	"context"
	"testing"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	apperrors "github.com/wms-platform/warehouse-engine/pkg/errors"
)

type ledgerFixture struct {
	slotRepo   *fakeSlotRepo
	palletRepo *fakePalletRepo
	publisher  *fakePublisher
	service    *LedgerService
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		slotRepo:   newFakeSlotRepo(),
		palletRepo: newFakePalletRepo(),
		publisher:  &fakePublisher{},
	}
	f.service = NewLedgerService(f.slotRepo, f.palletRepo, f.publisher, newTestLogger())
	return f
}

func (f *ledgerFixture) addSlot(t *testing.T, code string, usage domain.SlotUsage, capacity int) *domain.Slot {
	t.Helper()
	slot, err := domain.NewSlot(code, usage, capacity, nil)
	if err != nil {
		t.Fatalf("NewSlot() error = %v", err)
	}
	f.slotRepo.Save(context.Background(), slot)
	return slot
}

func (f *ledgerFixture) addIdentifiedPallet(t *testing.T, receipt string, seq, quantity int) *domain.Pallet {
	t.Helper()
	pallet, err := domain.NewPallet(receipt, seq)
	if err != nil {
		t.Fatalf("NewPallet() error = %v", err)
	}
	if err := pallet.Identify("SKU-001", quantity, "", nil); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	f.palletRepo.Save(context.Background(), pallet)
	return pallet
}

func (f *ledgerFixture) occupy(t *testing.T, slotCode, palletLabel string) {
	t.Helper()
	if err := f.service.Occupy(context.Background(), slotCode, palletLabel); err != nil {
		t.Fatalf("Occupy(%s, %s) error = %v", slotCode, palletLabel, err)
	}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("error = %T (%v), want *AppError", err, err)
	}
	return appErr.Code
}

func TestLedgerService_Occupy(t *testing.T) {
	t.Run("places the pallet and flips the slot", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)

		f.occupy(t, slot.Code, pallet.Label)

		if slot.Status != domain.SlotStatusOccupied {
			t.Errorf("slot.Status = %v, want %v", slot.Status, domain.SlotStatusOccupied)
		}
		if pallet.Status != domain.PalletStatusStored || pallet.SlotCode != slot.Code {
			t.Errorf("pallet = %v on %q, want stored on %q", pallet.Status, pallet.SlotCode, slot.Code)
		}
		types := f.publisher.eventTypes()
		if len(types) != 1 || types[0] != "wms.ledger.slot-occupied" {
			t.Errorf("events = %v, want [wms.ledger.slot-occupied]", types)
		}
	})

	t.Run("blocked slot is a conflict", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		slot.Block()
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)

		err := f.service.Occupy(context.Background(), slot.Code, pallet.Label)
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
	})

	t.Run("unknown slot is not found", func(t *testing.T) {
		f := newLedgerFixture()
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)

		err := f.service.Occupy(context.Background(), "MISSING", pallet.Label)
		if code := appErrorCode(t, err); code != apperrors.CodeNotFound {
			t.Errorf("code = %v, want %v", code, apperrors.CodeNotFound)
		}
	})
}

func TestLedgerService_Free(t *testing.T) {
	t.Run("last pallet leaving frees the slot", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, slot.Code, pallet.Label)

		if err := f.service.Free(context.Background(), slot.Code, pallet.Label); err != nil {
			t.Fatalf("Free() error = %v", err)
		}
		if slot.Status != domain.SlotStatusFree {
			t.Errorf("slot.Status = %v, want %v", slot.Status, domain.SlotStatusFree)
		}
		if pallet.SlotCode != "" || pallet.Status != domain.PalletStatusIdentified {
			t.Errorf("pallet = %v on %q, want identified off-slot", pallet.Status, pallet.SlotCode)
		}
	})

	t.Run("other occupants keep the slot occupied", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "STAGE-01", domain.SlotUsageStaging, 2)
		first := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		second := f.addIdentifiedPallet(t, "REC-001", 2, 60)
		f.occupy(t, slot.Code, first.Label)
		f.occupy(t, slot.Code, second.Label)

		if err := f.service.Free(context.Background(), slot.Code, first.Label); err != nil {
			t.Fatalf("Free() error = %v", err)
		}
		if slot.Status != domain.SlotStatusPartial {
			t.Errorf("slot.Status = %v, want %v", slot.Status, domain.SlotStatusPartial)
		}
	})

	t.Run("pallet not on the slot is a validation error", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)

		err := f.service.Free(context.Background(), slot.Code, pallet.Label)
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})
}

func TestLedgerService_MovePallet(t *testing.T) {
	t.Run("releases the source and claims the destination", func(t *testing.T) {
		f := newLedgerFixture()
		from := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		to := f.addSlot(t, "A-01-02", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, from.Code, pallet.Label)

		if err := f.service.MovePallet(context.Background(), pallet.Label, to.Code); err != nil {
			t.Fatalf("MovePallet() error = %v", err)
		}
		if pallet.SlotCode != to.Code {
			t.Errorf("pallet.SlotCode = %v, want %v", pallet.SlotCode, to.Code)
		}
		if from.Status != domain.SlotStatusFree {
			t.Errorf("from.Status = %v, want %v", from.Status, domain.SlotStatusFree)
		}
		if to.Status != domain.SlotStatusOccupied {
			t.Errorf("to.Status = %v, want %v", to.Status, domain.SlotStatusOccupied)
		}
	})

	t.Run("moving to the current slot is a no-op", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, slot.Code, pallet.Label)
		published := len(f.publisher.eventTypes())

		if err := f.service.MovePallet(context.Background(), pallet.Label, slot.Code); err != nil {
			t.Fatalf("MovePallet() error = %v", err)
		}
		if got := len(f.publisher.eventTypes()); got != published {
			t.Errorf("events published = %v, want %v", got, published)
		}
	})

	t.Run("full destination leaves everything in place", func(t *testing.T) {
		f := newLedgerFixture()
		from := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		to := f.addSlot(t, "A-01-02", domain.SlotUsageStorage, 1)
		blocker := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		pallet := f.addIdentifiedPallet(t, "REC-001", 2, 60)
		f.occupy(t, from.Code, pallet.Label)
		f.occupy(t, to.Code, blocker.Label)

		err := f.service.MovePallet(context.Background(), pallet.Label, to.Code)
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
		if pallet.SlotCode != from.Code {
			t.Errorf("pallet.SlotCode = %v, want %v", pallet.SlotCode, from.Code)
		}
		if from.Status != domain.SlotStatusOccupied {
			t.Errorf("from.Status = %v, want %v", from.Status, domain.SlotStatusOccupied)
		}
	})

	t.Run("a lost race on the source slot rolls the move back", func(t *testing.T) {
		f := newLedgerFixture()
		from := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		to := f.addSlot(t, "A-01-02", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, from.Code, pallet.Label)
		published := len(f.publisher.eventTypes())

		f.slotRepo.updateErrFor = map[string]error{from.Code: domain.ErrVersionConflict}

		err := f.service.MovePallet(context.Background(), pallet.Label, to.Code)
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
		if pallet.SlotCode != from.Code {
			t.Errorf("pallet.SlotCode = %v, want %v", pallet.SlotCode, from.Code)
		}
		if pallet.Status != domain.PalletStatusStored {
			t.Errorf("pallet.Status = %v, want %v", pallet.Status, domain.PalletStatusStored)
		}
		if to.Status != domain.SlotStatusFree {
			t.Errorf("to.Status = %v, want %v", to.Status, domain.SlotStatusFree)
		}
		if got := len(f.publisher.eventTypes()); got != published {
			t.Errorf("events published = %v, want %v", got, published)
		}
	})

	t.Run("allocated pallets relocate without a status change", func(t *testing.T) {
		f := newLedgerFixture()
		from := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		staging := f.addSlot(t, "STAGE-01", domain.SlotUsageStaging, 10)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, from.Code, pallet.Label)
		if err := pallet.AllocateForPicking(); err != nil {
			t.Fatalf("AllocateForPicking() error = %v", err)
		}

		if err := f.service.MovePallet(context.Background(), pallet.Label, staging.Code); err != nil {
			t.Fatalf("MovePallet() error = %v", err)
		}
		if pallet.Status != domain.PalletStatusAllocated {
			t.Errorf("pallet.Status = %v, want %v", pallet.Status, domain.PalletStatusAllocated)
		}
		if pallet.SlotCode != staging.Code {
			t.Errorf("pallet.SlotCode = %v, want %v", pallet.SlotCode, staging.Code)
		}
	})
}

func TestLedgerService_Ship(t *testing.T) {
	t.Run("the pallet leaves its slot for good", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "STAGE-01", domain.SlotUsageStaging, 10)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, slot.Code, pallet.Label)
		if err := pallet.AllocateForPicking(); err != nil {
			t.Fatalf("AllocateForPicking() error = %v", err)
		}

		if err := f.service.Ship(context.Background(), pallet.Label); err != nil {
			t.Fatalf("Ship() error = %v", err)
		}
		if pallet.Status != domain.PalletStatusShipped || pallet.SlotCode != "" {
			t.Errorf("pallet = %v on %q, want shipped off-slot", pallet.Status, pallet.SlotCode)
		}
		if slot.Status != domain.SlotStatusFree {
			t.Errorf("slot.Status = %v, want %v", slot.Status, domain.SlotStatusFree)
		}
		types := f.publisher.eventTypes()
		if len(types) == 0 || types[len(types)-1] != "wms.ledger.slot-freed" {
			t.Errorf("last event = %v, want wms.ledger.slot-freed", types)
		}
	})

	t.Run("only allocated pallets ship", func(t *testing.T) {
		f := newLedgerFixture()
		slot := f.addSlot(t, "A-01-01", domain.SlotUsageStorage, 1)
		pallet := f.addIdentifiedPallet(t, "REC-001", 1, 60)
		f.occupy(t, slot.Code, pallet.Label)

		err := f.service.Ship(context.Background(), pallet.Label)
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})
}
