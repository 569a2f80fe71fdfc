package application

import (
	"context"
	"testing"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	apperrors "github.com/wms-platform/warehouse-engine/pkg/errors"
)

type putawayFixture struct {
	*ledgerFixture
	skuRepo *fakeSKURepo
	service *PutawayService
}

func newPutawayFixture() *putawayFixture {
	f := &putawayFixture{
		ledgerFixture: newLedgerFixture(),
		skuRepo:       newFakeSKURepo(),
	}
	f.service = NewPutawayService(f.palletRepo, f.skuRepo, f.slotRepo, f.ledgerFixture.service, newTestLogger())
	return f
}

func (f *putawayFixture) addSKU(t *testing.T, code string, unitsPerPallet int, tags []string) *domain.SKU {
	t.Helper()
	sku, err := domain.NewSKU(code, "test sku", unitsPerPallet, tags)
	if err != nil {
		t.Fatalf("NewSKU() error = %v", err)
	}
	f.skuRepo.Save(context.Background(), sku)
	return sku
}

func (f *putawayFixture) addTaggedSlot(t *testing.T, code string, tags []string) *domain.Slot {
	t.Helper()
	slot, err := domain.NewSlot(code, domain.SlotUsageStorage, 1, tags)
	if err != nil {
		t.Fatalf("NewSlot() error = %v", err)
	}
	f.slotRepo.Save(context.Background(), slot)
	return slot
}

func (f *putawayFixture) addPalletFor(t *testing.T, skuCode string) *domain.Pallet {
	t.Helper()
	pallet, err := domain.NewPallet("REC-001", 1)
	if err != nil {
		t.Fatalf("NewPallet() error = %v", err)
	}
	if err := pallet.Identify(skuCode, 60, "", nil); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	f.palletRepo.Save(context.Background(), pallet)
	return pallet
}

func TestPutawayService_Suggest(t *testing.T) {
	t.Run("tagged sku prefers a slot sharing a tag", func(t *testing.T) {
		f := newPutawayFixture()
		f.addSKU(t, "SKU-COLD", 60, []string{"chilled"})
		f.addTaggedSlot(t, "A-01-01", nil)
		f.addTaggedSlot(t, "B-01-01", []string{"chilled"})
		pallet := f.addPalletFor(t, "SKU-COLD")

		slot, err := f.service.Suggest(context.Background(), pallet.Label)
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if slot == nil || slot.Code != "B-01-01" {
			t.Errorf("slot = %v, want B-01-01", slot)
		}
	})

	t.Run("tagged sku falls back to a generic slot", func(t *testing.T) {
		f := newPutawayFixture()
		f.addSKU(t, "SKU-COLD", 60, []string{"chilled"})
		f.addTaggedSlot(t, "A-01-01", nil)
		f.addTaggedSlot(t, "B-01-01", []string{"hazmat"})
		pallet := f.addPalletFor(t, "SKU-COLD")

		slot, err := f.service.Suggest(context.Background(), pallet.Label)
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if slot == nil || slot.Code != "A-01-01" {
			t.Errorf("slot = %v, want A-01-01", slot)
		}
	})

	t.Run("untagged sku leaves tagged slots for tagged stock", func(t *testing.T) {
		f := newPutawayFixture()
		f.addSKU(t, "SKU-001", 60, nil)
		f.addTaggedSlot(t, "A-01-01", []string{"chilled"})
		f.addTaggedSlot(t, "B-01-01", nil)
		pallet := f.addPalletFor(t, "SKU-001")

		slot, err := f.service.Suggest(context.Background(), pallet.Label)
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if slot == nil || slot.Code != "B-01-01" {
			t.Errorf("slot = %v, want B-01-01", slot)
		}
	})

	t.Run("untagged sku takes a tagged slot when nothing else is free", func(t *testing.T) {
		f := newPutawayFixture()
		f.addSKU(t, "SKU-001", 60, nil)
		f.addTaggedSlot(t, "A-01-01", []string{"chilled"})
		pallet := f.addPalletFor(t, "SKU-001")

		slot, err := f.service.Suggest(context.Background(), pallet.Label)
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if slot == nil || slot.Code != "A-01-01" {
			t.Errorf("slot = %v, want A-01-01", slot)
		}
	})

	t.Run("no eligible slot yields nothing", func(t *testing.T) {
		f := newPutawayFixture()
		f.addSKU(t, "SKU-001", 60, nil)
		f.addSlot(t, "STAGE-01", domain.SlotUsageStaging, 10)
		pallet := f.addPalletFor(t, "SKU-001")

		slot, err := f.service.Suggest(context.Background(), pallet.Label)
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if slot != nil {
			t.Errorf("slot = %v, want nil", slot)
		}
	})

	t.Run("unidentified pallet is rejected", func(t *testing.T) {
		f := newPutawayFixture()
		pallet, _ := domain.NewPallet("REC-001", 1)
		f.palletRepo.Save(context.Background(), pallet)

		_, err := f.service.Suggest(context.Background(), pallet.Label)
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})

	t.Run("blocked sku is rejected", func(t *testing.T) {
		f := newPutawayFixture()
		sku := f.addSKU(t, "SKU-001", 60, nil)
		sku.Block("damaged batch")
		f.addTaggedSlot(t, "A-01-01", nil)
		pallet := f.addPalletFor(t, "SKU-001")

		_, err := f.service.Suggest(context.Background(), pallet.Label)
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})
}

func TestPutawayService_Confirm(t *testing.T) {
	f := newPutawayFixture()
	f.addSKU(t, "SKU-001", 60, nil)
	slot := f.addTaggedSlot(t, "A-01-01", nil)
	pallet := f.addPalletFor(t, "SKU-001")

	err := f.service.Confirm(context.Background(), ConfirmCommand{
		PalletLabel: pallet.Label,
		SlotCode:    slot.Code,
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if pallet.SlotCode != slot.Code || pallet.Status != domain.PalletStatusStored {
		t.Errorf("pallet = %v on %q, want stored on %q", pallet.Status, pallet.SlotCode, slot.Code)
	}
	if slot.Status != domain.SlotStatusOccupied {
		t.Errorf("slot.Status = %v, want %v", slot.Status, domain.SlotStatusOccupied)
	}
}
