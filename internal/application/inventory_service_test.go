package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	apperrors "github.com/wms-platform/warehouse-engine/pkg/errors"
)

type inventoryFixture struct {
	skuRepo    *fakeSKURepo
	slotRepo   *fakeSlotRepo
	palletRepo *fakePalletRepo
	orderRepo  *fakeOrderRepo
	service    *InventoryService
}

func newInventoryFixture() *inventoryFixture {
	f := &inventoryFixture{
		skuRepo:    newFakeSKURepo(),
		slotRepo:   newFakeSlotRepo(),
		palletRepo: newFakePalletRepo(),
		orderRepo:  newFakeOrderRepo(),
	}
	f.service = NewInventoryService(f.skuRepo, f.slotRepo, f.palletRepo, f.orderRepo, newTestLogger())
	return f
}

func TestInventoryService_CreateSKU(t *testing.T) {
	t.Run("registers a sku", func(t *testing.T) {
		f := newInventoryFixture()
		sku, err := f.service.CreateSKU(context.Background(), CreateSKUCommand{
			Code:           "SKU-001",
			Description:    "canned beans",
			UnitsPerPallet: 60,
		})
		if err != nil {
			t.Fatalf("CreateSKU() error = %v", err)
		}
		if sku.Code != "SKU-001" || sku.IsBlocked() {
			t.Errorf("sku = %v blocked %v, want SKU-001 active", sku.Code, sku.IsBlocked())
		}
	})

	t.Run("a duplicate code is a conflict", func(t *testing.T) {
		f := newInventoryFixture()
		cmd := CreateSKUCommand{Code: "SKU-001", UnitsPerPallet: 60}
		if _, err := f.service.CreateSKU(context.Background(), cmd); err != nil {
			t.Fatalf("CreateSKU() error = %v", err)
		}
		_, err := f.service.CreateSKU(context.Background(), cmd)
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
	})
}

func TestInventoryService_BlockSKU(t *testing.T) {
	f := newInventoryFixture()
	if _, err := f.service.CreateSKU(context.Background(), CreateSKUCommand{Code: "SKU-001", UnitsPerPallet: 60}); err != nil {
		t.Fatalf("CreateSKU() error = %v", err)
	}

	t.Run("a reason is mandatory", func(t *testing.T) {
		_, err := f.service.BlockSKU(context.Background(), "SKU-001", "")
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})

	t.Run("block and activate round trip", func(t *testing.T) {
		sku, err := f.service.BlockSKU(context.Background(), "SKU-001", "recall")
		if err != nil {
			t.Fatalf("BlockSKU() error = %v", err)
		}
		if !sku.IsBlocked() {
			t.Error("IsBlocked() = false after block")
		}
		sku, err = f.service.ActivateSKU(context.Background(), "SKU-001")
		if err != nil {
			t.Fatalf("ActivateSKU() error = %v", err)
		}
		if sku.IsBlocked() {
			t.Error("IsBlocked() = true after activate")
		}
	})

	t.Run("an unknown sku is not found", func(t *testing.T) {
		_, err := f.service.BlockSKU(context.Background(), "MISSING", "recall")
		if code := appErrorCode(t, err); code != apperrors.CodeNotFound {
			t.Errorf("code = %v, want %v", code, apperrors.CodeNotFound)
		}
	})
}

func TestInventoryService_CreateSlot(t *testing.T) {
	t.Run("registers a slot", func(t *testing.T) {
		f := newInventoryFixture()
		slot, err := f.service.CreateSlot(context.Background(), CreateSlotCommand{
			Code:     "A-01-01",
			Usage:    domain.SlotUsageStorage,
			Capacity: 1,
		})
		if err != nil {
			t.Fatalf("CreateSlot() error = %v", err)
		}
		if slot.Status != domain.SlotStatusFree {
			t.Errorf("Status = %v, want %v", slot.Status, domain.SlotStatusFree)
		}
	})

	t.Run("an invalid usage is rejected", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.CreateSlot(context.Background(), CreateSlotCommand{
			Code:  "A-01-01",
			Usage: domain.SlotUsage("launchpad"),
		})
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})
}

func TestInventoryService_ReceivePallets(t *testing.T) {
	t.Run("registers sequentially labelled pallets", func(t *testing.T) {
		f := newInventoryFixture()
		pallets, err := f.service.ReceivePallets(context.Background(), ReceivePalletsCommand{
			ReceiptNumber: "REC-2024-001",
			Count:         3,
		})
		if err != nil {
			t.Fatalf("ReceivePallets() error = %v", err)
		}
		if len(pallets) != 3 {
			t.Fatalf("len(pallets) = %v, want 3", len(pallets))
		}
		for i, pallet := range pallets {
			wantLabel := fmt.Sprintf("REC-2024-001-%03d", i+1)
			if pallet.Label != wantLabel {
				t.Errorf("pallets[%d].Label = %v, want %v", i, pallet.Label, wantLabel)
			}
			if pallet.Status != domain.PalletStatusPendingID {
				t.Errorf("pallets[%d].Status = %v, want %v", i, pallet.Status, domain.PalletStatusPendingID)
			}
		}
	})

	t.Run("a repeated receipt is a conflict", func(t *testing.T) {
		f := newInventoryFixture()
		cmd := ReceivePalletsCommand{ReceiptNumber: "REC-001", Count: 1}
		if _, err := f.service.ReceivePallets(context.Background(), cmd); err != nil {
			t.Fatalf("ReceivePallets() error = %v", err)
		}
		_, err := f.service.ReceivePallets(context.Background(), cmd)
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
	})

	t.Run("a non-positive count is rejected", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.ReceivePallets(context.Background(), ReceivePalletsCommand{ReceiptNumber: "REC-001"})
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})
}

func TestInventoryService_IdentifyPallet(t *testing.T) {
	setup := func(t *testing.T) *inventoryFixture {
		t.Helper()
		f := newInventoryFixture()
		if _, err := f.service.CreateSKU(context.Background(), CreateSKUCommand{Code: "SKU-001", UnitsPerPallet: 60}); err != nil {
			t.Fatalf("CreateSKU() error = %v", err)
		}
		if _, err := f.service.ReceivePallets(context.Background(), ReceivePalletsCommand{ReceiptNumber: "REC-001", Count: 1}); err != nil {
			t.Fatalf("ReceivePallets() error = %v", err)
		}
		return f
	}

	t.Run("binds the pallet to the sku", func(t *testing.T) {
		f := setup(t)
		pallet, err := f.service.IdentifyPallet(context.Background(), IdentifyPalletCommand{
			PalletLabel: "REC-001-001",
			SKUCode:     "SKU-001",
			Quantity:    60,
			LotCode:     "LOT-A",
		})
		if err != nil {
			t.Fatalf("IdentifyPallet() error = %v", err)
		}
		if pallet.Status != domain.PalletStatusIdentified || pallet.SKUCode != "SKU-001" {
			t.Errorf("pallet = %v/%v, want identified/SKU-001", pallet.Status, pallet.SKUCode)
		}
	})

	t.Run("a blocked sku cannot be received against", func(t *testing.T) {
		f := setup(t)
		if _, err := f.service.BlockSKU(context.Background(), "SKU-001", "recall"); err != nil {
			t.Fatalf("BlockSKU() error = %v", err)
		}
		_, err := f.service.IdentifyPallet(context.Background(), IdentifyPalletCommand{
			PalletLabel: "REC-001-001",
			SKUCode:     "SKU-001",
			Quantity:    60,
		})
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})

	t.Run("an unknown sku is not found", func(t *testing.T) {
		f := setup(t)
		_, err := f.service.IdentifyPallet(context.Background(), IdentifyPalletCommand{
			PalletLabel: "REC-001-001",
			SKUCode:     "MISSING",
			Quantity:    60,
		})
		if code := appErrorCode(t, err); code != apperrors.CodeNotFound {
			t.Errorf("code = %v, want %v", code, apperrors.CodeNotFound)
		}
	})
}

func TestInventoryService_CreateOrder(t *testing.T) {
	t.Run("registers outbound demand", func(t *testing.T) {
		f := newInventoryFixture()
		order, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
			Number: "ORD-001",
			Lines:  []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 40}},
		})
		if err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		if order.Status != domain.OrderStatusPending {
			t.Errorf("Status = %v, want %v", order.Status, domain.OrderStatusPending)
		}
	})

	t.Run("a duplicate number is a conflict", func(t *testing.T) {
		f := newInventoryFixture()
		cmd := CreateOrderCommand{
			Number: "ORD-001",
			Lines:  []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 40}},
		}
		if _, err := f.service.CreateOrder(context.Background(), cmd); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		_, err := f.service.CreateOrder(context.Background(), cmd)
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
	})

	t.Run("a negative line quantity is rejected", func(t *testing.T) {
		f := newInventoryFixture()
		_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
			Number: "ORD-001",
			Lines:  []domain.OrderLine{{SKUCode: "SKU-001", Quantity: -1}},
		})
		if code := appErrorCode(t, err); code != apperrors.CodeValidationError {
			t.Errorf("code = %v, want %v", code, apperrors.CodeValidationError)
		}
	})
}
