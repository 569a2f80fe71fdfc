package application

import (
	"context"
	"strings"
	"testing"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	apperrors "github.com/wms-platform/warehouse-engine/pkg/errors"
)

type allocationFixture struct {
	orderRepo   *fakeOrderRepo
	skuRepo     *fakeSKURepo
	palletRepo  *fakePalletRepo
	slotRepo    *fakeSlotRepo
	missionRepo *fakeMissionRepo
	publisher   *fakePublisher
	service     *AllocationService
	sequence    int
}

func newAllocationFixture() *allocationFixture {
	f := &allocationFixture{
		orderRepo:   newFakeOrderRepo(),
		skuRepo:     newFakeSKURepo(),
		palletRepo:  newFakePalletRepo(),
		slotRepo:    newFakeSlotRepo(),
		missionRepo: newFakeMissionRepo(),
		publisher:   &fakePublisher{},
	}
	f.service = NewAllocationService(f.orderRepo, f.skuRepo, f.palletRepo, f.slotRepo, f.missionRepo, f.publisher, newTestLogger())
	return f
}

func (f *allocationFixture) addSKU(t *testing.T, code string, unitsPerPallet int) *domain.SKU {
	t.Helper()
	sku, err := domain.NewSKU(code, "test sku", unitsPerPallet, nil)
	if err != nil {
		t.Fatalf("NewSKU() error = %v", err)
	}
	f.skuRepo.Save(context.Background(), sku)
	return sku
}

func (f *allocationFixture) addStaging(t *testing.T) *domain.Slot {
	t.Helper()
	slot, err := domain.NewSlot("STAGE-01", domain.SlotUsageStaging, 50, nil)
	if err != nil {
		t.Fatalf("NewSlot() error = %v", err)
	}
	f.slotRepo.Save(context.Background(), slot)
	return slot
}

func (f *allocationFixture) addStoredPallet(t *testing.T, skuCode string, quantity int) *domain.Pallet {
	t.Helper()
	f.sequence++
	pallet, err := domain.NewPallet("REC-001", f.sequence)
	if err != nil {
		t.Fatalf("NewPallet() error = %v", err)
	}
	if err := pallet.Identify(skuCode, quantity, "", nil); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if err := pallet.Store("A-01-01"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	f.palletRepo.Save(context.Background(), pallet)
	return pallet
}

func (f *allocationFixture) addOrder(t *testing.T, number string, lines []domain.OrderLine) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(number, lines)
	if err != nil {
		t.Fatalf("NewOrder() error = %v", err)
	}
	f.orderRepo.Save(context.Background(), order)
	return order
}

func missionTypes(missions []*domain.Mission) map[domain.MissionType]int {
	out := make(map[domain.MissionType]int)
	for _, m := range missions {
		out[m.Type]++
	}
	return out
}

func TestAllocationService_Run(t *testing.T) {
	t.Run("closed pallets move whole, remainders pick smallest first", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		full := f.addStoredPallet(t, "SKU-001", 60)
		small := f.addStoredPallet(t, "SKU-001", 25)
		medium := f.addStoredPallet(t, "SKU-001", 30)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 100}})

		result, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.MissionsCreated != 3 {
			t.Fatalf("MissionsCreated = %v, want 3", result.MissionsCreated)
		}
		types := missionTypes(result.Missions)
		if types[domain.MissionTypeMove] != 1 || types[domain.MissionTypePicking] != 2 {
			t.Errorf("mission types = %v, want 1 move and 2 picking", types)
		}

		// The whole pallet moves in one piece; the 40-unit remainder comes
		// from the smallest pallet first.
		byPallet := make(map[string]*domain.Mission)
		for _, m := range result.Missions {
			byPallet[m.PalletLabel] = m
		}
		if m := byPallet[full.Label]; m == nil || m.Type != domain.MissionTypeMove || m.Quantity != 60 {
			t.Errorf("full pallet mission = %+v, want move of 60", m)
		}
		if m := byPallet[small.Label]; m == nil || m.Quantity != 25 {
			t.Errorf("small pallet mission = %+v, want pick of 25", m)
		}
		if m := byPallet[medium.Label]; m == nil || m.Quantity != 15 {
			t.Errorf("medium pallet mission = %+v, want pick of 15", m)
		}

		if order.Status != domain.OrderStatusAllocating {
			t.Errorf("order.Status = %v, want %v", order.Status, domain.OrderStatusAllocating)
		}
		for _, p := range []*domain.Pallet{full, small, medium} {
			if p.Status != domain.PalletStatusAllocated {
				t.Errorf("pallet %s status = %v, want %v", p.Label, p.Status, domain.PalletStatusAllocated)
			}
		}
		if len(result.Warnings) != 0 {
			t.Errorf("Warnings = %v, want none", result.Warnings)
		}
	})

	t.Run("sku without units-per-pallet allocates partially only", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 0)
		f.addStaging(t)
		f.addStoredPallet(t, "SKU-001", 60)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 60}})

		result, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		types := missionTypes(result.Missions)
		if types[domain.MissionTypeMove] != 0 || types[domain.MissionTypePicking] != 1 {
			t.Errorf("mission types = %v, want 1 picking and no move", types)
		}
	})

	t.Run("no stock at all leaves the order pending", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 40}})

		_, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
		if order.Status != domain.OrderStatusPending {
			t.Errorf("order.Status = %v, want %v", order.Status, domain.OrderStatusPending)
		}
	})

	t.Run("blocked sku line is skipped with a warning", func(t *testing.T) {
		f := newAllocationFixture()
		sku := f.addSKU(t, "SKU-BAD", 60)
		sku.Block("recall")
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		f.addStoredPallet(t, "SKU-001", 40)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{
			{SKUCode: "SKU-BAD", Quantity: 10},
			{SKUCode: "SKU-001", Quantity: 40},
		})

		result, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.MissionsCreated != 1 {
			t.Errorf("MissionsCreated = %v, want 1", result.MissionsCreated)
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "blocked") {
			t.Errorf("Warnings = %v, want a blocked-sku warning", result.Warnings)
		}
	})

	t.Run("insufficient stock allocates what exists and warns", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		f.addStoredPallet(t, "SKU-001", 25)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 40}})

		result, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.MissionsCreated != 1 {
			t.Errorf("MissionsCreated = %v, want 1", result.MissionsCreated)
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "insufficient stock") {
			t.Errorf("Warnings = %v, want an insufficient-stock warning", result.Warnings)
		}
	})

	t.Run("zero quantity lines allocate nothing", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		f.addStoredPallet(t, "SKU-001", 60)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{
			{SKUCode: "SKU-001", Quantity: 0},
			{SKUCode: "SKU-001", Quantity: 60},
		})

		result, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.MissionsCreated != 1 {
			t.Errorf("MissionsCreated = %v, want 1", result.MissionsCreated)
		}
	})

	t.Run("a non-pending order is rejected", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		f.addStoredPallet(t, "SKU-001", 60)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 60}})
		order.StartAllocation()

		_, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
	})

	t.Run("no staging slot stops the run", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStoredPallet(t, "SKU-001", 60)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 60}})

		_, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number})
		if code := appErrorCode(t, err); code != apperrors.CodeConflict {
			t.Errorf("code = %v, want %v", code, apperrors.CodeConflict)
		}
	})

	t.Run("publishes mission events and the run summary", func(t *testing.T) {
		f := newAllocationFixture()
		f.addSKU(t, "SKU-001", 60)
		f.addStaging(t)
		f.addStoredPallet(t, "SKU-001", 60)
		order := f.addOrder(t, "ORD-001", []domain.OrderLine{{SKUCode: "SKU-001", Quantity: 60}})

		if _, err := f.service.Run(context.Background(), RunCommand{OrderNumber: order.Number}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		types := f.publisher.eventTypes()
		if len(types) != 2 || types[0] != "wms.mission.created" || types[1] != "wms.allocation.run" {
			t.Errorf("events = %v, want [wms.mission.created wms.allocation.run]", types)
		}
	})
}
