package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/errors"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
	"github.com/wms-platform/warehouse-engine/pkg/metrics"
)

// AllocationService selects source pallets for an order's lines and emits
// missions. Closed pallets move whole to staging; remainders are picked from
// the smallest pallets first.
type AllocationService struct {
	orderRepo   domain.OrderRepository
	skuRepo     domain.SKURepository
	palletRepo  domain.PalletRepository
	slotRepo    domain.SlotRepository
	missionRepo domain.MissionRepository
	publisher   domain.EventPublisher
	logger      *logging.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	orderRepo domain.OrderRepository,
	skuRepo domain.SKURepository,
	palletRepo domain.PalletRepository,
	slotRepo domain.SlotRepository,
	missionRepo domain.MissionRepository,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *AllocationService {
	return &AllocationService{
		orderRepo:   orderRepo,
		skuRepo:     skuRepo,
		palletRepo:  palletRepo,
		slotRepo:    slotRepo,
		missionRepo: missionRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// AllocationResult reports the outcome of one allocation pass
type AllocationResult struct {
	OrderNumber     string            `json:"orderNumber"`
	MissionsCreated int               `json:"missionsCreated"`
	Missions        []*domain.Mission `json:"missions"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// RunCommand represents the command to allocate an order
type RunCommand struct {
	OrderNumber string
}

// Run allocates every line of a pending order. Lines with a missing or
// blocked SKU are skipped with a warning rather than failing the order. If
// no mission could be created at all the order stays pending and a conflict
// is returned with the collected diagnostics.
func (s *AllocationService) Run(ctx context.Context, cmd RunCommand) (*AllocationResult, error) {
	order, err := s.orderRepo.FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		return nil, errors.ErrInternal("failed to find order").Wrap(err)
	}
	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", cmd.OrderNumber)
	}
	if order.Status != domain.OrderStatusPending {
		return nil, errors.ErrConflict("order is not pending allocation").
			WithDetail("status", string(order.Status))
	}

	staging, err := s.findStagingSlot(ctx)
	if err != nil {
		return nil, err
	}

	result := &AllocationResult{OrderNumber: order.Number}
	claimed := make(map[string]bool)

	for _, line := range order.Lines {
		if line.Quantity == 0 {
			continue
		}
		if err := s.allocateLine(ctx, order, line, staging, claimed, result); err != nil {
			return nil, err
		}
	}

	if len(result.Missions) == 0 {
		s.logger.Warn("Nothing allocated for order",
			"orderNumber", order.Number,
			"warnings", strings.Join(result.Warnings, "; "),
		)
		return nil, errors.ErrConflict("no stock available for order").
			WithDetail("orderNumber", order.Number).
			WithDetail("diagnostics", strings.Join(result.Warnings, "; "))
	}

	if err := order.StartAllocation(); err != nil {
		return nil, errors.ErrConflict("order state changed during allocation").Wrap(err)
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		if err == domain.ErrVersionConflict {
			return nil, errors.ErrConflict("order was modified concurrently").Wrap(err)
		}
		return nil, errors.ErrInternal("failed to update order").Wrap(err)
	}

	result.MissionsCreated = len(result.Missions)
	metrics.RecordAllocationRun(result.MissionsCreated)

	events := make([]domain.DomainEvent, 0, len(result.Missions)+1)
	for _, m := range result.Missions {
		events = append(events, m.GetDomainEvents()...)
		m.ClearDomainEvents()
	}
	events = append(events, &domain.AllocationRunEvent{
		OrderNumber:     order.Number,
		MissionsCreated: result.MissionsCreated,
		Warnings:        result.Warnings,
		RanAt:           time.Now().UTC(),
	})
	if s.publisher != nil {
		if err := s.publisher.PublishAll(ctx, events); err != nil {
			s.logger.WithError(err).Warn("Failed to publish allocation events", "orderNumber", order.Number)
		}
	}

	s.logger.Info("Allocated order",
		"orderNumber", order.Number,
		"missionsCreated", result.MissionsCreated,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// allocateLine runs the closed-pallet and partial paths for one order line.
func (s *AllocationService) allocateLine(
	ctx context.Context,
	order *domain.Order,
	line domain.OrderLine,
	staging *domain.Slot,
	claimed map[string]bool,
	result *AllocationResult,
) error {
	sku, err := s.skuRepo.FindByCode(ctx, line.SKUCode)
	if err != nil {
		return errors.ErrInternal("failed to find sku").Wrap(err)
	}
	if sku == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("sku %s not found, line skipped", line.SKUCode))
		return nil
	}
	if sku.IsBlocked() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("sku %s is blocked, line skipped", sku.Code))
		return nil
	}

	pallets, err := s.palletRepo.FindStoredBySKU(ctx, line.SKUCode, line.LotCode)
	if err != nil {
		return errors.ErrInternal("failed to list stored pallets").Wrap(err)
	}

	need := line.Quantity

	// Closed-pallet path: whole pallets of the SKU's standard per-pallet
	// quantity move to staging in one piece. A SKU without a positive
	// units-per-pallet count has no closed-pallet path.
	if sku.UnitsPerPallet > 0 {
		wholePallets := need / sku.UnitsPerPallet
		for _, pallet := range pallets {
			if wholePallets == 0 {
				break
			}
			if claimed[pallet.Label] || pallet.Quantity != sku.UnitsPerPallet {
				continue
			}
			mission, err := s.reservePallet(ctx, domain.MissionTypeMove, pallet, staging, pallet.Quantity, order.Number)
			if err != nil {
				return err
			}
			claimed[pallet.Label] = true
			result.Missions = append(result.Missions, mission)
			need -= pallet.Quantity
			wholePallets--
		}
	}

	// Partial path: fill the remainder from the smallest pallets first to
	// consolidate fragmentation. The repository already orders by ascending
	// quantity then creation.
	for _, pallet := range pallets {
		if need == 0 {
			break
		}
		if claimed[pallet.Label] || pallet.Quantity <= 0 {
			continue
		}
		take := need
		if pallet.Quantity < take {
			take = pallet.Quantity
		}
		mission, err := s.reservePallet(ctx, domain.MissionTypePicking, pallet, staging, take, order.Number)
		if err != nil {
			return err
		}
		claimed[pallet.Label] = true
		result.Missions = append(result.Missions, mission)
		need -= take
	}

	if need > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("insufficient stock for sku %s: short %d units", sku.Code, need))
	}
	return nil
}

// reservePallet flips the pallet to allocated and creates its mission. The
// two writes happen back to back so no window exists where a mission
// references a pallet still shown as freely available.
func (s *AllocationService) reservePallet(
	ctx context.Context,
	missionType domain.MissionType,
	pallet *domain.Pallet,
	staging *domain.Slot,
	quantity int,
	orderNumber string,
) (*domain.Mission, error) {
	if err := pallet.AllocateForPicking(); err != nil {
		return nil, errors.ErrConflict("pallet is no longer available").Wrap(err)
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		if err == domain.ErrVersionConflict {
			return nil, errors.ErrConflict("pallet was claimed concurrently").Wrap(err)
		}
		return nil, errors.ErrInternal("failed to update pallet").Wrap(err)
	}

	missionID := fmt.Sprintf("MIS-%s", uuid.New().String()[:8])
	mission, err := domain.NewMission(missionID, missionType, pallet.Label, pallet.SlotCode, staging.Code, quantity, orderNumber)
	if err != nil {
		s.rollbackReservation(ctx, pallet)
		return nil, errors.ErrValidation("cannot create mission").Wrap(err)
	}
	if err := s.missionRepo.Save(ctx, mission); err != nil {
		s.rollbackReservation(ctx, pallet)
		return nil, errors.ErrInternal("failed to save mission").Wrap(err)
	}

	metrics.RecordMissionCreated(string(missionType))
	return mission, nil
}

func (s *AllocationService) rollbackReservation(ctx context.Context, pallet *domain.Pallet) {
	if err := pallet.ReleaseAllocation(); err != nil {
		return
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		s.logger.WithError(err).Error("Failed to roll back pallet reservation", "palletLabel", pallet.Label)
	}
}

// findStagingSlot returns the first staging slot that can still take a
// pallet. Closed-pallet and picking missions stage their goods there.
func (s *AllocationService) findStagingSlot(ctx context.Context) (*domain.Slot, error) {
	slots, err := s.slotRepo.FindByUsage(ctx, domain.SlotUsageStaging)
	if err != nil {
		return nil, errors.ErrInternal("failed to list staging slots").Wrap(err)
	}
	for _, slot := range slots {
		if slot.CanAcceptPallet() == nil {
			return slot, nil
		}
	}
	return nil, errors.ErrConflict("no staging slot available")
}
