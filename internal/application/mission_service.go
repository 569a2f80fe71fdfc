package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/errors"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
	"github.com/wms-platform/warehouse-engine/pkg/metrics"
)

// MissionService dispatches missions to operators and applies the physical
// side effects of their completion through the ledger.
type MissionService struct {
	missionRepo domain.MissionRepository
	palletRepo  domain.PalletRepository
	slotRepo    domain.SlotRepository
	orderRepo   domain.OrderRepository
	ledger      *LedgerService
	publisher   domain.EventPublisher
	logger      *logging.Logger
}

// NewMissionService creates a new MissionService
func NewMissionService(
	missionRepo domain.MissionRepository,
	palletRepo domain.PalletRepository,
	slotRepo domain.SlotRepository,
	orderRepo domain.OrderRepository,
	ledger *LedgerService,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *MissionService {
	return &MissionService{
		missionRepo: missionRepo,
		palletRepo:  palletRepo,
		slotRepo:    slotRepo,
		orderRepo:   orderRepo,
		ledger:      ledger,
		publisher:   publisher,
		logger:      logger,
	}
}

// AssignNext hands the oldest pending mission to the operator. It returns
// (nil, nil) when the operator already holds an active mission or the queue
// is empty; polling callers get an immediate answer, never a blocked call.
func (s *MissionService) AssignNext(ctx context.Context, operatorID string) (*domain.Mission, error) {
	if operatorID == "" {
		return nil, errors.ErrValidation("operator id is required")
	}

	active, err := s.missionRepo.FindActiveByOperator(ctx, operatorID)
	if err != nil {
		return nil, errors.ErrInternal("failed to check operator missions").Wrap(err)
	}
	if active != nil {
		s.logger.Debug("Operator already holds an active mission",
			"operatorId", operatorID,
			"missionId", active.MissionID,
		)
		return nil, nil
	}

	mission, err := s.missionRepo.FindOldestPending(ctx)
	if err != nil {
		return nil, errors.ErrInternal("failed to find pending mission").Wrap(err)
	}
	if mission == nil {
		return nil, nil
	}

	if err := mission.Assign(operatorID); err != nil {
		return nil, errors.ErrConflict("mission cannot be assigned").Wrap(err)
	}
	if err := s.missionRepo.Update(ctx, mission); err != nil {
		if err == domain.ErrVersionConflict {
			return nil, errors.ErrConflict("mission was claimed concurrently").Wrap(err)
		}
		return nil, errors.ErrInternal("failed to update mission").Wrap(err)
	}

	metrics.RecordMissionAssigned()
	s.publishEvents(ctx, mission)

	s.logger.Info("Assigned mission",
		"missionId", mission.MissionID,
		"operatorId", operatorID,
		"type", mission.Type,
	)
	return mission, nil
}

// StartCommand represents the command to start an assigned mission
type StartCommand struct {
	MissionID  string
	OperatorID string
}

// Start moves an assigned mission into progress.
func (s *MissionService) Start(ctx context.Context, cmd StartCommand) (*domain.Mission, error) {
	mission, err := s.findMission(ctx, cmd.MissionID)
	if err != nil {
		return nil, err
	}
	if cmd.OperatorID != "" && mission.OperatorID != cmd.OperatorID {
		return nil, errors.ErrConflict("mission belongs to another operator").
			WithDetail("operatorId", mission.OperatorID)
	}

	if err := mission.Start(); err != nil {
		return nil, errors.ErrConflict("mission is not assigned").Wrap(err)
	}
	if err := s.updateMission(ctx, mission); err != nil {
		return nil, err
	}
	return mission, nil
}

// CompleteCommand represents the command to complete a mission
type CompleteCommand struct {
	MissionID        string
	ActualQuantity   int
	DivergenceReason string
}

// Complete finishes a mission and applies its physical effect: picks subtract
// from the pallet, moves relocate it, checks advance the order. A short
// quantity without a divergence reason is rejected before any state changes.
func (s *MissionService) Complete(ctx context.Context, cmd CompleteCommand) (*domain.Mission, error) {
	mission, err := s.findMission(ctx, cmd.MissionID)
	if err != nil {
		return nil, err
	}

	if err := mission.Complete(cmd.ActualQuantity, cmd.DivergenceReason); err != nil {
		switch err {
		case domain.ErrMissionAlreadyDone:
			return nil, errors.ErrConflict("mission is already done").Wrap(err)
		case domain.ErrMissionNotAssigned:
			return nil, errors.ErrConflict("mission is not assigned").Wrap(err)
		case domain.ErrDivergenceReasonRequired:
			return nil, errors.ErrValidation("divergence reason is required for a short completion").Wrap(err)
		default:
			return nil, errors.ErrValidation("cannot complete mission").Wrap(err)
		}
	}

	// Side effects run before the mission is persisted as done; a failed
	// effect leaves the mission claimable instead of silently done.
	if err := s.applyCompletion(ctx, mission, cmd.ActualQuantity); err != nil {
		return nil, err
	}

	if err := s.updateMission(ctx, mission); err != nil {
		return nil, err
	}

	metrics.RecordMissionCompleted(mission.HasDivergence())
	s.publishEvents(ctx, mission)

	if mission.HasDivergence() {
		s.logger.Audit(ctx, "mission.divergence", "mission", mission.MissionID, mission.OperatorID, map[string]any{
			"requestedQuantity": mission.Quantity,
			"completedQuantity": mission.CompletedQuantity,
			"reason":            mission.DivergenceReason,
		})
	}

	if mission.OrderNumber != "" {
		if mission.Type == domain.MissionTypeCheck {
			if err := s.markOrderChecked(ctx, mission.OrderNumber); err != nil {
				s.logger.WithError(err).Error("Failed to mark order checked",
					"orderNumber", mission.OrderNumber,
					"missionId", mission.MissionID,
				)
			}
		} else if err := s.settleOrder(ctx, mission.OrderNumber); err != nil {
			s.logger.WithError(err).Error("Failed to settle order after mission completion",
				"orderNumber", mission.OrderNumber,
				"missionId", mission.MissionID,
			)
		}
	}

	s.logger.Info("Completed mission",
		"missionId", mission.MissionID,
		"type", mission.Type,
		"completedQuantity", mission.CompletedQuantity,
	)
	return mission, nil
}

// Revert returns a claimed mission to the pending queue. A second revert of
// the same mission fails rather than restoring anything twice.
func (s *MissionService) Revert(ctx context.Context, missionID string) (*domain.Mission, error) {
	mission, err := s.findMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if err := mission.Revert(); err != nil {
		switch err {
		case domain.ErrMissionAlreadyDone:
			return nil, errors.ErrConflict("mission is already done").Wrap(err)
		case domain.ErrMissionAlreadyPending:
			return nil, errors.ErrConflict("mission is already pending").Wrap(err)
		default:
			return nil, errors.ErrValidation("cannot revert mission").Wrap(err)
		}
	}
	if err := s.updateMission(ctx, mission); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, mission)
	s.logger.Info("Reverted mission", "missionId", mission.MissionID)
	return mission, nil
}

// Delete cancels a pending mission and returns its pallet to the available
// pool. Claimed missions must be reverted first.
func (s *MissionService) Delete(ctx context.Context, missionID string) error {
	mission, err := s.findMission(ctx, missionID)
	if err != nil {
		return err
	}

	if err := mission.CanDelete(); err != nil {
		return errors.ErrConflict("only pending missions can be deleted").Wrap(err)
	}

	if mission.PalletLabel != "" {
		pallet, err := s.palletRepo.FindByLabel(ctx, mission.PalletLabel)
		if err != nil {
			return errors.ErrInternal("failed to find pallet").Wrap(err)
		}
		if pallet == nil {
			s.logger.Error("Mission references missing pallet",
				"missionId", mission.MissionID,
				"palletLabel", mission.PalletLabel,
			)
			return errors.ErrInternal("mission references missing pallet")
		}
		if pallet.Status == domain.PalletStatusAllocated {
			if err := pallet.ReleaseAllocation(); err == nil {
				if err := s.palletRepo.Update(ctx, pallet); err != nil {
					return s.mapUpdateError(err, "pallet")
				}
			}
		}
	}

	if err := s.missionRepo.Delete(ctx, mission.MissionID); err != nil {
		return errors.ErrInternal("failed to delete mission").Wrap(err)
	}

	if s.publisher != nil {
		event := &domain.MissionDeletedEvent{
			MissionID:   mission.MissionID,
			PalletLabel: mission.PalletLabel,
			DeletedAt:   time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish mission deleted event", "missionId", mission.MissionID)
		}
	}

	s.logger.Info("Deleted mission", "missionId", mission.MissionID)
	return nil
}

// GetMission retrieves a mission by its ID
func (s *MissionService) GetMission(ctx context.Context, missionID string) (*domain.Mission, error) {
	return s.findMission(ctx, missionID)
}

// GetMissionsByStatus retrieves missions by status in FIFO order
func (s *MissionService) GetMissionsByStatus(ctx context.Context, status domain.MissionStatus, pagination domain.Pagination) ([]*domain.Mission, error) {
	return s.missionRepo.FindByStatus(ctx, status, pagination)
}

// GetMissionsByOrder retrieves all missions belonging to an order
func (s *MissionService) GetMissionsByOrder(ctx context.Context, orderNumber string) ([]*domain.Mission, error) {
	return s.missionRepo.FindByOrder(ctx, orderNumber)
}

// applyCompletion performs the ledger mutation a finished mission implies.
func (s *MissionService) applyCompletion(ctx context.Context, mission *domain.Mission, actualQuantity int) error {
	switch mission.Type {
	case domain.MissionTypePicking:
		return s.applyPick(ctx, mission, actualQuantity)
	case domain.MissionTypeMove, domain.MissionTypeReplenishment, domain.MissionTypePutaway:
		if mission.PalletLabel == "" || mission.DestinationSlot == "" {
			return nil
		}
		return s.ledger.MovePallet(ctx, mission.PalletLabel, mission.DestinationSlot)
	case domain.MissionTypeCheck:
		return nil
	default:
		return nil
	}
}

// applyPick subtracts the picked units from the pallet. A fully emptied
// pallet leaves its slot; a partially picked one returns to the stored pool.
func (s *MissionService) applyPick(ctx context.Context, mission *domain.Mission, actualQuantity int) error {
	pallet, err := s.palletRepo.FindByLabel(ctx, mission.PalletLabel)
	if err != nil {
		return errors.ErrInternal("failed to find pallet").Wrap(err)
	}
	if pallet == nil {
		s.logger.Error("Mission references missing pallet",
			"missionId", mission.MissionID,
			"palletLabel", mission.PalletLabel,
		)
		return errors.ErrInternal("mission references missing pallet")
	}

	if actualQuantity > 0 {
		if err := pallet.Take(actualQuantity); err != nil {
			return errors.ErrValidation("cannot take quantity from pallet").Wrap(err)
		}
	}

	if pallet.Quantity == 0 && pallet.SlotCode != "" {
		if err := s.palletRepo.Update(ctx, pallet); err != nil {
			return s.mapUpdateError(err, "pallet")
		}
		return s.ledger.Free(ctx, pallet.SlotCode, pallet.Label)
	}

	if pallet.Status == domain.PalletStatusAllocated {
		if err := pallet.ReleaseAllocation(); err != nil {
			return errors.ErrValidation("cannot release pallet allocation").Wrap(err)
		}
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		return s.mapUpdateError(err, "pallet")
	}
	return nil
}

// settleOrder flips the order to allocated once its last outstanding mission
// completed, and spawns a check mission at the shipping dock.
func (s *MissionService) settleOrder(ctx context.Context, orderNumber string) error {
	missions, err := s.missionRepo.FindByOrder(ctx, orderNumber)
	if err != nil {
		return err
	}
	for _, m := range missions {
		if m.Type != domain.MissionTypeCheck && m.Status != domain.MissionStatusDone {
			return nil
		}
	}

	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if order == nil || order.Status != domain.OrderStatusAllocating {
		return nil
	}

	if err := order.MarkAllocated(); err != nil {
		return err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}

	if s.publisher != nil {
		event := &domain.OrderAllocatedEvent{
			OrderNumber: order.Number,
			AllocatedAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish order allocated event", "orderNumber", order.Number)
		}
	}

	if err := s.spawnCheckMission(ctx, order.Number); err != nil {
		s.logger.WithError(err).Warn("Failed to spawn check mission", "orderNumber", order.Number)
	}

	s.logger.Info("Order fully allocated", "orderNumber", order.Number)
	return nil
}

// markOrderChecked advances the order once its staging check completed.
func (s *MissionService) markOrderChecked(ctx context.Context, orderNumber string) error {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if order == nil || order.Status != domain.OrderStatusAllocated {
		return nil
	}
	if err := order.MarkChecked(); err != nil {
		return err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}
	s.logger.Info("Order checked", "orderNumber", order.Number)
	return nil
}

// ShipOrder closes a checked order. Every pallet its missions staged leaves
// the building through the ledger and the order is marked shipped.
func (s *MissionService) ShipOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, errors.ErrInternal("failed to find order").Wrap(err)
	}
	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", orderNumber)
	}
	if order.Status != domain.OrderStatusChecked {
		return nil, errors.ErrConflict("order has not been checked")
	}

	missions, err := s.missionRepo.FindByOrder(ctx, orderNumber)
	if err != nil {
		return nil, errors.ErrInternal("failed to list order missions").Wrap(err)
	}
	for _, m := range missions {
		if m.PalletLabel == "" {
			continue
		}
		pallet, err := s.palletRepo.FindByLabel(ctx, m.PalletLabel)
		if err != nil {
			return nil, errors.ErrInternal("failed to find pallet").Wrap(err)
		}
		if pallet == nil || pallet.Status != domain.PalletStatusAllocated {
			continue
		}
		if err := s.ledger.Ship(ctx, pallet.Label); err != nil {
			return nil, err
		}
	}

	if err := order.MarkShipped(); err != nil {
		return nil, errors.ErrConflict("order cannot be shipped").Wrap(err)
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, s.mapUpdateError(err, "order")
	}

	s.logger.Info("Order shipped", "orderNumber", order.Number)
	return order, nil
}

// spawnCheckMission queues a check of the order's goods at the shipping dock.
func (s *MissionService) spawnCheckMission(ctx context.Context, orderNumber string) error {
	docks, err := s.slotRepo.FindByUsage(ctx, domain.SlotUsageShipping)
	if err != nil {
		return err
	}
	destination := ""
	if len(docks) > 0 {
		destination = docks[0].Code
	}

	missionID := fmt.Sprintf("MIS-%s", uuid.New().String()[:8])
	mission, err := domain.NewMission(missionID, domain.MissionTypeCheck, "", "", destination, 0, orderNumber)
	if err != nil {
		return err
	}
	if err := s.missionRepo.Save(ctx, mission); err != nil {
		return err
	}

	metrics.RecordMissionCreated(string(domain.MissionTypeCheck))
	s.publishEvents(ctx, mission)
	return nil
}

func (s *MissionService) findMission(ctx context.Context, missionID string) (*domain.Mission, error) {
	mission, err := s.missionRepo.FindByID(ctx, missionID)
	if err != nil {
		return nil, errors.ErrInternal("failed to find mission").Wrap(err)
	}
	if mission == nil {
		return nil, errors.ErrNotFoundWithID("mission", missionID)
	}
	return mission, nil
}

func (s *MissionService) updateMission(ctx context.Context, mission *domain.Mission) error {
	if err := s.missionRepo.Update(ctx, mission); err != nil {
		return s.mapUpdateError(err, "mission")
	}
	return nil
}

func (s *MissionService) mapUpdateError(err error, entity string) error {
	if err == domain.ErrVersionConflict {
		return errors.ErrConflict(entity + " was modified concurrently").Wrap(err)
	}
	return errors.ErrInternal("failed to update " + entity).Wrap(err)
}

func (s *MissionService) publishEvents(ctx context.Context, mission *domain.Mission) {
	if s.publisher == nil {
		return
	}
	events := mission.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.PublishAll(ctx, events); err != nil {
		s.logger.WithError(err).Warn("Failed to publish mission events", "missionId", mission.MissionID)
	}
	mission.ClearDomainEvents()
}
