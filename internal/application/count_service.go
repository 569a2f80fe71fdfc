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

// CountService runs blind-count sessions against the ledger. Counts are
// stock-correcting: the counted values overwrite the expectation.
type CountService struct {
	countRepo  domain.CountRepository
	slotRepo   domain.SlotRepository
	palletRepo domain.PalletRepository
	ledger     *LedgerService
	publisher  domain.EventPublisher
	logger     *logging.Logger
}

// NewCountService creates a new CountService
func NewCountService(
	countRepo domain.CountRepository,
	slotRepo domain.SlotRepository,
	palletRepo domain.PalletRepository,
	ledger *LedgerService,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *CountService {
	return &CountService{
		countRepo:  countRepo,
		slotRepo:   slotRepo,
		palletRepo: palletRepo,
		ledger:     ledger,
		publisher:  publisher,
		logger:     logger,
	}
}

// StartSessionCommand represents the command to open a count session
type StartSessionCommand struct {
	Scope      string
	OperatorID string
}

// StartSession opens a blind-count session over every slot whose code starts
// with the scope prefix.
func (s *CountService) StartSession(ctx context.Context, cmd StartSessionCommand) (*domain.CountSession, error) {
	if cmd.Scope == "" {
		return nil, errors.ErrValidation("scope is required")
	}

	slots, err := s.slotRepo.FindByCodePrefix(ctx, cmd.Scope)
	if err != nil {
		return nil, errors.ErrInternal("failed to list slots in scope").Wrap(err)
	}
	if len(slots) == 0 {
		return nil, errors.ErrValidation("no slots match the scope").WithDetail("scope", cmd.Scope)
	}

	sessionID := fmt.Sprintf("CNT-%s", uuid.New().String()[:8])
	session, err := domain.NewCountSession(sessionID, cmd.Scope, cmd.OperatorID)
	if err != nil {
		return nil, errors.ErrValidation("cannot open count session").Wrap(err)
	}
	if err := s.countRepo.SaveSession(ctx, session); err != nil {
		return nil, errors.ErrInternal("failed to save count session").Wrap(err)
	}

	s.logger.Info("Opened count session",
		"sessionId", session.SessionID,
		"scope", session.Scope,
		"slotsInScope", len(slots),
	)
	return session, nil
}

// NextPendingLocation yields the next uncovered slot of the session, in slot
// code order, and reserves it against concurrent ledger mutation. Returns
// (nil, nil) when every slot in scope has been visited.
func (s *CountService) NextPendingLocation(ctx context.Context, sessionID string) (*domain.Slot, error) {
	session, err := s.findOpenSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := s.countRepo.FindItems(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal("failed to list count items").Wrap(err)
	}
	visited := make(map[string]bool, len(items))
	for _, item := range items {
		visited[item.SlotCode] = true
	}

	slots, err := s.slotRepo.FindByCodePrefix(ctx, session.Scope)
	if err != nil {
		return nil, errors.ErrInternal("failed to list slots in scope").Wrap(err)
	}
	for _, slot := range slots {
		if visited[slot.Code] {
			continue
		}
		if slot.Status != domain.SlotStatusUnderCount {
			slot.MarkUnderCount()
			if err := s.slotRepo.Update(ctx, slot); err != nil {
				return nil, s.mapUpdateError(err, "slot")
			}
		}
		return slot, nil
	}
	return nil, nil
}

// SubmitCommand represents the command to record one visited location
type SubmitCommand struct {
	SessionID  string
	SlotCode   string
	Outcome    domain.CountOutcome
	SKUCode    string
	LotCode    string
	Quantity   int
	ExpiryDate *time.Time
}

// Submit records what the operator declared for a slot and corrects the stock
// accordingly: a find on an expectedly empty slot creates a pallet, counted
// values overwrite the expected pallet, an empty declaration detaches it.
func (s *CountService) Submit(ctx context.Context, cmd SubmitCommand) (*domain.CountItem, error) {
	session, err := s.findOpenSession(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if !cmd.Outcome.IsValid() {
		return nil, errors.ErrValidation("invalid count outcome")
	}
	if !strings.HasPrefix(cmd.SlotCode, session.Scope) {
		return nil, errors.ErrValidation("slot is outside the session scope").Wrap(domain.ErrSlotOutOfScope)
	}

	slot, err := s.slotRepo.FindByCode(ctx, cmd.SlotCode)
	if err != nil {
		return nil, errors.ErrInternal("failed to find slot").Wrap(err)
	}
	if slot == nil {
		return nil, errors.ErrNotFoundWithID("slot", cmd.SlotCode)
	}

	expectedPallet, expected, err := s.expectedStock(ctx, slot.Code)
	if err != nil {
		return nil, err
	}

	var found *domain.CountedStock
	createdPallet := ""

	switch cmd.Outcome {
	case domain.CountOutcomeSkipped:
		if err := s.releaseUnderCount(ctx, slot); err != nil {
			return nil, err
		}

	case domain.CountOutcomeEmpty:
		if expectedPallet != nil {
			// Free releases the slot reference, which also clears the
			// under-count reservation.
			if err := s.ledger.Free(ctx, slot.Code, expectedPallet.Label); err != nil {
				return nil, err
			}
		} else if err := s.releaseUnderCount(ctx, slot); err != nil {
			return nil, err
		}

	case domain.CountOutcomeCounted:
		if cmd.SKUCode == "" {
			return nil, errors.ErrValidation("sku code is required for a counted outcome")
		}
		if cmd.Quantity < 0 {
			return nil, errors.ErrValidation("quantity cannot be negative").Wrap(domain.ErrInvalidQuantity)
		}
		found = &domain.CountedStock{
			SKUCode:    cmd.SKUCode,
			LotCode:    cmd.LotCode,
			ExpiryDate: cmd.ExpiryDate,
			Quantity:   cmd.Quantity,
		}
		if expectedPallet != nil {
			found.PalletLabel = expectedPallet.Label
			if err := expectedPallet.ApplyCount(cmd.SKUCode, cmd.Quantity, cmd.LotCode, cmd.ExpiryDate); err != nil {
				return nil, errors.ErrValidation("cannot apply counted values").Wrap(err)
			}
			if err := s.palletRepo.Update(ctx, expectedPallet); err != nil {
				return nil, s.mapUpdateError(err, "pallet")
			}
			if err := s.releaseUnderCount(ctx, slot); err != nil {
				return nil, err
			}
		} else if cmd.Quantity > 0 {
			label, err := s.createFoundPallet(ctx, session, slot, cmd)
			if err != nil {
				return nil, err
			}
			createdPallet = label
			found.PalletLabel = label
		} else if err := s.releaseUnderCount(ctx, slot); err != nil {
			return nil, err
		}
	}

	item := domain.NewCountItem(session.SessionID, slot.Code, cmd.Outcome, expected, found)
	item.CreatedPallet = createdPallet
	if err := s.countRepo.SaveItem(ctx, item); err != nil {
		return nil, errors.ErrInternal("failed to save count item").Wrap(err)
	}

	if item.HasDiscrepancy() {
		metrics.RecordCountDiscrepancy()
	}
	s.emit(ctx, &domain.CountItemRecordedEvent{
		SessionID:     item.SessionID,
		SlotCode:      item.SlotCode,
		Outcome:       string(item.Outcome),
		QuantityDelta: item.QuantityDelta,
		Discrepancy:   item.HasDiscrepancy(),
		RecordedAt:    item.RecordedAt,
	})

	s.logger.Info("Recorded count item",
		"sessionId", item.SessionID,
		"slotCode", item.SlotCode,
		"outcome", item.Outcome,
		"quantityDelta", item.QuantityDelta,
	)
	return item, nil
}

// UndoLast removes exactly the chronologically last item of the session. The
// stock correction performed by that count stays in place; only the record
// and the session's progress are rolled back.
func (s *CountService) UndoLast(ctx context.Context, sessionID string) error {
	if _, err := s.findOpenSession(ctx, sessionID); err != nil {
		return err
	}

	item, err := s.countRepo.FindLastItem(ctx, sessionID)
	if err != nil {
		return errors.ErrInternal("failed to find last count item").Wrap(err)
	}
	if item == nil {
		return errors.ErrConflict("nothing to undo").Wrap(domain.ErrNothingToUndo)
	}

	if err := s.countRepo.DeleteItem(ctx, item); err != nil {
		return errors.ErrInternal("failed to delete count item").Wrap(err)
	}

	s.emit(ctx, &domain.CountUndoneEvent{
		SessionID: sessionID,
		SlotCode:  item.SlotCode,
		UndoneAt:  time.Now().UTC(),
	})

	s.logger.Info("Undid last count item",
		"sessionId", sessionID,
		"slotCode", item.SlotCode,
	)
	return nil
}

// CloseSession flips the session to closed. Coverage is not re-validated;
// skipped slots stay visible in the summary. Any slot still reserved for the
// session is released, and counted pallets return to the stored pool so
// allocation sees them again.
func (s *CountService) CloseSession(ctx context.Context, sessionID string) (*domain.CountSession, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Close(); err != nil {
		return nil, errors.ErrConflict("session is already closed").Wrap(err)
	}
	if err := s.countRepo.UpdateSession(ctx, session); err != nil {
		return nil, s.mapUpdateError(err, "count session")
	}

	slots, err := s.slotRepo.FindByCodePrefix(ctx, session.Scope)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list slots while closing session", "sessionId", sessionID)
		return session, nil
	}
	for _, slot := range slots {
		if slot.Status == domain.SlotStatusUnderCount {
			if err := s.releaseUnderCount(ctx, slot); err != nil {
				s.logger.WithError(err).Warn("Failed to release slot on session close",
					"sessionId", sessionID,
					"slotCode", slot.Code,
				)
			}
		}
		if err := s.restoreCountedPallets(ctx, slot.Code); err != nil {
			s.logger.WithError(err).Warn("Failed to restore counted stock on session close",
				"sessionId", sessionID,
				"slotCode", slot.Code,
			)
		}
	}

	s.logger.Info("Closed count session", "sessionId", sessionID)
	return session, nil
}

// Summary aggregates the visible result of a session.
func (s *CountService) Summary(ctx context.Context, sessionID string) (*domain.CountSummary, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := s.countRepo.FindItems(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal("failed to list count items").Wrap(err)
	}
	slots, err := s.slotRepo.FindByCodePrefix(ctx, session.Scope)
	if err != nil {
		return nil, errors.ErrInternal("failed to list slots in scope").Wrap(err)
	}

	summary := &domain.CountSummary{
		SessionID:    session.SessionID,
		Scope:        session.Scope,
		Status:       string(session.Status),
		SlotsInScope: len(slots),
		Visited:      len(items),
	}
	for _, item := range items {
		switch item.Outcome {
		case domain.CountOutcomeCounted:
			summary.Counted++
		case domain.CountOutcomeEmpty:
			summary.DeclaredEmpty++
		case domain.CountOutcomeSkipped:
			summary.Skipped++
		}
		if item.HasDiscrepancy() {
			summary.Discrepancies++
		}
		summary.NetQuantityDelta += item.QuantityDelta
		if item.CreatedPallet != "" {
			summary.PalletsCreated++
		}
	}
	return summary, nil
}

// expectedStock loads the pallet the ledger expects on the slot, if any.
func (s *CountService) expectedStock(ctx context.Context, slotCode string) (*domain.Pallet, *domain.CountedStock, error) {
	pallets, err := s.palletRepo.FindBySlot(ctx, slotCode)
	if err != nil {
		return nil, nil, errors.ErrInternal("failed to find expected pallet").Wrap(err)
	}
	if len(pallets) == 0 {
		return nil, nil, nil
	}
	pallet := pallets[0]
	return pallet, &domain.CountedStock{
		PalletLabel: pallet.Label,
		SKUCode:     pallet.SKUCode,
		LotCode:     pallet.LotCode,
		ExpiryDate:  pallet.ExpiryDate,
		Quantity:    pallet.Quantity,
	}, nil
}

// createFoundPallet registers stock the system did not know about and places
// it on the counted slot.
func (s *CountService) createFoundPallet(ctx context.Context, session *domain.CountSession, slot *domain.Slot, cmd SubmitCommand) (string, error) {
	items, err := s.countRepo.FindItems(ctx, session.SessionID)
	if err != nil {
		return "", errors.ErrInternal("failed to list count items").Wrap(err)
	}

	pallet, err := domain.NewPallet(session.SessionID, len(items)+1)
	if err != nil {
		return "", errors.ErrValidation("cannot create pallet").Wrap(err)
	}
	if err := pallet.Identify(cmd.SKUCode, cmd.Quantity, cmd.LotCode, cmd.ExpiryDate); err != nil {
		return "", errors.ErrValidation("cannot identify created pallet").Wrap(err)
	}
	if err := s.palletRepo.Save(ctx, pallet); err != nil {
		return "", errors.ErrInternal("failed to save created pallet").Wrap(err)
	}

	// The slot is reserved for the count; release the reservation before the
	// ledger claims it for the new pallet.
	if err := s.releaseUnderCount(ctx, slot); err != nil {
		return "", err
	}
	if err := s.ledger.Occupy(ctx, slot.Code, pallet.Label); err != nil {
		return "", err
	}

	s.emit(ctx, &domain.PalletCreatedFromCountEvent{
		SessionID:   session.SessionID,
		PalletLabel: pallet.Label,
		SlotCode:    slot.Code,
		SKUCode:     cmd.SKUCode,
		Quantity:    cmd.Quantity,
		CreatedAt:   pallet.CreatedAt,
	})
	return pallet.Label, nil
}

// restoreCountedPallets returns a slot's counted pallets to the stored pool.
// A pallet keeps the counted status only while its session is open.
func (s *CountService) restoreCountedPallets(ctx context.Context, slotCode string) error {
	pallets, err := s.palletRepo.FindBySlot(ctx, slotCode)
	if err != nil {
		return err
	}
	for _, pallet := range pallets {
		if pallet.Status != domain.PalletStatusCounted {
			continue
		}
		pallet.RestoreStored()
		if err := s.palletRepo.Update(ctx, pallet); err != nil {
			return err
		}
	}
	return nil
}

func (s *CountService) releaseUnderCount(ctx context.Context, slot *domain.Slot) error {
	if slot.Status != domain.SlotStatusUnderCount {
		return nil
	}
	slot.ClearUnderCount()
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return s.mapUpdateError(err, "slot")
	}
	return nil
}

func (s *CountService) findSession(ctx context.Context, sessionID string) (*domain.CountSession, error) {
	session, err := s.countRepo.FindSession(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal("failed to find count session").Wrap(err)
	}
	if session == nil {
		return nil, errors.ErrNotFoundWithID("count session", sessionID)
	}
	return session, nil
}

func (s *CountService) findOpenSession(ctx context.Context, sessionID string) (*domain.CountSession, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, errors.ErrConflict("session is closed").Wrap(domain.ErrSessionClosed)
	}
	return session, nil
}

func (s *CountService) mapUpdateError(err error, entity string) error {
	if err == domain.ErrVersionConflict {
		return errors.ErrConflict(entity + " was modified concurrently").Wrap(err)
	}
	return errors.ErrInternal("failed to update " + entity).Wrap(err)
}

func (s *CountService) emit(ctx context.Context, event domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish audit event", "eventType", event.EventType())
	}
}
