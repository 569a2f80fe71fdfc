package application

import (
	"context"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/errors"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
	"github.com/wms-platform/warehouse-engine/pkg/metrics"
)

// LedgerService is the sole writer of slot and pallet status transitions.
// Every other component requests mutations through it and never touches
// status fields directly.
type LedgerService struct {
	slotRepo   domain.SlotRepository
	palletRepo domain.PalletRepository
	publisher  domain.EventPublisher
	logger     *logging.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	slotRepo domain.SlotRepository,
	palletRepo domain.PalletRepository,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *LedgerService {
	return &LedgerService{
		slotRepo:   slotRepo,
		palletRepo: palletRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Occupy places a pallet on a slot and stores it.
func (s *LedgerService) Occupy(ctx context.Context, slotCode, palletLabel string) error {
	slot, pallet, err := s.load(ctx, slotCode, palletLabel)
	if err != nil {
		return err
	}

	if err := slot.Claim(pallet.Label); err != nil {
		return errors.ErrConflict("slot unavailable").Wrap(err)
	}
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return s.mapUpdateError(err, "slot")
	}

	if err := pallet.Store(slot.Code); err != nil {
		// Roll the claim back so the slot does not reference a pallet that
		// never arrived.
		_ = slot.Release(pallet.Label)
		_ = s.slotRepo.Update(ctx, slot)
		return errors.ErrValidation("pallet cannot be stored").Wrap(err)
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		_ = slot.Release(pallet.Label)
		_ = s.slotRepo.Update(ctx, slot)
		return s.mapUpdateError(err, "pallet")
	}

	s.emit(ctx, &domain.SlotOccupiedEvent{
		SlotCode:    slot.Code,
		PalletLabel: pallet.Label,
		OccupiedAt:  time.Now().UTC(),
	})
	return nil
}

// Free detaches a pallet from a slot. Only the last pallet leaving flips the
// slot back to free; other occupants keep it occupied.
func (s *LedgerService) Free(ctx context.Context, slotCode, palletLabel string) error {
	slot, pallet, err := s.load(ctx, slotCode, palletLabel)
	if err != nil {
		return err
	}

	if err := slot.Release(pallet.Label); err != nil {
		return errors.ErrValidation("pallet does not occupy this slot").Wrap(err)
	}
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return s.mapUpdateError(err, "slot")
	}

	pallet.Detach()
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		_ = slot.Claim(pallet.Label)
		_ = s.slotRepo.Update(ctx, slot)
		return s.mapUpdateError(err, "pallet")
	}

	s.emit(ctx, &domain.SlotFreedEvent{
		SlotCode:    slot.Code,
		PalletLabel: pallet.Label,
		FreedAt:     time.Now().UTC(),
	})
	return nil
}

// Ship ends an allocated pallet's lifecycle: the pallet leaves the building
// and its slot reference is released.
func (s *LedgerService) Ship(ctx context.Context, palletLabel string) error {
	pallet, err := s.palletRepo.FindByLabel(ctx, palletLabel)
	if err != nil {
		return errors.ErrInternal("failed to find pallet").Wrap(err)
	}
	if pallet == nil {
		return errors.ErrNotFoundWithID("pallet", palletLabel)
	}

	fromCode := pallet.SlotCode
	if err := pallet.Ship(); err != nil {
		return errors.ErrValidation("pallet cannot be shipped").Wrap(err)
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		return s.mapUpdateError(err, "pallet")
	}

	if fromCode != "" {
		slot, err := s.slotRepo.FindByCode(ctx, fromCode)
		if err != nil {
			return errors.ErrInternal("failed to find slot").Wrap(err)
		}
		if slot != nil {
			if err := slot.Release(pallet.Label); err == nil {
				if err := s.slotRepo.Update(ctx, slot); err != nil {
					return s.mapUpdateError(err, "slot")
				}
			}
			s.emit(ctx, &domain.SlotFreedEvent{
				SlotCode:    slot.Code,
				PalletLabel: pallet.Label,
				FreedAt:     time.Now().UTC(),
			})
		}
	}

	s.logger.Info("Shipped pallet", "palletLabel", pallet.Label, "fromSlot", fromCode)
	return nil
}

// MovePallet atomically releases the pallet's current slot and claims the
// destination. Moving to the slot the pallet already occupies is a no-op.
// If the destination cannot accept the pallet, or the source cannot be
// released, the call fails and the previous placement is restored.
func (s *LedgerService) MovePallet(ctx context.Context, palletLabel, toSlotCode string) error {
	pallet, err := s.palletRepo.FindByLabel(ctx, palletLabel)
	if err != nil {
		return errors.ErrInternal("failed to find pallet").Wrap(err)
	}
	if pallet == nil {
		return errors.ErrNotFoundWithID("pallet", palletLabel)
	}
	if pallet.SlotCode == toSlotCode {
		return nil
	}

	toSlot, err := s.slotRepo.FindByCode(ctx, toSlotCode)
	if err != nil {
		return errors.ErrInternal("failed to find slot").Wrap(err)
	}
	if toSlot == nil {
		return errors.ErrNotFoundWithID("slot", toSlotCode)
	}

	if err := toSlot.Claim(pallet.Label); err != nil {
		return errors.ErrConflict("slot unavailable").Wrap(err)
	}
	if err := s.slotRepo.Update(ctx, toSlot); err != nil {
		return s.mapUpdateError(err, "slot")
	}

	fromCode := pallet.SlotCode
	if pallet.Status == domain.PalletStatusAllocated {
		pallet.Relocate(toSlot.Code)
	} else if err := pallet.Store(toSlot.Code); err != nil {
		s.rollbackClaim(ctx, toSlot, pallet.Label)
		return errors.ErrValidation("pallet cannot be moved").Wrap(err)
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		s.rollbackClaim(ctx, toSlot, pallet.Label)
		return s.mapUpdateError(err, "pallet")
	}

	if fromCode != "" {
		fromSlot, err := s.slotRepo.FindByCode(ctx, fromCode)
		if err != nil {
			s.rollbackMove(ctx, toSlot, pallet, fromCode)
			return errors.ErrInternal("failed to find source slot").Wrap(err)
		}
		if fromSlot != nil {
			if err := fromSlot.Release(pallet.Label); err == nil {
				if err := s.slotRepo.Update(ctx, fromSlot); err != nil {
					s.rollbackMove(ctx, toSlot, pallet, fromCode)
					return s.mapUpdateError(err, "slot")
				}
			}
		}
	}

	metrics.RecordPalletMoved()
	s.emit(ctx, &domain.PalletMovedEvent{
		PalletLabel: pallet.Label,
		FromSlot:    fromCode,
		ToSlot:      toSlot.Code,
		MovedAt:     time.Now().UTC(),
	})

	s.logger.Info("Moved pallet",
		"palletLabel", pallet.Label,
		"fromSlot", fromCode,
		"toSlot", toSlot.Code,
	)
	return nil
}

func (s *LedgerService) load(ctx context.Context, slotCode, palletLabel string) (*domain.Slot, *domain.Pallet, error) {
	slot, err := s.slotRepo.FindByCode(ctx, slotCode)
	if err != nil {
		return nil, nil, errors.ErrInternal("failed to find slot").Wrap(err)
	}
	if slot == nil {
		return nil, nil, errors.ErrNotFoundWithID("slot", slotCode)
	}
	pallet, err := s.palletRepo.FindByLabel(ctx, palletLabel)
	if err != nil {
		return nil, nil, errors.ErrInternal("failed to find pallet").Wrap(err)
	}
	if pallet == nil {
		return nil, nil, errors.ErrNotFoundWithID("pallet", palletLabel)
	}
	return slot, pallet, nil
}

// rollbackMove undoes the destination claim and the pallet relocation when
// the source slot could not be released, so the pallet is never left
// referenced by two slots.
func (s *LedgerService) rollbackMove(ctx context.Context, toSlot *domain.Slot, pallet *domain.Pallet, fromCode string) {
	if pallet.Status == domain.PalletStatusAllocated {
		pallet.Relocate(fromCode)
	} else if err := pallet.Store(fromCode); err != nil {
		s.logger.WithError(err).Error("Failed to roll back pallet relocation",
			"palletLabel", pallet.Label,
			"fromSlot", fromCode,
		)
		return
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		s.logger.WithError(err).Error("Failed to roll back pallet relocation",
			"palletLabel", pallet.Label,
			"fromSlot", fromCode,
		)
	}
	s.rollbackClaim(ctx, toSlot, pallet.Label)
}

func (s *LedgerService) rollbackClaim(ctx context.Context, slot *domain.Slot, palletLabel string) {
	if err := slot.Release(palletLabel); err != nil {
		return
	}
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		s.logger.WithError(err).Error("Failed to roll back slot claim", "slotCode", slot.Code)
	}
}

func (s *LedgerService) mapUpdateError(err error, entity string) error {
	if err == domain.ErrVersionConflict {
		return errors.ErrConflict(entity + " was modified concurrently").Wrap(err)
	}
	return errors.ErrInternal("failed to update " + entity).Wrap(err)
}

func (s *LedgerService) emit(ctx context.Context, event domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to publish audit event", "eventType", event.EventType())
	}
}
