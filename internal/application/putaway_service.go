package application

import (
	"context"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/errors"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
)

// PutawayService proposes storage slots for identified pallets and confirms
// placements through the ledger.
type PutawayService struct {
	palletRepo domain.PalletRepository
	skuRepo    domain.SKURepository
	slotRepo   domain.SlotRepository
	ledger     *LedgerService
	logger     *logging.Logger
}

// NewPutawayService creates a new PutawayService
func NewPutawayService(
	palletRepo domain.PalletRepository,
	skuRepo domain.SKURepository,
	slotRepo domain.SlotRepository,
	ledger *LedgerService,
	logger *logging.Logger,
) *PutawayService {
	return &PutawayService{
		palletRepo: palletRepo,
		skuRepo:    skuRepo,
		slotRepo:   slotRepo,
		ledger:     ledger,
		logger:     logger,
	}
}

// Suggest proposes a free storage slot for the pallet. First-fit over slots
// ordered by code: tagged SKUs prefer slots sharing a compatibility tag and
// fall back to untagged slots; untagged SKUs prefer untagged slots so the
// tagged ones stay available. Returns (nil, nil) when no slot is eligible.
func (s *PutawayService) Suggest(ctx context.Context, palletLabel string) (*domain.Slot, error) {
	pallet, err := s.palletRepo.FindByLabel(ctx, palletLabel)
	if err != nil {
		return nil, errors.ErrInternal("failed to find pallet").Wrap(err)
	}
	if pallet == nil {
		return nil, errors.ErrNotFoundWithID("pallet", palletLabel)
	}
	if pallet.SKUCode == "" {
		return nil, errors.ErrValidation("pallet has not been identified").Wrap(domain.ErrPalletNotIdentified)
	}

	sku, err := s.skuRepo.FindByCode(ctx, pallet.SKUCode)
	if err != nil {
		return nil, errors.ErrInternal("failed to find sku").Wrap(err)
	}
	if sku == nil {
		s.logger.Error("Pallet references unknown SKU",
			"palletLabel", pallet.Label,
			"skuCode", pallet.SKUCode,
		)
		return nil, errors.ErrInternal("pallet references unknown sku")
	}
	if sku.IsBlocked() {
		return nil, errors.ErrValidation("sku is blocked").Wrap(domain.ErrSKUBlocked)
	}

	slots, err := s.slotRepo.FindFreeStorage(ctx)
	if err != nil {
		return nil, errors.ErrInternal("failed to list free storage slots").Wrap(err)
	}

	slot := pickSlot(sku, slots)
	if slot == nil {
		s.logger.Info("No eligible slot for pallet",
			"palletLabel", pallet.Label,
			"skuCode", sku.Code,
		)
		return nil, nil
	}

	s.logger.Info("Suggested slot",
		"palletLabel", pallet.Label,
		"skuCode", sku.Code,
		"slotCode", slot.Code,
	)
	return slot, nil
}

// ConfirmCommand represents the command to confirm a putaway placement
type ConfirmCommand struct {
	PalletLabel string
	SlotCode    string
}

// Confirm places the pallet on the given slot. The slot does not have to be
// the suggested one; the ledger validates availability on its own.
func (s *PutawayService) Confirm(ctx context.Context, cmd ConfirmCommand) error {
	if err := s.ledger.MovePallet(ctx, cmd.PalletLabel, cmd.SlotCode); err != nil {
		return err
	}

	s.logger.Info("Confirmed putaway",
		"palletLabel", cmd.PalletLabel,
		"slotCode", cmd.SlotCode,
	)
	return nil
}

// pickSlot applies the first-fit placement rules over slots already sorted by
// code ascending.
func pickSlot(sku *domain.SKU, slots []*domain.Slot) *domain.Slot {
	if !sku.HasTags() {
		for _, slot := range slots {
			if slot.IsEligibleForPutaway() && slot.IsGeneric() {
				return slot
			}
		}
		for _, slot := range slots {
			if slot.IsEligibleForPutaway() {
				return slot
			}
		}
		return nil
	}

	for _, slot := range slots {
		if slot.IsEligibleForPutaway() && sku.SharesTag(slot.Tags) {
			return slot
		}
	}
	for _, slot := range slots {
		if slot.IsEligibleForPutaway() && slot.IsGeneric() {
			return slot
		}
	}
	return nil
}
