package application

import (
	"context"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/errors"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
)

// InventoryService manages the master data the engine operates on: SKUs,
// slots, received pallets and outbound orders.
type InventoryService struct {
	skuRepo    domain.SKURepository
	slotRepo   domain.SlotRepository
	palletRepo domain.PalletRepository
	orderRepo  domain.OrderRepository
	logger     *logging.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	skuRepo domain.SKURepository,
	slotRepo domain.SlotRepository,
	palletRepo domain.PalletRepository,
	orderRepo domain.OrderRepository,
	logger *logging.Logger,
) *InventoryService {
	return &InventoryService{
		skuRepo:    skuRepo,
		slotRepo:   slotRepo,
		palletRepo: palletRepo,
		orderRepo:  orderRepo,
		logger:     logger,
	}
}

// CreateSKUCommand represents the command to register a SKU
type CreateSKUCommand struct {
	Code           string
	Description    string
	UnitsPerPallet int
	Tags           []string
}

// CreateSKU registers a product definition.
func (s *InventoryService) CreateSKU(ctx context.Context, cmd CreateSKUCommand) (*domain.SKU, error) {
	existing, err := s.skuRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, errors.ErrInternal("failed to find sku").Wrap(err)
	}
	if existing != nil {
		return nil, errors.ErrConflict("sku already exists").WithDetail("code", cmd.Code)
	}

	sku, err := domain.NewSKU(cmd.Code, cmd.Description, cmd.UnitsPerPallet, cmd.Tags)
	if err != nil {
		return nil, errors.ErrValidation("invalid sku").Wrap(err)
	}
	if err := s.skuRepo.Save(ctx, sku); err != nil {
		return nil, errors.ErrInternal("failed to save sku").Wrap(err)
	}

	s.logger.Info("Created SKU", "code", sku.Code, "unitsPerPallet", sku.UnitsPerPallet)
	return sku, nil
}

// BlockSKU blocks a SKU from putaway and allocation. A reason is mandatory.
func (s *InventoryService) BlockSKU(ctx context.Context, code, reason string) (*domain.SKU, error) {
	sku, err := s.findSKU(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := sku.Block(reason); err != nil {
		return nil, errors.ErrValidation("cannot block sku").Wrap(err)
	}
	if err := s.skuRepo.Update(ctx, sku); err != nil {
		return nil, s.mapUpdateError(err, "sku")
	}
	s.logger.Info("Blocked SKU", "code", sku.Code, "reason", reason)
	return sku, nil
}

// ActivateSKU clears a SKU block.
func (s *InventoryService) ActivateSKU(ctx context.Context, code string) (*domain.SKU, error) {
	sku, err := s.findSKU(ctx, code)
	if err != nil {
		return nil, err
	}
	sku.Activate()
	if err := s.skuRepo.Update(ctx, sku); err != nil {
		return nil, s.mapUpdateError(err, "sku")
	}
	return sku, nil
}

// GetSKU retrieves a SKU by code
func (s *InventoryService) GetSKU(ctx context.Context, code string) (*domain.SKU, error) {
	return s.findSKU(ctx, code)
}

// CreateSlotCommand represents the command to register a slot
type CreateSlotCommand struct {
	Code     string
	Usage    domain.SlotUsage
	Capacity int
	Tags     []string
}

// CreateSlot registers a physical storage location.
func (s *InventoryService) CreateSlot(ctx context.Context, cmd CreateSlotCommand) (*domain.Slot, error) {
	existing, err := s.slotRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, errors.ErrInternal("failed to find slot").Wrap(err)
	}
	if existing != nil {
		return nil, errors.ErrConflict("slot already exists").WithDetail("code", cmd.Code)
	}

	slot, err := domain.NewSlot(cmd.Code, cmd.Usage, cmd.Capacity, cmd.Tags)
	if err != nil {
		return nil, errors.ErrValidation("invalid slot").Wrap(err)
	}
	if err := s.slotRepo.Save(ctx, slot); err != nil {
		return nil, errors.ErrInternal("failed to save slot").Wrap(err)
	}

	s.logger.Info("Created slot", "code", slot.Code, "usage", slot.Usage)
	return slot, nil
}

// BlockSlot takes a slot out of putaway and allocation.
func (s *InventoryService) BlockSlot(ctx context.Context, code string) (*domain.Slot, error) {
	slot, err := s.findSlot(ctx, code)
	if err != nil {
		return nil, err
	}
	slot.Block()
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return nil, s.mapUpdateError(err, "slot")
	}
	s.logger.Info("Blocked slot", "code", slot.Code)
	return slot, nil
}

// UnblockSlot restores a slot's derived occupancy status.
func (s *InventoryService) UnblockSlot(ctx context.Context, code string) (*domain.Slot, error) {
	slot, err := s.findSlot(ctx, code)
	if err != nil {
		return nil, err
	}
	slot.Unblock()
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return nil, s.mapUpdateError(err, "slot")
	}
	return slot, nil
}

// GetSlot retrieves a slot by code
func (s *InventoryService) GetSlot(ctx context.Context, code string) (*domain.Slot, error) {
	return s.findSlot(ctx, code)
}

// GetSlotsByPrefix retrieves slots whose codes match a prefix
func (s *InventoryService) GetSlotsByPrefix(ctx context.Context, prefix string) ([]*domain.Slot, error) {
	slots, err := s.slotRepo.FindByCodePrefix(ctx, prefix)
	if err != nil {
		return nil, errors.ErrInternal("failed to list slots").Wrap(err)
	}
	return slots, nil
}

// ReceivePalletsCommand represents the command to register received pallets
type ReceivePalletsCommand struct {
	ReceiptNumber string
	Count         int
}

// ReceivePallets registers the pallets of an inbound receipt. Labels derive
// from the receipt number and the sequence within the receipt; each pallet
// awaits identification.
func (s *InventoryService) ReceivePallets(ctx context.Context, cmd ReceivePalletsCommand) ([]*domain.Pallet, error) {
	if cmd.Count < 1 {
		return nil, errors.ErrValidation("pallet count must be positive")
	}

	pallets := make([]*domain.Pallet, 0, cmd.Count)
	for seq := 1; seq <= cmd.Count; seq++ {
		pallet, err := domain.NewPallet(cmd.ReceiptNumber, seq)
		if err != nil {
			return nil, errors.ErrValidation("invalid receipt").Wrap(err)
		}
		existing, err := s.palletRepo.FindByLabel(ctx, pallet.Label)
		if err != nil {
			return nil, errors.ErrInternal("failed to find pallet").Wrap(err)
		}
		if existing != nil {
			return nil, errors.ErrConflict("receipt already registered").WithDetail("label", pallet.Label)
		}
		if err := s.palletRepo.Save(ctx, pallet); err != nil {
			return nil, errors.ErrInternal("failed to save pallet").Wrap(err)
		}
		pallets = append(pallets, pallet)
	}

	s.logger.Info("Received pallets",
		"receiptNumber", cmd.ReceiptNumber,
		"count", len(pallets),
	)
	return pallets, nil
}

// IdentifyPalletCommand represents the command to point a pallet at a SKU
type IdentifyPalletCommand struct {
	PalletLabel string
	SKUCode     string
	Quantity    int
	LotCode     string
	ExpiryDate  *time.Time
}

// IdentifyPallet points a received pallet at a SKU with its quantity, lot
// and expiry.
func (s *InventoryService) IdentifyPallet(ctx context.Context, cmd IdentifyPalletCommand) (*domain.Pallet, error) {
	pallet, err := s.findPallet(ctx, cmd.PalletLabel)
	if err != nil {
		return nil, err
	}

	sku, err := s.findSKU(ctx, cmd.SKUCode)
	if err != nil {
		return nil, err
	}
	if sku.IsBlocked() {
		return nil, errors.ErrValidation("sku is blocked").Wrap(domain.ErrSKUBlocked)
	}

	if err := pallet.Identify(sku.Code, cmd.Quantity, cmd.LotCode, cmd.ExpiryDate); err != nil {
		return nil, errors.ErrValidation("cannot identify pallet").Wrap(err)
	}
	if err := s.palletRepo.Update(ctx, pallet); err != nil {
		return nil, s.mapUpdateError(err, "pallet")
	}

	s.logger.Info("Identified pallet",
		"palletLabel", pallet.Label,
		"skuCode", pallet.SKUCode,
		"quantity", pallet.Quantity,
	)
	return pallet, nil
}

// GetPallet retrieves a pallet by label
func (s *InventoryService) GetPallet(ctx context.Context, label string) (*domain.Pallet, error) {
	return s.findPallet(ctx, label)
}

// GetPalletsBySlot retrieves the pallets occupying a slot
func (s *InventoryService) GetPalletsBySlot(ctx context.Context, slotCode string) ([]*domain.Pallet, error) {
	pallets, err := s.palletRepo.FindBySlot(ctx, slotCode)
	if err != nil {
		return nil, errors.ErrInternal("failed to list pallets").Wrap(err)
	}
	return pallets, nil
}

// CreateOrderCommand represents the command to register an outbound order
type CreateOrderCommand struct {
	Number string
	Lines  []domain.OrderLine
}

// CreateOrder registers outbound demand.
func (s *InventoryService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	existing, err := s.orderRepo.FindByNumber(ctx, cmd.Number)
	if err != nil {
		return nil, errors.ErrInternal("failed to find order").Wrap(err)
	}
	if existing != nil {
		return nil, errors.ErrConflict("order already exists").WithDetail("number", cmd.Number)
	}

	order, err := domain.NewOrder(cmd.Number, cmd.Lines)
	if err != nil {
		return nil, errors.ErrValidation("invalid order").Wrap(err)
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, errors.ErrInternal("failed to save order").Wrap(err)
	}

	s.logger.Info("Created order", "number", order.Number, "lines", len(order.Lines))
	return order, nil
}

// GetOrder retrieves an order by number
func (s *InventoryService) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, errors.ErrInternal("failed to find order").Wrap(err)
	}
	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", number)
	}
	return order, nil
}

func (s *InventoryService) findSKU(ctx context.Context, code string) (*domain.SKU, error) {
	sku, err := s.skuRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, errors.ErrInternal("failed to find sku").Wrap(err)
	}
	if sku == nil {
		return nil, errors.ErrNotFoundWithID("sku", code)
	}
	return sku, nil
}

func (s *InventoryService) findSlot(ctx context.Context, code string) (*domain.Slot, error) {
	slot, err := s.slotRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, errors.ErrInternal("failed to find slot").Wrap(err)
	}
	if slot == nil {
		return nil, errors.ErrNotFoundWithID("slot", code)
	}
	return slot, nil
}

func (s *InventoryService) findPallet(ctx context.Context, label string) (*domain.Pallet, error) {
	pallet, err := s.palletRepo.FindByLabel(ctx, label)
	if err != nil {
		return nil, errors.ErrInternal("failed to find pallet").Wrap(err)
	}
	if pallet == nil {
		return nil, errors.ErrNotFoundWithID("pallet", label)
	}
	return pallet, nil
}

func (s *InventoryService) mapUpdateError(err error, entity string) error {
	if err == domain.ErrVersionConflict {
		return errors.ErrConflict(entity + " was modified concurrently").Wrap(err)
	}
	return errors.ErrInternal("failed to update " + entity).Wrap(err)
}
