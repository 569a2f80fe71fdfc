package application

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"github.com/wms-platform/warehouse-engine/pkg/logging"
)

func newTestLogger() *logging.Logger {
	return logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "test",
		Output:      io.Discard,
	})
}

type fakeSKURepo struct {
	mu      sync.Mutex
	skus    map[string]*domain.SKU
	saveErr error
	findErr error
}

func newFakeSKURepo() *fakeSKURepo {
	return &fakeSKURepo{skus: make(map[string]*domain.SKU)}
}

func (r *fakeSKURepo) Save(ctx context.Context, sku *domain.SKU) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skus[sku.Code] = sku
	return nil
}

func (r *fakeSKURepo) FindByCode(ctx context.Context, code string) (*domain.SKU, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skus[code], nil
}

func (r *fakeSKURepo) Update(ctx context.Context, sku *domain.SKU) error {
	return r.Save(ctx, sku)
}

type fakeSlotRepo struct {
	mu           sync.Mutex
	slots        map[string]*domain.Slot
	updateErr    error
	updateErrFor map[string]error
	findErr      error
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[string]*domain.Slot)}
}

func (r *fakeSlotRepo) Save(ctx context.Context, slot *domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slot.Code] = slot
	return nil
}

func (r *fakeSlotRepo) FindByCode(ctx context.Context, code string) (*domain.Slot, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[code], nil
}

func (r *fakeSlotRepo) FindFreeStorage(ctx context.Context) ([]*domain.Slot, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.filter(func(s *domain.Slot) bool {
		return s.Usage == domain.SlotUsageStorage && s.Status == domain.SlotStatusFree
	}), nil
}

func (r *fakeSlotRepo) FindByUsage(ctx context.Context, usage domain.SlotUsage) ([]*domain.Slot, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.filter(func(s *domain.Slot) bool { return s.Usage == usage }), nil
}

func (r *fakeSlotRepo) FindByCodePrefix(ctx context.Context, prefix string) ([]*domain.Slot, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.filter(func(s *domain.Slot) bool { return strings.HasPrefix(s.Code, prefix) }), nil
}

func (r *fakeSlotRepo) Update(ctx context.Context, slot *domain.Slot) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if err := r.updateErrFor[slot.Code]; err != nil {
		return err
	}
	return r.Save(ctx, slot)
}

func (r *fakeSlotRepo) filter(keep func(*domain.Slot) bool) []*domain.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Slot
	for _, s := range r.slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

type fakePalletRepo struct {
	mu        sync.Mutex
	pallets   map[string]*domain.Pallet
	updateErr error
	findErr   error
}

func newFakePalletRepo() *fakePalletRepo {
	return &fakePalletRepo{pallets: make(map[string]*domain.Pallet)}
}

func (r *fakePalletRepo) Save(ctx context.Context, pallet *domain.Pallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pallets[pallet.Label] = pallet
	return nil
}

func (r *fakePalletRepo) FindByLabel(ctx context.Context, label string) (*domain.Pallet, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pallets[label], nil
}

func (r *fakePalletRepo) FindStoredBySKU(ctx context.Context, skuCode, lotCode string) ([]*domain.Pallet, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Pallet
	for _, p := range r.pallets {
		if p.Status != domain.PalletStatusStored || p.SKUCode != skuCode {
			continue
		}
		if lotCode != "" && p.LotCode != lotCode {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakePalletRepo) FindBySlot(ctx context.Context, slotCode string) ([]*domain.Pallet, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Pallet
	for _, p := range r.pallets {
		if p.SlotCode == slotCode {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (r *fakePalletRepo) Update(ctx context.Context, pallet *domain.Pallet) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Save(ctx, pallet)
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	updateErr error
	findErr   error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.Number] = order
	return nil
}

func (r *fakeOrderRepo) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[number], nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Save(ctx, order)
}

type fakeMissionRepo struct {
	mu        sync.Mutex
	missions  map[string]*domain.Mission
	saveErr   error
	updateErr error
	findErr   error
}

func newFakeMissionRepo() *fakeMissionRepo {
	return &fakeMissionRepo{missions: make(map[string]*domain.Mission)}
}

func (r *fakeMissionRepo) Save(ctx context.Context, mission *domain.Mission) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions[mission.MissionID] = mission
	return nil
}

func (r *fakeMissionRepo) FindByID(ctx context.Context, missionID string) (*domain.Mission, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.missions[missionID], nil
}

func (r *fakeMissionRepo) FindOldestPending(ctx context.Context) (*domain.Mission, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	pending := r.filter(func(m *domain.Mission) bool { return m.Status == domain.MissionStatusPending })
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[0], nil
}

func (r *fakeMissionRepo) FindActiveByOperator(ctx context.Context, operatorID string) (*domain.Mission, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	active := r.filter(func(m *domain.Mission) bool {
		return m.OperatorID == operatorID && m.Status.IsActive()
	})
	if len(active) == 0 {
		return nil, nil
	}
	return active[0], nil
}

func (r *fakeMissionRepo) FindByOrder(ctx context.Context, orderNumber string) ([]*domain.Mission, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.filter(func(m *domain.Mission) bool { return m.OrderNumber == orderNumber }), nil
}

func (r *fakeMissionRepo) FindByStatus(ctx context.Context, status domain.MissionStatus, pagination domain.Pagination) ([]*domain.Mission, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.filter(func(m *domain.Mission) bool { return m.Status == status }), nil
}

func (r *fakeMissionRepo) Update(ctx context.Context, mission *domain.Mission) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.Save(ctx, mission)
}

func (r *fakeMissionRepo) Delete(ctx context.Context, missionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.missions, missionID)
	return nil
}

// filter returns missions in FIFO order, the order the queue serves them.
func (r *fakeMissionRepo) filter(keep func(*domain.Mission) bool) []*domain.Mission {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Mission
	for _, m := range r.missions {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].MissionID < out[j].MissionID
	})
	return out
}

type fakeCountRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.CountSession
	items    []*domain.CountItem
	saveErr  error
}

func newFakeCountRepo() *fakeCountRepo {
	return &fakeCountRepo{sessions: make(map[string]*domain.CountSession)}
}

func (r *fakeCountRepo) SaveSession(ctx context.Context, session *domain.CountSession) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionID] = session
	return nil
}

func (r *fakeCountRepo) FindSession(ctx context.Context, sessionID string) (*domain.CountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID], nil
}

func (r *fakeCountRepo) UpdateSession(ctx context.Context, session *domain.CountSession) error {
	return r.SaveSession(ctx, session)
}

func (r *fakeCountRepo) SaveItem(ctx context.Context, item *domain.CountItem) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func (r *fakeCountRepo) FindItems(ctx context.Context, sessionID string) ([]*domain.CountItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CountItem
	for _, item := range r.items {
		if item.SessionID == sessionID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeCountRepo) FindLastItem(ctx context.Context, sessionID string) (*domain.CountItem, error) {
	items, _ := r.FindItems(ctx, sessionID)
	if len(items) == 0 {
		return nil, nil
	}
	return items[len(items)-1], nil
}

func (r *fakeCountRepo) DeleteItem(ctx context.Context, item *domain.CountItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, candidate := range r.items {
		if candidate.ID == item.ID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakePublisher struct {
	mu         sync.Mutex
	events     []domain.DomainEvent
	publishErr error
}

func (p *fakePublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
