package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"carwash-booking/internal/data/entity"
	"carwash-booking/internal/data/repository"
	"carwash-booking/pkg/apperror"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"
	"carwash-booking/pkg/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memBookingRepo mirrors the SQL store's guards in memory.
type memBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*entity.Booking
	carwashes *memCarwashRepo

	setIntentErr error
}

func copyBooking(b *entity.Booking) *entity.Booking {
	cp := *b
	if b.Payment.IntentID != nil {
		id := *b.Payment.IntentID
		cp.Payment.IntentID = &id
	}
	return &cp
}

func (m *memBookingRepo) CreateIfSlotFree(_ context.Context, booking *entity.Booking) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.CarwashID == booking.CarwashID && b.ScheduledTime.Equal(booking.ScheduledTime) && b.Status.Active() {
			return false, nil
		}
	}
	m.bookings[booking.ID] = copyBooking(booking)
	return true, nil
}

func (m *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		return copyBooking(b), nil
	}
	return nil, nil
}

func (m *memBookingRepo) findByIntent(intentID string) *entity.Booking {
	for _, b := range m.bookings {
		if b.Payment.IntentID != nil && *b.Payment.IntentID == intentID {
			return b
		}
	}
	return nil
}

func (m *memBookingRepo) FindByIntentID(_ context.Context, intentID string) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.findByIntent(intentID); b != nil {
		return copyBooking(b), nil
	}
	return nil, nil
}

func (m *memBookingRepo) ExistsActiveAtSlot(_ context.Context, carwashID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.CarwashID == carwashID && b.ScheduledTime.Equal(at) && b.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookingRepo) SetPaymentIntent(_ context.Context, id uuid.UUID, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setIntentErr != nil {
		return m.setIntentErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return errors.New("booking missing")
	}
	b.Payment.IntentID = &intentID
	return nil
}

func (m *memBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, id)
	return nil
}

func (m *memBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, to entity.BookingStatus, from []entity.BookingStatus, requirePaid bool) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || !slices.Contains(from, b.Status) {
		return nil, nil
	}
	if requirePaid && b.Payment.Status != entity.PaymentStatusPaid {
		return nil, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	return copyBooking(b), nil
}

func (m *memBookingRepo) MarkPaymentPaid(_ context.Context, intentID string) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.findByIntent(intentID)
	if b == nil || (b.Payment.Status != entity.PaymentStatusPending && b.Payment.Status != entity.PaymentStatusFailed) {
		return nil, nil
	}
	b.Payment.Status = entity.PaymentStatusPaid
	return copyBooking(b), nil
}

func (m *memBookingRepo) MarkPaymentFailed(_ context.Context, intentID string) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.findByIntent(intentID)
	if b == nil || b.Payment.Status != entity.PaymentStatusPending {
		return nil, nil
	}
	b.Payment.Status = entity.PaymentStatusFailed
	return copyBooking(b), nil
}

func (m *memBookingRepo) list(match func(b *entity.Booking, c *entity.Carwash) bool, limit, offset int) []*entity.BookingView {
	m.mu.Lock()
	defer m.mu.Unlock()
	var views []*entity.BookingView
	for _, b := range m.bookings {
		c := m.carwashes.items[b.CarwashID]
		if !match(b, c) {
			continue
		}
		v := &entity.BookingView{Booking: *copyBooking(b)}
		if c != nil {
			v.CarwashName = c.Name
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ScheduledTime.After(views[j].ScheduledTime) })
	if offset >= len(views) {
		return nil
	}
	end := min(offset+limit, len(views))
	return views[offset:end]
}

func (m *memBookingRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.BookingView, error) {
	return m.list(func(b *entity.Booking, _ *entity.Carwash) bool { return b.CustomerID == customerID }, limit, offset), nil
}

func (m *memBookingRepo) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	views, _ := m.FindByCustomer(ctx, customerID, 1<<30, 0)
	return int64(len(views)), nil
}

func (m *memBookingRepo) FindByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.BookingView, error) {
	return m.list(func(_ *entity.Booking, c *entity.Carwash) bool { return c != nil && c.OwnerID == ownerID }, limit, offset), nil
}

func (m *memBookingRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	views, _ := m.FindByOwner(ctx, ownerID, 1<<30, 0)
	return int64(len(views)), nil
}

func (m *memBookingRepo) Stats(_ context.Context, recent int) (*entity.BookingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &entity.BookingStats{
		ByStatus:        map[entity.BookingStatus]int64{},
		ByPaymentStatus: map[entity.PaymentStatus]int64{},
	}
	var all []*entity.BookingView
	for _, b := range m.bookings {
		stats.Total++
		stats.ByStatus[b.Status]++
		stats.ByPaymentStatus[b.Payment.Status]++
		if b.Status == entity.BookingStatusCompleted {
			stats.Revenue += b.Service.Price
		}
		all = append(all, &entity.BookingView{Booking: *copyBooking(b)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > recent {
		all = all[:recent]
	}
	stats.Recent = all
	return stats, nil
}

type memCarwashRepo struct {
	items map[uuid.UUID]*entity.Carwash
}

func (m *memCarwashRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Carwash, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Services = nil
	for _, s := range c.Services {
		sc := *s
		cp.Services = append(cp.Services, &sc)
	}
	return &cp, nil
}

func (m *memCarwashRepo) FindService(ctx context.Context, carwashID, serviceID uuid.UUID) (*entity.CarwashService, error) {
	c, _ := m.FindByID(ctx, carwashID)
	if c == nil {
		return nil, nil
	}
	return c.FindService(serviceID), nil
}

type memUserRepo struct {
	items map[uuid.UUID]*entity.User
}

func (m *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return m.items[id], nil
}

func (m *memUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	out := map[uuid.UUID]*entity.User{}
	for _, id := range ids {
		if u, ok := m.items[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	createErr error
	requests  []payment.IntentRequest
	intents   map[string]*payment.Intent
	cancelled []string

	event    *payment.Event
	parseErr error
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("pi_test_%d", g.seq)
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_abc",
		Status:       "requires_payment_method",
		AmountMinor:  req.AmountMinor,
		Currency:     req.Currency,
		Metadata:     req.Metadata,
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, apperror.Payment("no such intent", nil)
	}
	cp := *intent
	return &cp, nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, id)
	return nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, _ string) (*payment.Event, error) {
	if g.parseErr != nil {
		return nil, apperror.Signature(g.parseErr)
	}
	return g.event, nil
}

func (g *fakeGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = status
}

// syncRunner runs tasks inline so assertions see their effects.
type syncRunner struct {
	mu    sync.Mutex
	names []string
}

func (r *syncRunner) Submit(name string, task worker.Task) error {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return task(context.Background())
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice notify.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, notice := range n.notices {
		out = append(out, notice.Event)
	}
	return out
}

type fixture struct {
	bookings  *memBookingRepo
	carwashes *memCarwashRepo
	users     *memUserRepo
	gateway   *fakeGateway
	runner    *syncRunner
	notifier  *recordingNotifier
	config    *utils.Config

	ownerID    uuid.UUID
	customerID uuid.UUID
	carwash    *entity.Carwash
	service    *entity.CarwashService

	booking BookingService
	payment PaymentService
	stats   StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		carwashes: &memCarwashRepo{items: map[uuid.UUID]*entity.Carwash{}},
		users:     &memUserRepo{items: map[uuid.UUID]*entity.User{}},
		gateway:   &fakeGateway{intents: map[string]*payment.Intent{}},
		runner:    &syncRunner{},
		notifier:  &recordingNotifier{},
		config:    &utils.Config{Payment: utils.PaymentConfig{Currency: "gel"}},
		ownerID:   uuid.New(),
	}
	f.bookings = &memBookingRepo{bookings: map[uuid.UUID]*entity.Booking{}, carwashes: f.carwashes}

	f.customerID = uuid.New()
	f.users.items[f.customerID] = &entity.User{
		BaseSimple: entity.BaseSimple{ID: f.customerID},
		Name:       "Nino",
		Email:      "nino@example.com",
		Role:       entity.RoleCustomer,
	}

	carwashID := uuid.New()
	f.service = &entity.CarwashService{ID: uuid.New(), CarwashID: carwashID, Name: "Wash", Price: 15, Duration: 30}
	f.carwash = &entity.Carwash{
		BaseSimple: entity.BaseSimple{ID: carwashID},
		OwnerID:    f.ownerID,
		Name:       "Sparkle",
		Email:      "owner@sparkle.ge",
		Services:   []*entity.CarwashService{f.service},
	}
	f.carwashes.items[carwashID] = f.carwash

	f.rebuild()
	return f
}

// rebuild recreates services after a config change.
func (f *fixture) rebuild() {
	repo := &repository.Repository{User: f.users, Carwash: f.carwashes, Booking: f.bookings}
	svc := NewService(repo, f.gateway, f.notifier, f.runner, f.config, zap.NewNop())
	f.booking = svc.Booking
	f.payment = svc.Payment
	f.stats = svc.Stats
}
