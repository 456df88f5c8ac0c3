package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// --- Session repository fake ---

type memSessionRepo struct {
	mu          sync.Mutex
	data        map[string][]byte
	generations map[string]int64
	conflicts   int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{data: map[string][]byte{}, generations: map[string]int64{}}
}

func (r *memSessionRepo) Get(_ context.Context, userID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.data[userID]
	if !ok {
		return nil, apperrors.NotFound("session", userID)
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, s.Normalize()
}

func (r *memSessionRepo) SaveIfVersion(_ context.Context, s *domain.Session, expected int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return false, nil
	}
	current := 0
	if raw, ok := r.data[s.UserID]; ok {
		var stored domain.Session
		if err := json.Unmarshal(raw, &stored); err != nil {
			return false, err
		}
		current = stored.Version
	}
	if current != expected {
		return false, nil
	}
	s.Version = expected + 1
	raw, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	r.data[s.UserID] = raw
	return true, nil
}

func (r *memSessionRepo) NextGeneration(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[userID]++
	return r.generations[userID], nil
}

func (r *memSessionRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, userID)
	return nil
}

// commitNewer simulates a newer request committing while another is in flight.
func (r *memSessionRepo) commitNewer(t *testing.T, userID string, mutate func(s *domain.Session)) {
	t.Helper()
	ctx := context.Background()
	gen, _ := r.NextGeneration(ctx, userID)
	s, err := r.Get(ctx, userID)
	if err != nil {
		s = domain.NewSession(userID, time.Now())
	}
	s.Generation = gen
	mutate(s)
	ok, err := r.SaveIfVersion(ctx, s, s.Version)
	require.NoError(t, err)
	require.True(t, ok)
}

// --- Voucher repository fake ---

type memVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[string]*domain.Voucher
	err      error
}

func newMemVoucherRepo(vs ...*domain.Voucher) *memVoucherRepo {
	r := &memVoucherRepo{vouchers: map[string]*domain.Voucher{}}
	for _, v := range vs {
		r.vouchers[v.ID] = v
	}
	return r
}

func (r *memVoucherRepo) Create(_ context.Context, v *domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vouchers {
		if existing.Code == v.Code {
			return apperrors.AlreadyExists("voucher", "code", v.Code)
		}
	}
	cp := *v
	r.vouchers[v.ID] = &cp
	return nil
}

func (r *memVoucherRepo) GetByID(_ context.Context, id string) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vouchers[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, apperrors.NotFound("voucher", id)
}

func (r *memVoucherRepo) GetByCode(_ context.Context, code string) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, v := range r.vouchers {
		if v.Code == code {
			cp := *v
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("voucher", code)
}

func (r *memVoucherRepo) List(_ context.Context, f domain.VoucherFilter) ([]domain.Voucher, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Voucher{}
	for _, v := range r.vouchers {
		if f.VendorID != "" && v.VendorID != f.VendorID {
			continue
		}
		if f.ActiveOnly && !v.IsValid(time.Now()) {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, len(out), nil
}

func (r *memVoucherRepo) Deactivate(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok {
		return apperrors.NotFound("voucher", id)
	}
	v.IsActive = false
	v.UpdatedAt = at
	return nil
}

func (r *memVoucherRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vouchers), nil
}

// --- Backend mock ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) FetchCart(ctx context.Context) ([]domain.CartItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return domain.CloneItems(args.Get(0).([]domain.CartItem)), args.Error(1)
}

func (m *mockBackend) FetchCartWithDetails(ctx context.Context) ([]domain.CartItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return domain.CloneItems(args.Get(0).([]domain.CartItem)), args.Error(1)
}

func (m *mockBackend) AddItem(ctx context.Context, productID string, quantity int) error {
	return m.Called(ctx, productID, quantity).Error(0)
}

func (m *mockBackend) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	return m.Called(ctx, itemID, quantity).Error(0)
}

func (m *mockBackend) RemoveItem(ctx context.Context, itemID string) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *mockBackend) ClearCart(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockBackend) ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

// --- Publisher fake ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPublisher) PublishCartRefreshed(context.Context, *domain.Session, domain.Summary, bool) error {
	return p.record("cart.refreshed")
}

func (p *recordingPublisher) PublishPromoApplied(context.Context, string, *domain.AppliedPromo, int64) error {
	return p.record("promo.applied")
}

func (p *recordingPublisher) PublishPromoCleared(_ context.Context, _, _, reason string) error {
	return p.record("promo.cleared:" + reason)
}

func (p *recordingPublisher) PublishVoucherApplied(context.Context, string, domain.AppliedVoucher) error {
	return p.record("voucher.applied")
}

func (p *recordingPublisher) PublishVoucherDiscountCalculated(context.Context, string, int64, []domain.AppliedVoucher) error {
	return p.record("voucher.discount_calculated")
}

func (p *recordingPublisher) PublishVoucherCreated(context.Context, *domain.Voucher) error {
	return p.record("voucher.created")
}

// --- Catalog fake ---

type staticCatalog map[string]float64

func (c staticCatalog) Lookup(code string) (domain.PromoCode, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	pct, ok := c[code]
	return domain.PromoCode{Code: code, Percentage: pct}, ok
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc      *StorefrontService
	sessions *memSessionRepo
	vouchers *memVoucherRepo
	backend  *mockBackend
	events   *recordingPublisher
}

func newFixture(t *testing.T, vouchers ...*domain.Voucher) *fixture {
	t.Helper()
	f := &fixture{
		sessions: newMemSessionRepo(),
		vouchers: newMemVoucherRepo(vouchers...),
		backend:  new(mockBackend),
		events:   &recordingPublisher{},
	}
	resolver := NewDiscountResolver(staticCatalog{"WELCOME10": 10, "SAVE20": 20}, f.vouchers)
	f.svc = NewStorefrontService(f.sessions, f.backend, resolver, f.events, nil, newTestLogger())
	return f
}

// load fetches the cart once so the session holds items.
func (f *fixture) load(t *testing.T, userID string, items ...domain.CartItem) *domain.SessionView {
	t.Helper()
	f.backend.On("FetchCartWithDetails", mock.Anything).Return(items, nil).Once()
	v, err := f.svc.Refresh(context.Background(), userID, DefaultRefreshOptions())
	require.NoError(t, err)
	return v
}

func item(id, product, vendor string, price int64, qty int) domain.CartItem {
	return domain.CartItem{ID: id, ProductID: product, VendorID: vendor, Name: "item " + id, Price: price, Quantity: qty}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func appErrCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
