package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/pricing"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxSaveAttempts bounds the optimistic retry loop of a session write.
const maxSaveAttempts = 5

// CartBackend is the REST backend that owns carts and products.
// *backend.Client satisfies it.
type CartBackend interface {
	FetchCart(ctx context.Context) ([]domain.CartItem, error)
	FetchCartWithDetails(ctx context.Context) ([]domain.CartItem, error)
	AddItem(ctx context.Context, productID string, quantity int) error
	UpdateItem(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error)
}

// EventPublisher emits storefront domain events. *event.Producer satisfies it.
type EventPublisher interface {
	PublishCartRefreshed(ctx context.Context, s *domain.Session, sum domain.Summary, initial bool) error
	PublishPromoApplied(ctx context.Context, userID string, promo *domain.AppliedPromo, subtotal int64) error
	PublishPromoCleared(ctx context.Context, userID, code, reason string) error
	PublishVoucherApplied(ctx context.Context, userID string, v domain.AppliedVoucher) error
	PublishVoucherDiscountCalculated(ctx context.Context, userID string, total int64, vouchers []domain.AppliedVoucher) error
	PublishVoucherCreated(ctx context.Context, v *domain.Voucher) error
}

// errStale aborts a fenced commit whose generation has been overtaken.
var errStale = errors.New("stale generation")

// sessionStore wraps the session repository with the optimistic write loop
// and the request generation fence.
type sessionStore struct {
	repo   repository.SessionRepository
	logger *slog.Logger
	now    func() time.Time
}

// load returns the stored session or a fresh one.
func (st *sessionStore) load(ctx context.Context, userID string) (*domain.Session, error) {
	s, err := st.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewSession(userID, st.now().UTC()), nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// mutate applies fn to the latest session and saves it with a version check,
// re-reading and re-applying fn when another writer got there first. fn must
// be safe to run more than once.
func (st *sessionStore) mutate(ctx context.Context, userID string, fn func(s *domain.Session) error) (*domain.Session, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		s, err := st.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		expected := s.Version
		if err := fn(s); err != nil {
			return nil, err
		}
		s.UpdatedAt = st.now().UTC()

		ok, err := st.repo.SaveIfVersion(ctx, s, expected)
		if err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		if ok {
			return s, nil
		}
		sessionConflicts.Inc()
		st.logger.DebugContext(ctx, "session version conflict, retrying",
			slog.String("user_id", userID),
			slog.Int("attempt", attempt),
		)
	}
	return nil, apperrors.Conflict("session was modified concurrently, please retry")
}

// reserve takes the next request generation for userID.
func (st *sessionStore) reserve(ctx context.Context, userID string) (int64, error) {
	gen, err := st.repo.NextGeneration(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("reserve generation: %w", err)
	}
	return gen, nil
}

// commitFenced applies fn only if no result from a newer generation has been
// committed. It reports false, with the current session, when the result is
// stale and was discarded.
func (st *sessionStore) commitFenced(ctx context.Context, userID string, gen int64, op string, fn func(s *domain.Session) error) (*domain.Session, bool, error) {
	s, err := st.mutate(ctx, userID, func(s *domain.Session) error {
		if s.Generation > gen {
			return errStale
		}
		s.Generation = gen
		return fn(s)
	})
	if errors.Is(err, errStale) {
		staleResponses.WithLabelValues(op).Inc()
		st.logger.InfoContext(ctx, "discarding stale backend result",
			slog.String("user_id", userID),
			slog.String("operation", op),
			slog.Int64("generation", gen),
		)
		current, err := st.load(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// view prices a session for the API.
func view(s *domain.Session, notices ...domain.Notice) *domain.SessionView {
	return &domain.SessionView{
		Session: s,
		Summary: pricing.Summarize(s),
		Notices: notices,
	}
}

func success(format string, args ...any) domain.Notice {
	return domain.Notice{Level: domain.NoticeSuccess, Message: fmt.Sprintf(format, args...)}
}

func info(format string, args ...any) domain.Notice {
	return domain.Notice{Level: domain.NoticeInfo, Message: fmt.Sprintf(format, args...)}
}

// cartError reports a failed backend cart mutation, keeping the backend
// error's status and sentinel.
func cartError(code, message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status == http.StatusUnauthorized {
		return err
	}
	return apperrors.New(apperrors.HTTPStatus(err), code, message, err)
}
