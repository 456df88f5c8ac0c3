package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// SessionRepository persists storefront sessions.
type SessionRepository interface {
	// Get returns the session for userID or an ErrNotFound AppError.
	Get(ctx context.Context, userID string) (*domain.Session, error)

	// SaveIfVersion writes the session only if the stored version still equals
	// expectedVersion (0 for a session that does not exist yet). On success the
	// session's Version is advanced. It reports false on a version mismatch.
	SaveIfVersion(ctx context.Context, session *domain.Session, expectedVersion int) (bool, error)

	// NextGeneration reserves the next request generation for userID.
	NextGeneration(ctx context.Context, userID string) (int64, error)

	// Delete removes the session.
	Delete(ctx context.Context, userID string) error
}

// VoucherRepository persists seller vouchers.
type VoucherRepository interface {
	Create(ctx context.Context, v *domain.Voucher) error
	GetByID(ctx context.Context, id string) (*domain.Voucher, error)
	// GetByCode matches the upper-cased code.
	GetByCode(ctx context.Context, code string) (*domain.Voucher, error)
	List(ctx context.Context, filter domain.VoucherFilter) ([]domain.Voucher, int, error)
	Deactivate(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int, error)
}
