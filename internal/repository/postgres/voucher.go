package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Migrations returns the voucher schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const voucherColumns = `id, code, vendor_id, product_ids, discount_percentage,
	min_purchase, max_discount, expires_at, is_active, description, created_at, updated_at`

// VoucherRepository implements repository.VoucherRepository using PostgreSQL.
type VoucherRepository struct {
	db database.DBTX
}

// NewVoucherRepository creates a PostgreSQL-backed voucher repository.
func NewVoucherRepository(db database.DBTX) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// Create inserts a voucher. A duplicate code yields ErrAlreadyExists.
func (r *VoucherRepository) Create(ctx context.Context, v *domain.Voucher) error {
	products := v.ProductIDs
	if products == nil {
		products = []string{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO vouchers (`+voucherColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.Code, v.VendorID, products, v.DiscountPercentage,
		v.MinPurchase, v.MaxDiscount, v.ExpiresAt, v.IsActive, v.Description,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("voucher", "code", v.Code)
		}
		return fmt.Errorf("insert voucher: %w", err)
	}
	return nil
}

// GetByID retrieves a voucher by id.
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	v, err := r.scanOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("voucher", id)
	}
	return v, err
}

// GetByCode retrieves a voucher by its upper-cased code.
func (r *VoucherRepository) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	v, err := r.scanOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("voucher", code)
	}
	return v, err
}

// List returns one page of vouchers, newest first, with the total match count.
func (r *VoucherRepository) List(ctx context.Context, filter domain.VoucherFilter) ([]domain.Voucher, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.VendorID != "" {
		args = append(args, domain.NormalizeID(filter.VendorID))
		conditions = append(conditions, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		args = append(args, time.Now().UTC())
		conditions = append(conditions, fmt.Sprintf("is_active AND expires_at > $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM vouchers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		voucherColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []domain.Voucher{}
	total := 0
	for rows.Next() {
		var v domain.Voucher
		dest := append(scanTargets(&v), &total)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan voucher row: %w", err)
		}
		vouchers = append(vouchers, normalize(v))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate voucher rows: %w", err)
	}
	return vouchers, total, nil
}

// Deactivate marks a voucher inactive.
func (r *VoucherRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE vouchers SET is_active = FALSE, updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("deactivate voucher: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("voucher", id)
	}
	return nil
}

// Count returns the number of stored vouchers.
func (r *VoucherRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM vouchers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vouchers: %w", err)
	}
	return n, nil
}

func (r *VoucherRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.Voucher, error) {
	var v domain.Voucher
	if err := r.db.QueryRow(ctx, query, args...).Scan(scanTargets(&v)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan voucher: %w", err)
	}
	v = normalize(v)
	return &v, nil
}

func scanTargets(v *domain.Voucher) []any {
	return []any{
		&v.ID, &v.Code, &v.VendorID, &v.ProductIDs, &v.DiscountPercentage,
		&v.MinPurchase, &v.MaxDiscount, &v.ExpiresAt, &v.IsActive, &v.Description,
		&v.CreatedAt, &v.UpdatedAt,
	}
}

func normalize(v domain.Voucher) domain.Voucher {
	if v.ProductIDs == nil {
		v.ProductIDs = []string{}
	}
	return v
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
