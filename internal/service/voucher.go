package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

var voucherCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,64}$`)

// Sample voucher terms created by SeedSampleVouchers.
const (
	sampleVendorPct         = 10
	sampleVendorMaxDiscount = 50
	sampleVendorMinPurchase = 100
	sampleVendorTTL         = 30 * 24 * time.Hour

	sampleProductPct = 15
	sampleProductTTL = 7 * 24 * time.Hour
)

// CreateVoucherInput holds the parameters for creating a voucher.
type CreateVoucherInput struct {
	Code               string          `json:"code" validate:"required,min=3,max=64"`
	VendorID           domain.FlexID   `json:"vendor_id" validate:"required"`
	ProductIDs         []domain.FlexID `json:"product_ids"`
	DiscountPercentage float64         `json:"discount_percentage" validate:"gt=0,lte=100"`
	MinPurchase        int64           `json:"min_purchase" validate:"gte=0"`
	MaxDiscount        int64           `json:"max_discount" validate:"gte=0"`
	ExpiresAt          time.Time       `json:"expires_at" validate:"required"`
	Description        string          `json:"description" validate:"max=500"`
}

// ListVouchersInput filters a voucher listing.
type ListVouchersInput struct {
	VendorID   string
	ActiveOnly bool
	Page       int
	PerPage    int
}

// VoucherService manages seller vouchers.
type VoucherService struct {
	repo   repository.VoucherRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewVoucherService creates a voucher service.
func NewVoucherService(repo repository.VoucherRepository, events EventPublisher, logger *slog.Logger) *VoucherService {
	return &VoucherService{repo: repo, events: events, logger: logger, now: time.Now}
}

// CreateVoucher validates and stores a voucher. Codes are upper-cased and
// must be unique.
func (s *VoucherService) CreateVoucher(ctx context.Context, input CreateVoucherInput) (*domain.Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if !voucherCodePattern.MatchString(code) {
		return nil, apperrors.InvalidInput("code must be 3-64 characters of A-Z, 0-9, '-' or '_'")
	}
	vendorID := domain.NormalizeID(string(input.VendorID))
	if vendorID == "" {
		return nil, apperrors.InvalidInput("vendor id is required")
	}
	if input.DiscountPercentage <= 0 || input.DiscountPercentage > 100 {
		return nil, apperrors.InvalidInput("discount percentage must be within (0, 100]")
	}
	if input.MinPurchase < 0 || input.MaxDiscount < 0 {
		return nil, apperrors.InvalidInput("minimum purchase and maximum discount must not be negative")
	}
	now := s.now().UTC()
	if !input.ExpiresAt.After(now) {
		return nil, apperrors.InvalidInput("expiry must be in the future")
	}

	products := make([]string, 0, len(input.ProductIDs))
	for _, p := range input.ProductIDs {
		if id := domain.NormalizeID(string(p)); id != "" {
			products = append(products, id)
		}
	}

	v := &domain.Voucher{
		ID:                 uuid.NewString(),
		Code:               code,
		VendorID:           vendorID,
		ProductIDs:         products,
		DiscountPercentage: input.DiscountPercentage,
		MinPurchase:        input.MinPurchase,
		MaxDiscount:        input.MaxDiscount,
		ExpiresAt:          input.ExpiresAt.UTC(),
		IsActive:           true,
		Description:        strings.TrimSpace(input.Description),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create voucher: %w", err)
	}

	if err := s.events.PublishVoucherCreated(ctx, v); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish voucher.created event",
			slog.String("voucher_id", v.ID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "voucher created",
		slog.String("voucher_id", v.ID),
		slog.String("code", v.Code),
		slog.String("vendor_id", v.VendorID),
	)
	return v, nil
}

// GetVoucher returns a voucher by id.
func (s *VoucherService) GetVoucher(ctx context.Context, id string) (*domain.Voucher, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("voucher", id)
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return v, nil
}

// ListVouchers returns one page of vouchers.
func (s *VoucherService) ListVouchers(ctx context.Context, input ListVouchersInput) (pagination.Result[domain.Voucher], error) {
	p := pagination.New(input.Page, input.PerPage)
	vouchers, total, err := s.repo.List(ctx, domain.VoucherFilter{
		VendorID:   domain.NormalizeID(input.VendorID),
		ActiveOnly: input.ActiveOnly,
		Page:       p.Page,
		PerPage:    p.PerPage,
	})
	if err != nil {
		return pagination.Result[domain.Voucher]{}, fmt.Errorf("list vouchers: %w", err)
	}
	return pagination.NewResult(vouchers, total, p), nil
}

// DeactivateVoucher disables a voucher. Sessions drop it on their next
// recalculation.
func (s *VoucherService) DeactivateVoucher(ctx context.Context, id string) (*domain.Voucher, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("voucher", id)
	}
	if err := s.repo.Deactivate(ctx, id, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("deactivate voucher: %w", err)
	}
	s.logger.InfoContext(ctx, "voucher deactivated", slog.String("voucher_id", id))
	return s.GetVoucher(ctx, id)
}

// SeedSampleVouchers fills an empty voucher store with demo vouchers for the
// given cart: one store-wide voucher per vendor and one product voucher per
// product. It does nothing once any voucher exists.
func (s *VoucherService) SeedSampleVouchers(ctx context.Context, items []domain.CartItem) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count vouchers: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	now := s.now().UTC()
	var inputs []CreateVoucherInput
	vendors := map[string]bool{}
	products := map[string]bool{}
	for _, it := range items {
		if it.VendorID == "" {
			continue
		}
		if !vendors[it.VendorID] {
			vendors[it.VendorID] = true
			inputs = append(inputs, CreateVoucherInput{
				Code:               "VENDOR" + it.VendorID + "OFF",
				VendorID:           domain.FlexID(it.VendorID),
				DiscountPercentage: sampleVendorPct,
				MaxDiscount:        sampleVendorMaxDiscount,
				MinPurchase:        sampleVendorMinPurchase,
				ExpiresAt:          now.Add(sampleVendorTTL),
				Description:        fmt.Sprintf("%d%% off all products from %s", sampleVendorPct, it.SellerLabel()),
			})
		}
		if it.ProductID != "" && !products[it.ProductID] {
			products[it.ProductID] = true
			inputs = append(inputs, CreateVoucherInput{
				Code:               "PROD" + it.ProductID + "SPECIAL",
				VendorID:           domain.FlexID(it.VendorID),
				ProductIDs:         []domain.FlexID{domain.FlexID(it.ProductID)},
				DiscountPercentage: sampleProductPct,
				ExpiresAt:          now.Add(sampleProductTTL),
				Description:        fmt.Sprintf("%d%% off %s", sampleProductPct, it.DisplayName()),
			})
		}
	}

	created := 0
	for _, in := range inputs {
		if _, err := s.CreateVoucher(ctx, in); err != nil {
			if errors.Is(err, apperrors.ErrAlreadyExists) || errors.Is(err, apperrors.ErrInvalidInput) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
