package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

func newVoucherService(vs ...*domain.Voucher) (*VoucherService, *memVoucherRepo, *recordingPublisher) {
	repo := newMemVoucherRepo(vs...)
	events := &recordingPublisher{}
	return NewVoucherService(repo, events, newTestLogger()), repo, events
}

func validVoucherInput() CreateVoucherInput {
	return CreateVoucherInput{
		Code:               "summer-15",
		VendorID:           "007",
		ProductIDs:         []domain.FlexID{"12", " 013 "},
		DiscountPercentage: 15,
		MinPurchase:        100,
		MaxDiscount:        50,
		ExpiresAt:          time.Now().Add(48 * time.Hour),
		Description:        "  summer sale ",
	}
}

func TestCreateVoucher_Success(t *testing.T) {
	svc, _, events := newVoucherService()

	v, err := svc.CreateVoucher(context.Background(), validVoucherInput())
	require.NoError(t, err)

	_, parseErr := uuid.Parse(v.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "SUMMER-15", v.Code)
	assert.Equal(t, "7", v.VendorID)
	assert.Equal(t, []string{"12", "13"}, v.ProductIDs)
	assert.Equal(t, "summer sale", v.Description)
	assert.True(t, v.IsActive)
	assert.Equal(t, []string{"voucher.created"}, events.names())
}

func TestCreateVoucher_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *CreateVoucherInput)
	}{
		{"short code", func(in *CreateVoucherInput) { in.Code = "AB" }},
		{"bad characters", func(in *CreateVoucherInput) { in.Code = "SAVE 10" }},
		{"missing vendor", func(in *CreateVoucherInput) { in.VendorID = "" }},
		{"zero percentage", func(in *CreateVoucherInput) { in.DiscountPercentage = 0 }},
		{"percentage over 100", func(in *CreateVoucherInput) { in.DiscountPercentage = 100.5 }},
		{"negative minimum", func(in *CreateVoucherInput) { in.MinPurchase = -1 }},
		{"expired", func(in *CreateVoucherInput) { in.ExpiresAt = time.Now().Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newVoucherService()
			in := validVoucherInput()
			tt.modify(&in)

			_, err := svc.CreateVoucher(context.Background(), in)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			n, _ := repo.Count(context.Background())
			assert.Zero(t, n)
		})
	}
}

func TestCreateVoucher_DuplicateCode(t *testing.T) {
	svc, _, _ := newVoucherService()
	ctx := context.Background()
	_, err := svc.CreateVoucher(ctx, validVoucherInput())
	require.NoError(t, err)

	in := validVoucherInput()
	in.Code = "SUMMER-15"
	_, err = svc.CreateVoucher(ctx, in)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestGetVoucher(t *testing.T) {
	svc, _, _ := newVoucherService()
	ctx := context.Background()
	created, err := svc.CreateVoucher(ctx, validVoucherInput())
	require.NoError(t, err)

	got, err := svc.GetVoucher(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Code, got.Code)

	_, err = svc.GetVoucher(ctx, "not-a-uuid")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = svc.GetVoucher(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeactivateVoucher(t *testing.T) {
	svc, _, _ := newVoucherService()
	ctx := context.Background()
	created, err := svc.CreateVoucher(ctx, validVoucherInput())
	require.NoError(t, err)

	v, err := svc.DeactivateVoucher(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, v.IsActive)
	assert.False(t, v.IsValid(time.Now()))
}

func TestListVouchers_FiltersByVendor(t *testing.T) {
	svc, _, _ := newVoucherService(voucher("A7", "7", 10), voucher("B7", "7", 5), voucher("C8", "8", 5))

	res, err := svc.ListVouchers(context.Background(), ListVouchersInput{VendorID: "7"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, pagination.DefaultPerPage, res.PerPage)
}

func TestSeedSampleVouchers(t *testing.T) {
	svc, repo, _ := newVoucherService()
	ctx := context.Background()
	items := []domain.CartItem{
		item("1", "10", "7", 100, 1),
		item("2", "11", "7", 100, 1),
		item("3", "10", "7", 100, 2),
		item("4", "x y", "8", 100, 1),
	}

	n, err := svc.SeedSampleVouchers(ctx, items)
	require.NoError(t, err)
	// VENDOR7OFF, PROD10SPECIAL, PROD11SPECIAL, VENDOR8OFF; "x y" is not a valid code.
	assert.Equal(t, 4, n)

	v, err := repo.GetByCode(ctx, "VENDOR7OFF")
	require.NoError(t, err)
	assert.Equal(t, 10.0, v.DiscountPercentage)
	assert.Equal(t, int64(50), v.MaxDiscount)
	assert.Equal(t, int64(100), v.MinPurchase)
	assert.Empty(t, v.ProductIDs)

	p, err := repo.GetByCode(ctx, "PROD10SPECIAL")
	require.NoError(t, err)
	assert.Equal(t, 15.0, p.DiscountPercentage)
	assert.Equal(t, []string{"10"}, p.ProductIDs)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), p.ExpiresAt, time.Minute)

	// A populated store is left alone.
	n, err = svc.SeedSampleVouchers(ctx, []domain.CartItem{item("9", "99", "9", 1, 1)})
	require.NoError(t, err)
	assert.Zero(t, n)
}
