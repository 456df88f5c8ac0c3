package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// VoucherHandler handles HTTP requests for voucher administration.
type VoucherHandler struct {
	service *service.VoucherService
	logger  *slog.Logger
}

// NewVoucherHandler creates a new voucher HTTP handler.
func NewVoucherHandler(svc *service.VoucherService, logger *slog.Logger) *VoucherHandler {
	return &VoucherHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateVoucher handles POST /api/v1/vouchers
func (h *VoucherHandler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	var req service.CreateVoucherInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	v, err := h.service.CreateVoucher(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, v)
}

// ListVouchers handles GET /api/v1/vouchers
func (h *VoucherHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	res, err := h.service.ListVouchers(r.Context(), service.ListVouchersInput{
		VendorID:   r.URL.Query().Get("vendor_id"),
		ActiveOnly: activeOnly,
		Page:       p.Page,
		PerPage:    p.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// GetVoucher handles GET /api/v1/vouchers/{id}
func (h *VoucherHandler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetVoucher(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}

// DeactivateVoucher handles POST /api/v1/vouchers/{id}/deactivate
func (h *VoucherHandler) DeactivateVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.DeactivateVoucher(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}
