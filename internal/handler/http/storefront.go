package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// StorefrontHandler handles HTTP requests for the storefront session.
type StorefrontHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(svc *service.StorefrontService, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: svc,
		logger:  logger,
	}
}

// RefreshRequest is the optional JSON body of a refresh. An omitted
// preserve_selections keeps the current selection.
type RefreshRequest struct {
	PreserveSelections    *bool `json:"preserve_selections"`
	SuppressNotifications bool  `json:"suppress_notifications"`
}

// GetSession handles GET /api/v1/storefront/session
func (h *StorefrontHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetSession(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.respond(w, r, v, err)
}

// Refresh handles POST /api/v1/storefront/session/refresh
func (h *StorefrontHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	opts := service.DefaultRefreshOptions()
	if r.ContentLength != 0 {
		var req RefreshRequest
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, r, err)
			return
		}
		if req.PreserveSelections != nil {
			opts.PreserveSelections = *req.PreserveSelections
		}
		opts.SuppressNotifications = req.SuppressNotifications
	}

	v, err := h.service.Refresh(r.Context(), middleware.UserIDFromContext(r.Context()), opts)
	h.respond(w, r, v, err)
}

// AddItem handles POST /api/v1/storefront/items
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	v, err := h.service.AddItem(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	h.respond(w, r, v, err)
}

// UpdateQuantity handles PUT /api/v1/storefront/items/{itemId}
func (h *StorefrontHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateQuantityInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	v, err := h.service.UpdateQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"), req.Quantity)
	h.respond(w, r, v, err)
}

// RemoveItem handles DELETE /api/v1/storefront/items/{itemId}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"))
	h.respond(w, r, v, err)
}

// ClearCart handles DELETE /api/v1/storefront/items
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.ClearCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.respond(w, r, v, err)
}

// ToggleSelect handles POST /api/v1/storefront/selection/{itemId}/toggle
func (h *StorefrontHandler) ToggleSelect(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.ToggleSelect(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"))
	h.respond(w, r, v, err)
}

// SelectAll handles POST /api/v1/storefront/selection/all
func (h *StorefrontHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.SelectAll(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.respond(w, r, v, err)
}

// ClearSelection handles DELETE /api/v1/storefront/selection
func (h *StorefrontHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.ClearSelection(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.respond(w, r, v, err)
}

// ApplyPromo handles POST /api/v1/storefront/promo
func (h *StorefrontHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req service.ApplyCodeInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	v, err := h.service.ApplyPromo(r.Context(), middleware.UserIDFromContext(r.Context()), req.Code)
	h.respond(w, r, v, err)
}

// RemovePromo handles DELETE /api/v1/storefront/promo
func (h *StorefrontHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.RemovePromo(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.respond(w, r, v, err)
}

// SetSellerVoucherMode handles PUT /api/v1/storefront/seller-vouchers/mode
func (h *StorefrontHandler) SetSellerVoucherMode(w http.ResponseWriter, r *http.Request) {
	var req service.SellerVoucherModeInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	v, err := h.service.SetSellerVoucherMode(r.Context(), middleware.UserIDFromContext(r.Context()), *req.Enabled)
	h.respond(w, r, v, err)
}

// ApplySellerVoucher handles POST /api/v1/storefront/seller-vouchers
func (h *StorefrontHandler) ApplySellerVoucher(w http.ResponseWriter, r *http.Request) {
	var req service.ApplyCodeInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	v, err := h.service.ApplySellerVoucher(r.Context(), middleware.UserIDFromContext(r.Context()), req.Code)
	h.respond(w, r, v, err)
}

// RemoveSellerVoucher handles DELETE /api/v1/storefront/seller-vouchers/{vendorId}
func (h *StorefrontHandler) RemoveSellerVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.RemoveSellerVoucher(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "vendorId"))
	h.respond(w, r, v, err)
}

// ListProducts handles GET /api/v1/storefront/products
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	res, err := h.service.ListProducts(r.Context(), p.Page, p.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// GetProduct handles GET /api/v1/storefront/products/{productId}
func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

func (h *StorefrontHandler) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, data)
}
