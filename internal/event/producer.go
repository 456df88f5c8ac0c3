package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Topics produced by the storefront.
var (
	TopicCartRefreshed             = pkgkafka.Topic("cart", "refreshed")
	TopicPromoApplied              = pkgkafka.Topic("promo", "applied")
	TopicPromoCleared              = pkgkafka.Topic("promo", "cleared")
	TopicVoucherApplied            = pkgkafka.Topic("voucher", "applied")
	TopicVoucherDiscountCalculated = pkgkafka.Topic("voucher", "discount_calculated")
	TopicVoucherCreated            = pkgkafka.Topic("voucher", "created")
)

const (
	AggregateTypeSession = "storefront_session"
	AggregateTypeVoucher = "voucher"

	SourceStorefront = "storefront-service"
)

// CartRefreshedData is the payload of storefront.cart.refreshed.
type CartRefreshedData struct {
	UserID         string   `json:"user_id"`
	ItemCount      int      `json:"item_count"`
	SelectedIDs    []string `json:"selected_ids"`
	Subtotal       int64    `json:"subtotal"`
	Discount       int64    `json:"discount"`
	Total          int64    `json:"total"`
	Currency       string   `json:"currency,omitempty"`
	SessionVersion int      `json:"session_version"`
	Generation     int64    `json:"generation"`
	InitialLoad    bool     `json:"initial_load"`
}

// PromoAppliedData is the payload of storefront.promo.applied.
type PromoAppliedData struct {
	UserID     string           `json:"user_id"`
	Code       string           `json:"code"`
	Type       domain.PromoType `json:"type"`
	Percentage float64          `json:"percentage"`
	Amount     int64            `json:"amount"`
	Subtotal   int64            `json:"subtotal"`
	VoucherID  string           `json:"voucher_id,omitempty"`
	VendorID   string           `json:"vendor_id,omitempty"`
}

// PromoClearedData is the payload of storefront.promo.cleared. Reason is the
// failure code, or "removed" when the user cleared the discount.
type PromoClearedData struct {
	UserID string `json:"user_id"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// VoucherAppliedData is the payload of storefront.voucher.applied.
type VoucherAppliedData struct {
	UserID     string  `json:"user_id"`
	VoucherID  string  `json:"voucher_id"`
	Code       string  `json:"code"`
	VendorID   string  `json:"vendor_id"`
	Percentage float64 `json:"percentage"`
	Amount     int64   `json:"amount"`
}

// VoucherDiscountData is the payload of storefront.voucher.discount_calculated.
type VoucherDiscountData struct {
	UserID   string                  `json:"user_id"`
	Total    int64                   `json:"total"`
	Vouchers []domain.AppliedVoucher `json:"vouchers"`
}

// VoucherCreatedData is the payload of storefront.voucher.created.
type VoucherCreatedData struct {
	VoucherID          string  `json:"voucher_id"`
	Code               string  `json:"code"`
	VendorID           string  `json:"vendor_id"`
	DiscountPercentage float64 `json:"discount_percentage"`
	ExpiresAt          string  `json:"expires_at"`
}

// Publisher is the part of pkg/kafka.Producer the storefront uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a storefront event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishCartRefreshed announces a committed cart refresh.
func (p *Producer) PublishCartRefreshed(ctx context.Context, s *domain.Session, sum domain.Summary, initial bool) error {
	return p.publish(ctx, TopicCartRefreshed, s.UserID, AggregateTypeSession, CartRefreshedData{
		UserID:         s.UserID,
		ItemCount:      sum.ItemCount,
		SelectedIDs:    s.Selection.IDs(),
		Subtotal:       sum.Subtotal,
		Discount:       sum.Discount,
		Total:          sum.Total,
		Currency:       sum.Currency,
		SessionVersion: s.Version,
		Generation:     s.Generation,
		InitialLoad:    initial,
	})
}

// PublishPromoApplied announces a successful promo or voucher resolution.
func (p *Producer) PublishPromoApplied(ctx context.Context, userID string, promo *domain.AppliedPromo, subtotal int64) error {
	return p.publish(ctx, TopicPromoApplied, userID, AggregateTypeSession, PromoAppliedData{
		UserID:     userID,
		Code:       promo.Code,
		Type:       promo.Type,
		Percentage: promo.Percentage,
		Amount:     promo.Amount,
		Subtotal:   subtotal,
		VoucherID:  promo.VoucherID,
		VendorID:   promo.VendorID,
	})
}

// PublishPromoCleared announces that the promo discount was reset.
func (p *Producer) PublishPromoCleared(ctx context.Context, userID, code, reason string) error {
	return p.publish(ctx, TopicPromoCleared, userID, AggregateTypeSession, PromoClearedData{
		UserID: userID,
		Code:   code,
		Reason: reason,
	})
}

// PublishVoucherApplied announces a seller voucher attached in seller-voucher mode.
func (p *Producer) PublishVoucherApplied(ctx context.Context, userID string, v domain.AppliedVoucher) error {
	return p.publish(ctx, TopicVoucherApplied, userID, AggregateTypeSession, VoucherAppliedData{
		UserID:     userID,
		VoucherID:  v.VoucherID,
		Code:       v.Code,
		VendorID:   v.VendorID,
		Percentage: v.Percentage,
		Amount:     v.Amount,
	})
}

// PublishVoucherDiscountCalculated announces a recomputed seller voucher total.
func (p *Producer) PublishVoucherDiscountCalculated(ctx context.Context, userID string, total int64, vouchers []domain.AppliedVoucher) error {
	if vouchers == nil {
		vouchers = []domain.AppliedVoucher{}
	}
	return p.publish(ctx, TopicVoucherDiscountCalculated, userID, AggregateTypeSession, VoucherDiscountData{
		UserID:   userID,
		Total:    total,
		Vouchers: vouchers,
	})
}

// PublishVoucherCreated announces a new voucher.
func (p *Producer) PublishVoucherCreated(ctx context.Context, v *domain.Voucher) error {
	return p.publish(ctx, TopicVoucherCreated, v.ID, AggregateTypeVoucher, VoucherCreatedData{
		VoucherID:          v.ID,
		Code:               v.Code,
		VendorID:           v.VendorID,
		DiscountPercentage: v.DiscountPercentage,
		ExpiresAt:          v.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)
	return nil
}
