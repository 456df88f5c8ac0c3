package event

import (
	"context"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Topics the storefront consumes.
const (
	// TopicCartUpdated is emitted by the backend whenever a user's cart changes.
	TopicCartUpdated = "ecommerce.cart.updated"
)

// TopicRefreshRequested asks the storefront to refetch a user's cart.
var TopicRefreshRequested = pkgkafka.Topic("cart", "refresh_requested")

// ConsumedTopics lists every topic the handler understands.
func ConsumedTopics() []string {
	return []string{TopicCartUpdated, TopicRefreshRequested}
}

// RefreshRequestedData is the payload of storefront.cart.refresh_requested.
// PreserveSelections defaults to true.
type RefreshRequestedData struct {
	UserID             string `json:"user_id"`
	PreserveSelections *bool  `json:"preserve_selections,omitempty"`
}

type cartUpdatedData struct {
	UserID string `json:"user_id"`
}

// Refresher is implemented by the storefront service.
type Refresher interface {
	RefreshFromEvent(ctx context.Context, userID string, preserveSelections bool) error
}

// Handler routes consumed events to a background cart refresh.
type Handler struct {
	refresher Refresher
	logger    *slog.Logger
}

// NewHandler creates an event handler.
func NewHandler(refresher Refresher, logger *slog.Logger) *Handler {
	return &Handler{refresher: refresher, logger: logger}
}

// Handle implements pkg/kafka.Handler. Events without a user id are dropped.
func (h *Handler) Handle(ctx context.Context, e *pkgkafka.Event) error {
	var (
		userID   string
		preserve = true
	)
	switch e.EventType {
	case TopicCartUpdated, "cart.updated":
		var d cartUpdatedData
		if err := e.UnmarshalData(&d); err != nil {
			h.logger.WarnContext(ctx, "dropping malformed cart.updated event",
				slog.String("event_id", e.EventID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		userID = d.UserID
	case TopicRefreshRequested:
		var d RefreshRequestedData
		if err := e.UnmarshalData(&d); err != nil {
			h.logger.WarnContext(ctx, "dropping malformed refresh request",
				slog.String("event_id", e.EventID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		userID = d.UserID
		if d.PreserveSelections != nil {
			preserve = *d.PreserveSelections
		}
	default:
		h.logger.DebugContext(ctx, "ignoring event", slog.String("event_type", e.EventType))
		return nil
	}

	if userID == "" {
		h.logger.WarnContext(ctx, "dropping event without user id",
			slog.String("event_id", e.EventID),
			slog.String("event_type", e.EventType),
		)
		return nil
	}

	ctx = middleware.WithIdentity(ctx, userID, "")
	ctx = logger.WithUserID(ctx, userID)
	if e.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, e.CorrelationID)
	}
	return h.refresher.RefreshFromEvent(ctx, userID, preserve)
}
