package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

const (
	eventUserCreated = "user.created"
	eventUserDeleted = "user.deleted"
)

// LifecycleHandler receives user lifecycle webhooks from the identity
// provider and hands them to the reconciler. Delivery is at-least-once, so
// the reactions behind this handler are idempotent by key.
type LifecycleHandler struct {
	reconciler *usecase.ReconcilerService
	validate   *validator.Validate
	logger     *zap.Logger
}

type lifecycleEvent struct {
	Type string        `json:"type" validate:"required,oneof=user.created user.deleted"`
	User lifecycleUser `json:"user" validate:"required"`
}

type lifecycleUser struct {
	UID   string `json:"uid" validate:"required"`
	Email string `json:"email"`
}

func NewLifecycleHandler(reconciler *usecase.ReconcilerService, logger *zap.Logger) *LifecycleHandler {
	return &LifecycleHandler{
		reconciler: reconciler,
		validate:   validator.New(),
		logger:     logger,
	}
}

// HandleEvent processes a lifecycle notification. Reconciliation failures are
// contained downstream; a non-2xx response is only returned for malformed
// payloads, so the provider never retries a contained business failure.
func (h *LifecycleHandler) HandleEvent(c echo.Context) error {
	var event lifecycleEvent
	if err := c.Bind(&event); err != nil {
		h.logger.Warn("Failed to bind lifecycle event", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Malformed event payload",
		})
	}
	if err := h.validate.Struct(&event); err != nil {
		h.logger.Warn("Rejecting invalid lifecycle event",
			zap.String("type", event.Type),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Event payload is missing required fields",
		})
	}

	h.logger.Info("Lifecycle event received",
		zap.String("type", event.Type),
		zap.String("user_id", event.User.UID))

	ctx := c.Request().Context()

	switch event.Type {
	case eventUserCreated:
		if event.User.Email == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "user.created event requires an email",
			})
		}
		if err := h.reconciler.OnUserCreated(ctx, &entity.UserAccount{
			UserID: event.User.UID,
			Email:  event.User.Email,
		}); err != nil {
			h.logger.Error("User creation reconciliation failed",
				zap.String("user_id", event.User.UID),
				zap.Error(err))
		}
	case eventUserDeleted:
		if err := h.reconciler.OnUserDeleted(ctx, event.User.UID); err != nil {
			h.logger.Error("User deletion reconciliation failed",
				zap.String("user_id", event.User.UID),
				zap.Error(err))
		}
	}

	return c.NoContent(http.StatusNoContent)
}
