package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/james-reichert/cccfunctions/internal/domain/errors"
	"github.com/james-reichert/cccfunctions/internal/domain/provider"
	"github.com/james-reichert/cccfunctions/internal/middleware/auth"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

// PaymentMethodHandler exposes the directly-invoked payment method removal.
type PaymentMethodHandler struct {
	reconciler *usecase.ReconcilerService
	logger     *zap.Logger
}

func NewPaymentMethodHandler(reconciler *usecase.ReconcilerService, logger *zap.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// List returns the caller's attached payment methods and current default.
func (h *PaymentMethodHandler) List(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already wrote the 401 response
	}

	cust, err := h.reconciler.ListPaymentMethods(c.Request().Context(), user.UserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrCustomerRecordNotFound) || errors.Is(err, provider.ErrCustomerGone) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "No billing account found for this user",
			})
		}
		h.logger.Error("Failed to list payment methods",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list payment methods",
		})
	}

	methods := cust.PaymentSources
	if methods == nil {
		methods = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"default_payment_method": cust.DefaultPaymentMethod,
		"payment_methods":        methods,
	})
}

// Remove detaches the caller's payment method. Fire-and-forget: the response
// is 204 regardless of downstream outcome, failures are logged only.
func (h *PaymentMethodHandler) Remove(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already wrote the 401 response
	}

	paymentMethodID := c.Param("id")
	if paymentMethodID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Payment method id is required",
		})
	}

	h.logger.Info("Removing payment method",
		zap.String("user_id", user.UserID),
		zap.String("payment_method_id", paymentMethodID))

	if err := h.reconciler.RemovePaymentMethod(c.Request().Context(), paymentMethodID, user.UserID); err != nil {
		if errors.Is(err, domainErrors.ErrTokenNotFound) {
			h.logger.Warn("No token document for detached payment method",
				zap.String("user_id", user.UserID),
				zap.String("payment_method_id", paymentMethodID))
		} else {
			h.logger.Error("Payment method removal failed",
				zap.String("user_id", user.UserID),
				zap.String("payment_method_id", paymentMethodID),
				zap.Error(err))
		}
	}

	return c.NoContent(http.StatusNoContent)
}
