package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	domainErrors "github.com/james-reichert/cccfunctions/internal/domain/errors"
	"github.com/james-reichert/cccfunctions/internal/domain/provider"
	"github.com/james-reichert/cccfunctions/internal/domain/repository"
)

// Annotation text for payloads that fail boundary validation. Validation
// detail stays in the logs; the document gets a stable user-facing message.
const (
	msgInvalidToken  = "Payment token is missing required fields."
	msgInvalidCharge = "Charge request is missing required fields."
	msgNoCustomer    = "No billing account found for this user."
)

// ReconcilerService reacts to lifecycle events by calling the remote payment
// processor and persisting the result, or an error annotation, back into the
// document store. Every reaction is independent and stateless: it re-reads
// what it needs on each invocation.
//
// Processor failures are contained at the reaction boundary: the triggering
// document is annotated and the reaction returns nil, so the hosting
// dispatcher never treats a business failure (e.g. a card decline) as a
// retryable system failure. Document store failures are returned to the
// caller, which logs them and moves on.
type ReconcilerService struct {
	users     repository.UserAccountRepository
	customers repository.CustomerRecordRepository
	tokens    repository.PaymentTokenRepository
	charges   repository.ChargeRequestRepository
	processor provider.PaymentProvider
	validate  *validator.Validate
	logger    *zap.Logger

	defaultCurrency string
	transferPercent int64
}

// NewReconcilerService creates a new reconciler. The processor client and
// repositories are constructed once at process start and injected here.
func NewReconcilerService(
	users repository.UserAccountRepository,
	customers repository.CustomerRecordRepository,
	tokens repository.PaymentTokenRepository,
	charges repository.ChargeRequestRepository,
	processor provider.PaymentProvider,
	logger *zap.Logger,
	defaultCurrency string,
	transferPercent int64,
) *ReconcilerService {
	return &ReconcilerService{
		users:           users,
		customers:       customers,
		tokens:          tokens,
		charges:         charges,
		processor:       processor,
		validate:        validator.New(),
		logger:          logger,
		defaultCurrency: defaultCurrency,
		transferPercent: transferPercent,
	}
}

// OnUserCreated provisions a remote customer record for a new user and
// persists the assigned customer id. Duplicate delivery is a no-op: a
// customer id, once assigned, is never reassigned.
func (s *ReconcilerService) OnUserCreated(ctx context.Context, user *entity.UserAccount) error {
	if err := s.validate.Struct(user); err != nil {
		return fmt.Errorf("invalid user payload: %w", err)
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to persist user account: %w", err)
	}

	existing, err := s.customers.GetByUserID(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("failed to read customer record: %w", err)
	}
	if existing != nil && existing.CustomerID != "" {
		s.logger.Info("Customer already provisioned, skipping",
			zap.String("user_id", user.UserID),
			zap.String("customer_id", existing.CustomerID))
		return nil
	}

	cust, err := s.processor.CreateCustomer(ctx, user.Email)
	if err != nil {
		s.logger.Error("Failed to create remote customer",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		if annotateErr := s.customers.SetError(ctx, user.UserID, userMessage(err)); annotateErr != nil {
			return fmt.Errorf("failed to annotate customer record: %w", annotateErr)
		}
		return nil
	}

	if err := s.customers.SetCustomerID(ctx, user.UserID, cust.ID); err != nil {
		return fmt.Errorf("failed to persist customer id: %w", err)
	}

	s.logger.Info("Customer provisioned",
		zap.String("user_id", user.UserID),
		zap.String("customer_id", cust.ID))
	return nil
}

// OnUserDeleted removes the remote customer and the local customer record.
// A missing record or an already-deleted remote customer is a defensive
// no-op, so repeated delivery of the same deletion is graceful.
func (s *ReconcilerService) OnUserDeleted(ctx context.Context, userID string) error {
	record, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read customer record: %w", err)
	}
	if record == nil {
		s.logger.Warn("No customer record for deleted user",
			zap.String("user_id", userID))
		return s.users.Delete(ctx, userID)
	}

	if record.CustomerID != "" {
		err := s.processor.DeleteCustomer(ctx, record.CustomerID)
		switch {
		case errors.Is(err, provider.ErrCustomerGone):
			s.logger.Warn("Remote customer already deleted",
				zap.String("user_id", userID),
				zap.String("customer_id", record.CustomerID))
		case err != nil:
			s.logger.Error("Failed to delete remote customer",
				zap.String("user_id", userID),
				zap.String("customer_id", record.CustomerID),
				zap.Error(err))
			if annotateErr := s.customers.SetError(ctx, userID, userMessage(err)); annotateErr != nil {
				return fmt.Errorf("failed to annotate customer record: %w", annotateErr)
			}
			return nil
		}
	}

	if err := s.customers.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete customer record: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user account: %w", err)
	}

	s.logger.Info("Customer deprovisioned", zap.String("user_id", userID))
	return nil
}

// OnPaymentTokenAdded attaches a client-side token to the user's remote
// customer as a payment method and makes it the default. Any failure is
// written onto the triggering token document and swallowed.
func (s *ReconcilerService) OnPaymentTokenAdded(ctx context.Context, token *entity.PaymentMethodToken) error {
	if err := s.validate.Struct(token); err != nil {
		s.logger.Warn("Rejecting invalid payment token payload",
			zap.String("push_id", token.PushID),
			zap.Error(err))
		if token.PushID == "" {
			return nil
		}
		return s.tokens.SetError(ctx, token.PushID, msgInvalidToken)
	}

	record, err := s.customers.GetByUserID(ctx, token.UserID)
	if err != nil {
		return fmt.Errorf("failed to read customer record: %w", err)
	}
	if record == nil || record.CustomerID == "" {
		s.logger.Warn("Payment token added for user without customer record",
			zap.String("user_id", token.UserID),
			zap.String("push_id", token.PushID))
		return s.tokens.SetError(ctx, token.PushID, msgNoCustomer)
	}

	pmID, err := s.processor.AttachPaymentMethod(ctx, token.Token, record.CustomerID)
	if err != nil {
		s.logger.Error("Failed to attach payment method",
			zap.String("user_id", token.UserID),
			zap.String("push_id", token.PushID),
			zap.Error(err))
		return s.tokens.SetError(ctx, token.PushID, userMessage(err))
	}

	if err := s.tokens.SetPaymentMethodID(ctx, token.PushID, pmID); err != nil {
		return fmt.Errorf("failed to record payment method id: %w", err)
	}

	if err := s.SetDefaultPaymentMethod(ctx, record.CustomerID, pmID, token.UserID); err != nil {
		s.logger.Error("Failed to set default payment method",
			zap.String("user_id", token.UserID),
			zap.String("payment_method_id", pmID),
			zap.Error(err))
		return s.tokens.SetError(ctx, token.PushID, userMessage(err))
	}

	s.logger.Info("Payment method attached",
		zap.String("user_id", token.UserID),
		zap.String("payment_method_id", pmID))
	return nil
}

// SetDefaultPaymentMethod updates the remote customer's default payment
// method and merges the response onto the customer record. Callers contain
// the returned error; this method does not annotate.
func (s *ReconcilerService) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID, userID string) error {
	cust, err := s.processor.UpdateDefaultPaymentMethod(ctx, customerID, paymentMethodID)
	if err != nil {
		return err
	}

	merged := cust.DefaultPaymentMethod
	if merged == "" {
		merged = paymentMethodID
	}
	if err := s.customers.SetDefaultPaymentMethod(ctx, userID, merged); err != nil {
		return fmt.Errorf("failed to merge invoice settings: %w", err)
	}
	return nil
}

// OnDefaultPaymentMethodFieldChanged reacts to an update of the customer
// record document. Redundant writes (field unchanged) are a no-op with zero
// remote calls, which also breaks the feedback loop caused by this reaction's
// own merge write. A nil before means no pre-image was delivered; without it
// a real change cannot be told apart from a redundant write, so the event is
// treated as unchanged rather than re-opening that loop.
func (s *ReconcilerService) OnDefaultPaymentMethodFieldChanged(ctx context.Context, before, after *entity.CustomerRecord) error {
	if before == nil || after == nil {
		return nil
	}

	newMethod := after.InvoiceSettings.DefaultPaymentMethod
	if before.InvoiceSettings.DefaultPaymentMethod == newMethod {
		return nil
	}
	if newMethod == "" || after.CustomerID == "" {
		return nil
	}

	if err := s.SetDefaultPaymentMethod(ctx, after.CustomerID, newMethod, after.UserID); err != nil {
		s.logger.Error("Failed to reconcile default payment method",
			zap.String("user_id", after.UserID),
			zap.String("payment_method_id", newMethod),
			zap.Error(err))
		return s.customers.SetError(ctx, after.UserID, userMessage(err))
	}
	return nil
}

// OnChargeRequested submits a charge for the user's customer, keyed by the
// charge id so redelivered events can never double-charge. The charge routes
// a transfer split to the request's destination account; the remainder is
// retained as the platform fee. Results and failures are merged onto the
// charge request document.
func (s *ReconcilerService) OnChargeRequested(ctx context.Context, req *entity.ChargeRequest) error {
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("Rejecting invalid charge request payload",
			zap.String("charge_id", req.ChargeID),
			zap.Error(err))
		if req.ChargeID == "" {
			return nil
		}
		return s.charges.SetError(ctx, req.ChargeID, msgInvalidCharge)
	}

	record, err := s.customers.GetByUserID(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to read customer record: %w", err)
	}
	if record == nil || record.CustomerID == "" {
		s.logger.Warn("Charge requested for user without customer record",
			zap.String("user_id", req.UserID),
			zap.String("charge_id", req.ChargeID))
		return s.charges.SetError(ctx, req.ChargeID, msgNoCustomer)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	charge, err := s.processor.CreateCharge(ctx, &provider.ChargeRequest{
		Amount:         req.Amount,
		Currency:       currency,
		CustomerID:     record.CustomerID,
		Source:         req.Source,
		IdempotencyKey: req.ChargeID,
		TransferAmount: s.transferAmount(req.Amount),
		TransferDest:   req.DestinationID,
	})
	if err != nil {
		s.logger.Error("Charge failed",
			zap.String("user_id", req.UserID),
			zap.String("charge_id", req.ChargeID),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		return s.charges.SetError(ctx, req.ChargeID, userMessage(err))
	}

	result := &entity.ChargeResult{
		ProcessorChargeID: charge.ID,
		Status:            charge.Status,
		Amount:            charge.Amount,
		Currency:          charge.Currency,
		TransferAmount:    charge.TransferAmount,
		TransferDest:      charge.TransferDest,
	}
	if err := s.charges.SetResult(ctx, req.ChargeID, result); err != nil {
		return fmt.Errorf("failed to merge charge result: %w", err)
	}

	s.logger.Info("Charge submitted",
		zap.String("user_id", req.UserID),
		zap.String("charge_id", req.ChargeID),
		zap.String("processor_charge_id", charge.ID),
		zap.Int64("amount", charge.Amount),
		zap.Int64("transfer_amount", charge.TransferAmount))
	return nil
}

// RemovePaymentMethod detaches the payment method remotely and deletes the
// consumed token document. Fire-and-forget: failures are logged by the
// caller and never surfaced to the invoking client.
func (s *ReconcilerService) RemovePaymentMethod(ctx context.Context, paymentMethodID, userID string) error {
	err := s.processor.DetachPaymentMethod(ctx, paymentMethodID)
	switch {
	case errors.Is(err, provider.ErrPaymentMethodGone):
		s.logger.Warn("Payment method already detached",
			zap.String("user_id", userID),
			zap.String("payment_method_id", paymentMethodID))
	case err != nil:
		s.logger.Error("Failed to detach payment method",
			zap.String("user_id", userID),
			zap.String("payment_method_id", paymentMethodID),
			zap.Error(err))
		return nil
	}

	token, err := s.tokens.GetByPaymentMethodID(ctx, userID, paymentMethodID)
	if err != nil {
		return fmt.Errorf("failed to look up token document: %w", err)
	}
	if token == nil {
		return domainErrors.ErrTokenNotFound
	}
	if err := s.tokens.Delete(ctx, token.PushID); err != nil {
		return fmt.Errorf("failed to delete token document: %w", err)
	}

	s.logger.Info("Payment method removed",
		zap.String("user_id", userID),
		zap.String("payment_method_id", paymentMethodID))
	return nil
}

// ListPaymentMethods returns the user's remote customer view, including the
// attached payment sources and the default payment method. A user without a
// provisioned customer yields ErrCustomerRecordNotFound.
func (s *ReconcilerService) ListPaymentMethods(ctx context.Context, userID string) (*provider.Customer, error) {
	record, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer record: %w", err)
	}
	if record == nil || record.CustomerID == "" {
		return nil, domainErrors.ErrCustomerRecordNotFound
	}

	cust, err := s.processor.RetrieveCustomer(ctx, record.CustomerID)
	if err != nil {
		return nil, err
	}
	return cust, nil
}

// transferAmount computes the destination's share of a charge, rounded down
// to the smallest currency unit.
func (s *ReconcilerService) transferAmount(amount int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(s.transferPercent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

// userMessage maps a processor error to its user-visible annotation text.
// Card-level failures surface verbatim; internal errors are replaced with a
// generic message so no implementation detail leaks into the store.
func userMessage(err error) string {
	var pErr *provider.ProviderError
	if errors.As(err, &pErr) {
		return pErr.UserMessage()
	}
	return provider.GenericErrorMessage
}
