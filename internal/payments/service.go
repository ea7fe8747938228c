package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// CallbackEnvelope is the body Safaricom posts to the callback URL.
type CallbackEnvelope struct {
	Body CallbackBody `json:"Body"`
}

type CallbackBody struct {
	STKCallback *STKCallback `json:"stkCallback"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem values arrive as strings or numbers depending on the field.
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

// Service owns the payment flows: opening intents, folding in provider
// callbacks, and answering status polls.
type Service struct {
	store  IntentStore
	daraja *DarajaClient
	logger *slog.Logger
	newRef func() string
}

// NewService wires the payment flows together.
func NewService(store IntentStore, daraja *DarajaClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		daraja: daraja,
		logger: logger,
		newRef: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
		},
	}
}

// Deposit starts an M-Pesa STK push deposit. On provider acceptance a
// pending intent is stored under the checkout reference and returned; the
// phone confirms or rejects asynchronously via the callback.
func (s *Service) Deposit(ctx context.Context, amount float64, phone string) (Result, error) {
	if amount <= 0 || phone == "" {
		return Result{}, fmt.Errorf("%w: amount and phone required", ErrValidation)
	}
	if !s.daraja.Configured() {
		return Result{}, fmt.Errorf("%w: daraja credentials not configured", ErrValidation)
	}
	reference, err := s.daraja.STKPush(ctx, amount, phone)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			s.logger.Warn("stk push rejected", "error", provErr.Description)
			return Result{Status: StatusFailed, Error: provErr.Description}, err
		}
		return Result{Status: StatusFailed}, err
	}
	intent := Intent{
		Reference: reference,
		Kind:      KindMpesaDeposit,
		Amount:    amount,
		Phone:     phone,
		Status:    StatusPending,
	}
	if err := s.store.Create(ctx, intent); err != nil {
		return Result{}, err
	}
	s.logger.Info("mpesa deposit initiated", "reference", reference, "amount", amount)
	return Result{Status: StatusPending, Reference: reference}, nil
}

// Withdraw pays out to a phone. No payout provider is integrated yet, so
// the transfer resolves synchronously under a generated reference.
func (s *Service) Withdraw(ctx context.Context, amount float64, phone string) (Result, error) {
	if amount <= 0 || phone == "" {
		return Result{}, fmt.Errorf("%w: amount and phone required", ErrValidation)
	}
	reference := "MPESA-WD-" + s.newRef()
	intent := Intent{
		Reference: reference,
		Kind:      KindMpesaWithdraw,
		Amount:    amount,
		Phone:     phone,
		Status:    StatusSucceeded,
	}
	if err := s.store.Create(ctx, intent); err != nil {
		return Result{}, err
	}
	s.logger.Info("mpesa withdrawal recorded", "reference", reference, "amount", amount)
	return Result{Status: StatusSucceeded, Reference: reference}, nil
}

// CardDeposit records a card deposit. No card processor is integrated yet,
// so it resolves synchronously under a generated reference.
func (s *Service) CardDeposit(ctx context.Context, amount float64) (Result, error) {
	if amount <= 0 {
		return Result{}, fmt.Errorf("%w: amount required", ErrValidation)
	}
	reference := "CARD-" + s.newRef()
	intent := Intent{
		Reference: reference,
		Kind:      KindCardDeposit,
		Amount:    amount,
		Status:    StatusSucceeded,
	}
	if err := s.store.Create(ctx, intent); err != nil {
		return Result{}, err
	}
	s.logger.Info("card deposit recorded", "reference", reference, "amount", amount)
	return Result{Status: StatusSucceeded, Reference: reference}, nil
}

// Callback folds a provider result into the intent store. Result code zero
// resolves the intent succeeded with the scanned receipt number; anything
// else resolves it failed with the provider's description. Unknown
// references are upserted so a late callback is never lost, and repeat
// callbacks for a terminal intent change nothing.
func (s *Service) Callback(ctx context.Context, env CallbackEnvelope) error {
	cb := env.Body.STKCallback
	if cb == nil {
		return fmt.Errorf("%w: invalid callback payload", ErrValidation)
	}
	if cb.CheckoutRequestID == "" {
		return fmt.Errorf("%w: missing CheckoutRequestID", ErrValidation)
	}
	if cb.ResultCode == 0 {
		receipt := cb.receiptNumber()
		s.logger.Info("mpesa payment succeeded", "reference", cb.CheckoutRequestID, "receipt", receipt)
		return s.store.Resolve(ctx, cb.CheckoutRequestID, StatusSucceeded, receipt, "")
	}
	s.logger.Info("mpesa payment failed", "reference", cb.CheckoutRequestID, "result", cb.ResultDesc)
	return s.store.Resolve(ctx, cb.CheckoutRequestID, StatusFailed, "", cb.ResultDesc)
}

// receiptNumber scans the callback metadata for the M-Pesa receipt.
func (cb *STKCallback) receiptNumber() string {
	if cb.CallbackMetadata == nil {
		return ""
	}
	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" && item.Value != nil {
			return fmt.Sprint(item.Value)
		}
	}
	return ""
}

// Status answers a poll for a reference. An unknown reference reads as
// pending: the client may poll before the deposit response, or the callback
// simply has not arrived.
func (s *Service) Status(ctx context.Context, reference string) (Result, error) {
	intent, ok, err := s.store.Get(ctx, reference)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Status: StatusPending}, nil
	}
	return Result{
		Status:    intent.Status,
		Reference: intent.Reference,
		Amount:    intent.Amount,
		Phone:     intent.Phone,
		Receipt:   intent.Receipt,
		Error:     intent.Failure,
	}, nil
}
