package billing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sequence"
	"membership-app-go/pkg/phone"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200

	entityPayment = "payment"
	modelPayment  = "Payment"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Observer receives transition outcomes. metrics.Metrics satisfies it.
type Observer interface {
	ObserveTransition(entity, action string, applied bool)
	PaymentCompleted()
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

func WithDefaultCurrency(currency string) Option {
	return func(s *Service) {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		if currency != "" {
			s.currency = currency
		}
	}
}

func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		s.phoneRegion = region
	}
}

type Service struct {
	repo        Repository
	allocator   *sequence.Allocator
	observer    Observer
	now         func() time.Time
	currency    string
	phoneRegion string
}

func NewService(repo Repository, allocator *sequence.Allocator, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		allocator:   allocator,
		now:         time.Now,
		currency:    DefaultCurrency,
		phoneRegion: phone.DefaultRegion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	return s.repo.GetPaymentByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
}

func (s *Service) GetReceipt(ctx context.Context, paymentID string) (*Receipt, error) {
	return s.repo.GetReceiptByPayment(ctx, paymentID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]PaymentView, int64, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	filter.Type = strings.TrimSpace(filter.Type)
	if filter.Type != "" && !IsValidType(filter.Type) {
		return nil, 0, ErrInvalidType
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	items, total, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []PaymentView{}
	}
	return items, total, nil
}

func (s *Service) ListByMember(ctx context.Context, memberID string) ([]PaymentView, error) {
	items, _, err := s.List(ctx, ListFilter{MemberID: memberID, Limit: MaxLimit})
	return items, err
}

// Initiate records a new payment in the initiated state.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (*Payment, error) {
	payment, err := s.NewPayment(input)
	if err != nil {
		return nil, err
	}

	err = sequence.Retry(ctx, sequence.DefaultAttempts, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			return s.CreateInTx(ctx, tx, payment, input.ActorID)
		})
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// NewPayment validates input and builds an unsaved payment. Other services
// use it together with CreateInTx to create payments inside their own
// transactions.
func (s *Service) NewPayment(input InitiateInput) (*Payment, error) {
	if strings.TrimSpace(input.MemberID) == "" {
		return nil, ErrMemberNotFound
	}
	if !IsValidType(input.Type) {
		return nil, ErrInvalidType
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.currency
	}
	if !currencyPattern.MatchString(currency) {
		return nil, ErrInvalidCurrency
	}

	var phoneNumber string
	if strings.TrimSpace(input.PhoneNumber) != "" {
		normalized, err := phone.Normalize(input.PhoneNumber, s.phoneRegion)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPhone, input.PhoneNumber)
		}
		phoneNumber = normalized
	}

	return &Payment{
		MemberID:    input.MemberID,
		Type:        input.Type,
		Amount:      input.Amount,
		Currency:    currency,
		PhoneNumber: phoneNumber,
		Status:      StatusInitiated,
		Description: strings.TrimSpace(input.Description),
	}, nil
}

// CreateInTx assigns a fresh ID and reference to payment and stores it with
// its audit entry using tx.
func (s *Service) CreateInTx(ctx context.Context, tx PaymentStore, payment *Payment, actorID string) error {
	member, err := tx.GetMemberRef(ctx, payment.MemberID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	payment.ID = uuid.NewString()
	payment.Reference = sequence.PaymentReference(now)
	payment.InitiatedAt = now
	payment.Status = StatusInitiated
	payment.CompletedAt = nil
	payment.RefundedAt = nil
	if err := tx.CreatePayment(ctx, payment); err != nil {
		return err
	}

	return event.Dispatch(ctx, tx, now, event.Audit{
		ActorID:     actorID,
		Action:      audit.ActionPayment,
		ModelName:   modelPayment,
		ObjectID:    payment.ID,
		Description: fmt.Sprintf("Initiated %s payment %s for %s", payment.Type, payment.Reference, member.MembershipID),
		Metadata: map[string]any{
			"reference": payment.Reference,
			"amount":    payment.Amount,
			"currency":  payment.Currency,
		},
	})
}

func (s *Service) MarkPending(ctx context.Context, input MarkPendingInput) (int64, error) {
	return s.apply(ctx, input.PaymentID, input.ActorID, ActionMarkPending, func(p *Payment, _ time.Time) {
		if v := strings.TrimSpace(input.CheckoutRequestID); v != "" {
			p.CheckoutRequestID = v
		}
		if v := strings.TrimSpace(input.MerchantRequestID); v != "" {
			p.MerchantRequestID = v
		}
	})
}

// Complete moves the payment to completed and issues its receipt in the same
// transaction. A payment that is not initiated or pending is left untouched.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (CompleteResult, error) {
	var result CompleteResult
	err := sequence.Retry(ctx, sequence.DefaultAttempts, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			var err error
			result, err = s.CompleteInTx(ctx, tx, input)
			return err
		})
	})
	if err != nil {
		return CompleteResult{}, err
	}

	s.RecordCompletion(result)
	return result, nil
}

// CompleteInTx is Complete on the caller's transaction. Callers report the
// committed result with RecordCompletion.
func (s *Service) CompleteInTx(ctx context.Context, tx TransitionStore, input CompleteInput) (CompleteResult, error) {
	affected, payment, err := s.transition(ctx, tx, input.PaymentID, input.ActorID, ActionComplete, func(p *Payment, now time.Time) {
		completedAt := now
		p.CompletedAt = &completedAt
		if v := strings.TrimSpace(input.MpesaReceiptNumber); v != "" {
			p.MpesaReceiptNumber = strings.ToUpper(v)
		}
	})
	if err != nil {
		return CompleteResult{}, err
	}
	if affected == 0 {
		return CompleteResult{Payment: payment}, nil
	}

	receipt, err := s.issueReceipt(ctx, tx, payment)
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{Affected: affected, Payment: payment, Receipt: receipt}, nil
}

func (s *Service) RecordCompletion(result CompleteResult) {
	s.observe(ActionComplete, result.Affected > 0)
	if result.Affected > 0 && s.observer != nil {
		s.observer.PaymentCompleted()
	}
}

func (s *Service) Fail(ctx context.Context, paymentID, actorID, reason string) (int64, error) {
	return s.apply(ctx, paymentID, actorID, ActionFail, func(p *Payment, _ time.Time) {
		p.FailureReason = strings.TrimSpace(reason)
	})
}

func (s *Service) Cancel(ctx context.Context, paymentID, actorID string) (int64, error) {
	return s.apply(ctx, paymentID, actorID, ActionCancel, nil)
}

// Refund clears completed_at and records the refund time. The receipt keeps
// the original completion time.
func (s *Service) Refund(ctx context.Context, paymentID, actorID, reason string) (int64, error) {
	return s.apply(ctx, paymentID, actorID, ActionRefund, func(p *Payment, now time.Time) {
		refundedAt := now
		p.CompletedAt = nil
		p.RefundedAt = &refundedAt
		if reason = strings.TrimSpace(reason); reason != "" {
			p.FailureReason = reason
		}
	})
}

func (s *Service) FailMany(ctx context.Context, paymentIDs []string, actorID, reason string) (int64, error) {
	var total int64
	for _, id := range paymentIDs {
		affected, err := s.Fail(ctx, id, actorID, reason)
		if err != nil {
			if errors.Is(err, ErrPaymentNotFound) {
				continue
			}
			return total, err
		}
		total += affected
	}
	return total, nil
}

func (s *Service) apply(ctx context.Context, paymentID, actorID string, action Action, mutate func(*Payment, time.Time)) (int64, error) {
	var affected int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		affected, _, err = s.transition(ctx, tx, paymentID, actorID, action, mutate)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.observe(action, affected > 0)
	return affected, nil
}

// transition locks the payment, applies action when legal and dispatches the
// matching events. It returns 0 affected rows for illegal transitions.
func (s *Service) transition(ctx context.Context, tx TransitionStore, paymentID, actorID string, action Action, mutate func(*Payment, time.Time)) (int64, *Payment, error) {
	payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
	if err != nil {
		return 0, nil, err
	}

	from := payment.Status
	to, ok := NextStatus(from, action)
	if !ok {
		return 0, payment, nil
	}

	now := s.now().UTC()
	payment.Status = to
	if mutate != nil {
		mutate(payment, now)
	}

	affected, err := tx.UpdatePaymentStatus(ctx, payment, from)
	if err != nil {
		return 0, nil, err
	}
	if affected == 0 {
		return 0, payment, nil
	}

	member, err := tx.GetMemberRef(ctx, payment.MemberID)
	if err != nil {
		return 0, nil, err
	}

	if err := event.Dispatch(ctx, tx, now, paymentEvents(payment, member, actorID, from, action)...); err != nil {
		return 0, nil, err
	}
	return affected, payment, nil
}

func (s *Service) issueReceipt(ctx context.Context, tx TransitionStore, payment *Payment) (*Receipt, error) {
	now := s.now().UTC()
	number, err := s.allocator.Allocate(ctx, tx, sequence.KindReceipt, sequence.YearScope(now))
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		ID:            uuid.NewString(),
		PaymentID:     payment.ID,
		ReceiptNumber: number,
		GeneratedAt:   now,
	}
	if err := tx.CreateReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *Service) observe(action Action, applied bool) {
	if s.observer != nil {
		s.observer.ObserveTransition(entityPayment, string(action), applied)
	}
}

func paymentEvents(payment *Payment, member *MemberRef, actorID, from string, action Action) []event.Event {
	amount := fmt.Sprintf("%s %.2f", payment.Currency, payment.Amount)
	events := []event.Event{event.Audit{
		ActorID:     actorID,
		Action:      audit.ActionPayment,
		ModelName:   modelPayment,
		ObjectID:    payment.ID,
		Description: fmt.Sprintf("Payment %s %s -> %s", payment.Reference, from, payment.Status),
		Metadata: map[string]any{
			"reference": payment.Reference,
			"from":      from,
			"to":        payment.Status,
		},
	}}

	var notify *event.Notify
	switch action {
	case ActionComplete:
		notify = &event.Notify{
			Title:   "Payment Received",
			Message: fmt.Sprintf("Your payment of %s (reference %s) has been received. Thank you.", amount, payment.Reference),
		}
	case ActionFail:
		message := fmt.Sprintf("Your payment of %s (reference %s) could not be completed.", amount, payment.Reference)
		if payment.FailureReason != "" {
			message += " Reason: " + payment.FailureReason
		}
		notify = &event.Notify{Title: "Payment Failed", Message: message}
	case ActionRefund:
		notify = &event.Notify{
			Title:   "Payment Refunded",
			Message: fmt.Sprintf("Your payment of %s (reference %s) has been refunded.", amount, payment.Reference),
		}
	}
	if notify != nil && member.UserID != "" {
		notify.RecipientID = member.UserID
		notify.Type = notification.TypePayment
		events = append(events, *notify)
	}
	return events
}
