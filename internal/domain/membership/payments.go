package membership

import (
	"context"
	"errors"

	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/sequence"
)

// PaymentCompletion is the result of CompletePayment. Renewal is set when a
// renewal waiting on the payment was completed with it.
type PaymentCompletion struct {
	billing.CompleteResult
	Renewal *Renewal
}

// CompletePayment completes the payment, issues its receipt and completes the
// renewal waiting on it, all in one transaction. Completing a payment that is
// already settled changes nothing.
func (s *Service) CompletePayment(ctx context.Context, input billing.CompleteInput) (*PaymentCompletion, error) {
	var result PaymentCompletion
	err := sequence.Retry(ctx, sequence.DefaultAttempts, func() error {
		result = PaymentCompletion{}
		return s.repo.Transaction(ctx, func(tx Repository) error {
			completed, err := s.payments.CompleteInTx(ctx, tx, input)
			if err != nil {
				return err
			}
			result.CompleteResult = completed
			if completed.Affected == 0 {
				return nil
			}

			renewal, err := tx.GetRenewalByPayment(ctx, input.PaymentID)
			if errors.Is(err, ErrRenewalNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			renewal, err = tx.GetRenewalForUpdate(ctx, renewal.ID)
			if err != nil {
				return err
			}

			renewed, err := s.completeRenewalInTx(ctx, tx, renewal, input.ActorID)
			if err != nil {
				return err
			}
			if renewed > 0 {
				result.Renewal = renewal
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.payments.RecordCompletion(result.CompleteResult)
	if result.Renewal != nil {
		s.observe(ActionRenew, true)
	}
	return &result, nil
}

// CompletePaymentMany runs CompletePayment for each payment in its own
// transaction and returns how many payments changed. Unknown payments are
// skipped. On error the payments completed so far stay completed together
// with their renewals.
func (s *Service) CompletePaymentMany(ctx context.Context, paymentIDs []string, actorID string) (int64, error) {
	var total int64
	for _, id := range paymentIDs {
		result, err := s.CompletePayment(ctx, billing.CompleteInput{PaymentID: id, ActorID: actorID})
		if err != nil {
			if errors.Is(err, billing.ErrPaymentNotFound) {
				continue
			}
			return total, err
		}
		total += result.Affected
	}
	return total, nil
}
