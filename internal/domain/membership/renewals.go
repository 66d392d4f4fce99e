package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sequence"
)

const modelRenewal = "MembershipRenewal"

func (s *Service) ListRenewals(ctx context.Context, memberID string) ([]Renewal, error) {
	items, err := s.repo.ListRenewals(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Renewal{}
	}
	return items, nil
}

// InitiateRenewal creates a renewal payment for the category's annual fee and
// a renewal awaiting that payment.
func (s *Service) InitiateRenewal(ctx context.Context, input InitiateRenewalInput) (*RenewalStarted, error) {
	var result RenewalStarted
	err := sequence.Retry(ctx, sequence.DefaultAttempts, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			member, err := tx.GetMemberForUpdate(ctx, input.MemberID)
			if err != nil {
				return err
			}
			if member.Status != StatusApproved && member.Status != StatusSuspended {
				return ErrNotRenewable
			}

			pending, err := tx.HasPendingRenewal(ctx, member.ID)
			if err != nil {
				return err
			}
			if pending {
				return ErrRenewalPending
			}

			category, err := tx.GetCategory(ctx, member.CategoryID)
			if err != nil {
				return err
			}

			payment, err := s.payments.NewPayment(billing.InitiateInput{
				MemberID:    member.ID,
				Type:        billing.TypeRenewal,
				Amount:      category.AnnualFee,
				PhoneNumber: input.PhoneNumber,
				Description: fmt.Sprintf("Membership renewal for %s", member.MembershipID),
			})
			if err != nil {
				return err
			}
			if err := s.payments.CreateInTx(ctx, tx, payment, input.ActorID); err != nil {
				return err
			}

			now := s.now().UTC()
			previous := Today(now)
			if member.ExpiryDate != nil {
				previous = Today(*member.ExpiryDate)
			}

			renewal := Renewal{
				ID:                 uuid.NewString(),
				MemberID:           member.ID,
				PaymentID:          &payment.ID,
				PreviousExpiryDate: previous,
				NewExpiryDate:      ExpiryFrom(renewalBase(member.ExpiryDate, now), category.DurationMonths),
				RenewalFee:         category.AnnualFee,
				Status:             RenewalPendingPayment,
				InitiatedAt:        now,
				Notes:              strings.TrimSpace(input.Notes),
			}
			if err := tx.CreateRenewal(ctx, &renewal); err != nil {
				return err
			}

			err = event.Dispatch(ctx, tx, now,
				event.Audit{
					ActorID:     input.ActorID,
					Action:      audit.ActionCreate,
					ModelName:   modelRenewal,
					ObjectID:    renewal.ID,
					Description: fmt.Sprintf("Initiated renewal for %s", member.MembershipID),
					Metadata: map[string]any{
						"membership_id":     member.MembershipID,
						"payment_reference": payment.Reference,
					},
				},
				event.Notify{
					RecipientID: member.UserID,
					Type:        notification.TypeRenewal,
					Title:       "Renewal Initiated",
					Message: fmt.Sprintf("A renewal of membership %s has been initiated. Complete payment %s of %s %.2f to renew.",
						member.MembershipID, payment.Reference, payment.Currency, payment.Amount),
				},
			)
			if err != nil {
				return err
			}

			result = RenewalStarted{Renewal: renewal, Payment: *payment}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CompleteRenewal applies the renew transition for a renewal whose payment
// has completed. It returns 0 when the renewal is already settled or the
// member is no longer renewable.
func (s *Service) CompleteRenewal(ctx context.Context, renewalID, actorID string) (int64, error) {
	var affected int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		renewal, err := tx.GetRenewalForUpdate(ctx, renewalID)
		if err != nil {
			return err
		}
		affected, err = s.completeRenewalInTx(ctx, tx, renewal, actorID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.observe(ActionRenew, affected > 0)
	return affected, nil
}

// completeRenewalInTx expects renewal to be locked by tx.
func (s *Service) completeRenewalInTx(ctx context.Context, tx Repository, renewal *Renewal, actorID string) (int64, error) {
	if renewal.Status != RenewalPendingPayment {
		return 0, nil
	}
	if renewal.PaymentID == nil {
		return 0, ErrPaymentNotCompleted
	}

	payment, err := tx.GetPayment(ctx, *renewal.PaymentID)
	if err != nil {
		return 0, err
	}
	if payment.Status != billing.StatusCompleted {
		return 0, ErrPaymentNotCompleted
	}

	applied, outcome, err := s.applyInTx(ctx, tx, renewal.MemberID, Command{Action: ActionRenew, ActorID: actorID})
	if err != nil || applied == 0 {
		return 0, err
	}

	completedAt := s.now().UTC()
	renewal.Status = RenewalCompleted
	renewal.CompletedAt = &completedAt
	renewal.NewExpiryDate = *outcome.NewExpiry
	if _, err := tx.CompleteRenewal(ctx, renewal); err != nil {
		return 0, err
	}
	return applied, nil
}

// Renew extends a membership directly with an already completed payment
// that no renewal has used yet.
func (s *Service) Renew(ctx context.Context, memberID, paymentID, actorID string) (int64, error) {
	var affected int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		payment, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.MemberID != memberID {
			return ErrPaymentNotOwned
		}
		if payment.Status != billing.StatusCompleted {
			return ErrPaymentNotCompleted
		}

		_, err = tx.GetRenewalByPayment(ctx, paymentID)
		if err == nil {
			return ErrPaymentAlreadyLinked
		}
		if !errors.Is(err, ErrRenewalNotFound) {
			return err
		}

		applied, outcome, err := s.applyInTx(ctx, tx, memberID, Command{Action: ActionRenew, ActorID: actorID})
		if err != nil || applied == 0 {
			return err
		}

		now := s.now().UTC()
		previous := Today(now)
		if outcome.PreviousExpiry != nil {
			previous = Today(*outcome.PreviousExpiry)
		}
		renewal := Renewal{
			ID:                 uuid.NewString(),
			MemberID:           memberID,
			PaymentID:          &payment.ID,
			PreviousExpiryDate: previous,
			NewExpiryDate:      *outcome.NewExpiry,
			RenewalFee:         payment.Amount,
			Status:             RenewalCompleted,
			InitiatedAt:        now,
			CompletedAt:        &now,
		}
		if err := tx.CreateRenewal(ctx, &renewal); err != nil {
			return err
		}

		affected = applied
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.observe(ActionRenew, affected > 0)
	return affected, nil
}

// renewalBase is the later of the current expiry and today.
func renewalBase(expiry *time.Time, now time.Time) time.Time {
	today := Today(now)
	if expiry != nil && expiry.After(today) {
		return Today(*expiry)
	}
	return today
}
