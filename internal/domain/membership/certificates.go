package membership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/sequence"
)

const modelCertificate = "MembershipCertificate"

func (s *Service) ListCertificates(ctx context.Context, memberID string) ([]Certificate, error) {
	items, err := s.repo.ListCertificates(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Certificate{}
	}
	return items, nil
}

// IssueCertificate issues a CERT number valid until the member's expiry date.
// Only active memberships get certificates.
func (s *Service) IssueCertificate(ctx context.Context, memberID, actorID string) (*Certificate, error) {
	var result Certificate
	err := sequence.Retry(ctx, sequence.DefaultAttempts, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			member, err := tx.GetMember(ctx, memberID)
			if err != nil {
				return err
			}

			now := s.now().UTC()
			if !member.IsActive(now) {
				return ErrMembershipInactive
			}

			number, err := s.allocator.Allocate(ctx, tx, sequence.KindCertificate, sequence.YearScope(now))
			if err != nil {
				return err
			}

			validUntil := ExpiryFrom(now, DefaultDurationMonths)
			if member.ExpiryDate != nil {
				validUntil = Today(*member.ExpiryDate)
			}

			certificate := Certificate{
				ID:                uuid.NewString(),
				MemberID:          member.ID,
				CertificateNumber: number,
				IssueDate:         Today(now),
				ValidUntil:        validUntil,
				IsActive:          true,
				IssuedBy:          actorPtr(actorID),
			}
			if err := tx.CreateCertificate(ctx, &certificate); err != nil {
				return err
			}

			err = event.Dispatch(ctx, tx, now, event.Audit{
				ActorID:     actorID,
				Action:      audit.ActionCreate,
				ModelName:   modelCertificate,
				ObjectID:    certificate.ID,
				Description: fmt.Sprintf("Issued certificate %s to %s", certificate.CertificateNumber, member.MembershipID),
				Metadata: map[string]any{
					"membership_id":      member.MembershipID,
					"certificate_number": certificate.CertificateNumber,
				},
			})
			if err != nil {
				return err
			}

			result = certificate
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
