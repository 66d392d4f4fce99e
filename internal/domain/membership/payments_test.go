package membership

import (
	"errors"
	"time"

	"membership-app-go/internal/domain/billing"
)

func (s *ServiceSuite) startRenewal(userID, nationalID string) (*Member, *RenewalStarted) {
	member := s.approved(userID, nationalID)
	started, err := s.service.InitiateRenewal(s.ctx, InitiateRenewalInput{MemberID: member.ID, ActorID: userID})
	s.Require().NoError(err)
	return member, started
}

func (s *ServiceSuite) TestCompletePaymentCompletesWaitingRenewal() {
	member, started := s.startRenewal("u-1", "10000001")
	renewedExpiry := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)

	result, err := s.service.CompletePayment(s.ctx, billing.CompleteInput{PaymentID: started.Payment.ID, ActorID: "admin-1", MpesaReceiptNumber: "qk12ab"})
	s.Require().NoError(err)
	s.Equal(int64(1), result.Affected)
	s.Equal(billing.StatusCompleted, result.Payment.Status)
	s.Equal("QK12AB", result.Payment.MpesaReceiptNumber)
	s.Require().NotNil(result.Receipt)
	s.Equal("RCT-2024-0001", result.Receipt.ReceiptNumber)
	s.Require().NotNil(result.Renewal)
	s.Equal(RenewalCompleted, result.Renewal.Status)
	s.Equal(renewedExpiry, result.Renewal.NewExpiryDate)

	s.Equal(renewedExpiry, *s.repo.state.members[member.ID].ExpiryDate)
	s.Equal(RenewalCompleted, s.repo.state.renewals[started.Renewal.ID].Status)
	s.Equal(1, s.observer.counts["member.renew.applied"])

	again, err := s.service.CompletePayment(s.ctx, billing.CompleteInput{PaymentID: started.Payment.ID, ActorID: "admin-1"})
	s.Require().NoError(err)
	s.Zero(again.Affected)
	s.Nil(again.Receipt)
	s.Nil(again.Renewal)
	s.Equal(renewedExpiry, *s.repo.state.members[member.ID].ExpiryDate)
	s.Len(s.repo.state.receipts, 1)
}

func (s *ServiceSuite) TestCompletePaymentRollsBackWhenRenewalFails() {
	member, started := s.startRenewal("u-1", "10000001")
	errWrite := errors.New("renewal write failed")
	s.repo.completeRenewalErrs = []error{errWrite}
	auditsBefore := len(s.repo.state.audits)

	_, err := s.service.CompletePayment(s.ctx, billing.CompleteInput{PaymentID: started.Payment.ID, ActorID: "admin-1"})
	s.ErrorIs(err, errWrite)

	s.Equal(billing.StatusInitiated, s.repo.state.payments[started.Payment.ID].Status)
	s.Nil(s.repo.state.payments[started.Payment.ID].CompletedAt)
	s.Empty(s.repo.state.receipts)
	s.Zero(s.repo.state.counters["receipt/2024"])
	s.Equal(RenewalPendingPayment, s.repo.state.renewals[started.Renewal.ID].Status)
	s.Equal(*member.ExpiryDate, *s.repo.state.members[member.ID].ExpiryDate)
	s.Len(s.repo.state.audits, auditsBefore)

	result, err := s.service.CompletePayment(s.ctx, billing.CompleteInput{PaymentID: started.Payment.ID, ActorID: "admin-1"})
	s.Require().NoError(err)
	s.Equal(int64(1), result.Affected)
	s.Equal("RCT-2024-0001", result.Receipt.ReceiptNumber)
	s.Require().NotNil(result.Renewal)
	s.Equal(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), *s.repo.state.members[member.ID].ExpiryDate)
}

func (s *ServiceSuite) TestCompletePaymentWithoutRenewal() {
	member := s.approved("u-1", "10000001")
	s.Require().NoError(s.repo.CreatePayment(s.ctx, &billing.Payment{
		ID: "p-1", MemberID: member.ID, Type: billing.TypeRegistration, Status: billing.StatusPending, Amount: 500, Currency: "KES",
	}))

	result, err := s.service.CompletePayment(s.ctx, billing.CompleteInput{PaymentID: "p-1", ActorID: "admin-1"})
	s.Require().NoError(err)
	s.Equal(int64(1), result.Affected)
	s.NotNil(result.Receipt)
	s.Nil(result.Renewal)
	s.Equal(*member.ExpiryDate, *s.repo.state.members[member.ID].ExpiryDate)
	s.Zero(s.observer.counts["member.renew.applied"])
}

func (s *ServiceSuite) TestCompletePaymentManyKeepsEarlierRenewalsOnFailure() {
	first, firstRenewal := s.startRenewal("u-1", "10000001")
	second, secondRenewal := s.startRenewal("u-2", "10000002")
	s.repo.completeRenewalErrs = []error{nil, errors.New("renewal write failed")}

	affected, err := s.service.CompletePaymentMany(s.ctx, []string{"missing", firstRenewal.Payment.ID, secondRenewal.Payment.ID}, "admin-1")
	s.Error(err)
	s.Equal(int64(1), affected)

	s.Equal(billing.StatusCompleted, s.repo.state.payments[firstRenewal.Payment.ID].Status)
	s.Equal(RenewalCompleted, s.repo.state.renewals[firstRenewal.Renewal.ID].Status)
	s.Equal(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), *s.repo.state.members[first.ID].ExpiryDate)

	s.Equal(billing.StatusInitiated, s.repo.state.payments[secondRenewal.Payment.ID].Status)
	s.Equal(RenewalPendingPayment, s.repo.state.renewals[secondRenewal.Renewal.ID].Status)
	s.Equal(*second.ExpiryDate, *s.repo.state.members[second.ID].ExpiryDate)

	affected, err = s.service.CompletePaymentMany(s.ctx, []string{firstRenewal.Payment.ID, secondRenewal.Payment.ID}, "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)
	s.Equal(RenewalCompleted, s.repo.state.renewals[secondRenewal.Renewal.ID].Status)
}
