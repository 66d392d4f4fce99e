package membership

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sentinel"
	"membership-app-go/internal/domain/sequence"
)

type recordingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *recordingObserver) ObserveTransition(entity, action string, applied bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	result := "noop"
	if applied {
		result = "applied"
	}
	o.counts[entity+"."+action+"."+result]++
}

type ServiceSuite struct {
	suite.Suite

	ctx      context.Context
	now      time.Time
	repo     *fakeRepo
	storage  *memoryStorage
	observer *recordingObserver
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	s.repo = newFakeRepo()
	s.storage = &memoryStorage{}
	s.observer = &recordingObserver{}

	clock := func() time.Time { return s.now }
	allocator := sequence.NewAllocator()
	payments := billing.NewService(nil, allocator, billing.WithClock(clock))
	s.service = NewService(s.repo, allocator, payments,
		WithClock(clock),
		WithObserver(s.observer),
		WithStorage(s.storage),
		WithMaxDocumentBytes(16),
	)
}

func (s *ServiceSuite) registerInput(userID, nationalID string) RegisterInput {
	return RegisterInput{
		UserID:          userID,
		CategoryID:      "cat-1",
		CountryID:       "ke",
		RegionID:        "nairobi",
		FirstName:       "Jane",
		LastName:        "Wanjiku",
		DateOfBirth:     time.Date(1990, 5, 4, 0, 0, 0, 0, time.UTC),
		Gender:          "f",
		NationalID:      nationalID,
		Email:           "Jane@Example.com",
		PhoneNumber:     "0712345678",
		PhysicalAddress: "Westlands, Nairobi",
	}
}

func (s *ServiceSuite) register(userID, nationalID string) *Member {
	member, err := s.service.Register(s.ctx, s.registerInput(userID, nationalID))
	s.Require().NoError(err)
	return member
}

func (s *ServiceSuite) approved(userID, nationalID string) *Member {
	member := s.register(userID, nationalID)
	affected, err := s.service.Approve(s.ctx, member.ID, "admin-1")
	s.Require().NoError(err)
	s.Require().Equal(int64(1), affected)
	stored, err := s.service.Get(s.ctx, member.ID)
	s.Require().NoError(err)
	return stored
}

func (s *ServiceSuite) TestRegisterAllocatesSequentialMembershipIDs() {
	first := s.register("u-1", "10000001")
	second := s.register("u-2", "10000002")

	s.Equal("KTS-2024-0001", first.MembershipID)
	s.Equal("KTS-2024-0002", second.MembershipID)
	s.Equal(StatusPending, first.Status)
	s.Equal("F", first.Gender)
	s.Equal("jane@example.com", first.Email)
	s.Equal("+254712345678", first.PhoneNumber)
	s.Nil(first.ExpiryDate)

	entries := s.repo.auditsFor(first.ID)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionCreate, entries[0].Action)

	notes := s.repo.notificationsFor("u-1")
	s.Require().Len(notes, 1)
	s.Equal(notification.TypeRegistration, notes[0].Type)
}

func (s *ServiceSuite) TestRegisterValidatesReferences() {
	input := s.registerInput("u-1", "10000001")
	input.RegionID = "arusha"
	_, err := s.service.Register(s.ctx, input)
	s.ErrorIs(err, ErrRegionMismatch)

	input = s.registerInput("u-1", "10000001")
	input.CategoryID = "cat-2"
	_, err = s.service.Register(s.ctx, input)
	s.ErrorIs(err, ErrCategoryInactive)

	input = s.registerInput("u-1", "10000001")
	input.CountryID = "ug"
	_, err = s.service.Register(s.ctx, input)
	s.ErrorIs(err, ErrCountryNotFound)

	input = s.registerInput("u-1", "10000001")
	input.Gender = "x"
	_, err = s.service.Register(s.ctx, input)
	s.ErrorIs(err, ErrInvalidGender)

	input = s.registerInput("u-1", "10000001")
	input.PhoneNumber = "12"
	_, err = s.service.Register(s.ctx, input)
	s.ErrorIs(err, ErrInvalidPhone)

	s.Empty(s.repo.state.members)
	s.Zero(s.repo.state.counters["membership/2024"], "rolled back registrations must not consume numbers")
}

func (s *ServiceSuite) TestRegisterRejectsSecondMembershipForUser() {
	s.register("u-1", "10000001")
	_, err := s.service.Register(s.ctx, s.registerInput("u-1", "10000002"))
	s.ErrorIs(err, ErrAlreadyRegistered)
}

func (s *ServiceSuite) TestRegisterDuplicateNationalIDIsNotRetried() {
	s.register("u-1", "10000001")
	hits := s.repo.counterHits

	_, err := s.service.Register(s.ctx, s.registerInput("u-2", "10000001"))

	s.ErrorIs(err, sentinel.ErrUniquenessViolation)
	s.Equal("national_id", sentinel.FieldOf(err))
	s.Equal(hits+1, s.repo.counterHits)
	s.Equal(int64(1), s.repo.state.counters["membership/2024"])
}

func (s *ServiceSuite) TestRegisterRetriesAllocationConflicts() {
	s.repo.counterErrs = []error{sequence.ErrAllocationConflict, sequence.ErrAllocationConflict}

	member, err := s.service.Register(s.ctx, s.registerInput("u-1", "10000001"))
	s.Require().NoError(err)
	s.Equal("KTS-2024-0001", member.MembershipID)
	s.Equal(3, s.repo.counterHits)
}

func (s *ServiceSuite) TestRegisterGivesUpAfterThreeConflicts() {
	s.repo.counterErrs = []error{sequence.ErrAllocationConflict, sequence.ErrAllocationConflict, sequence.ErrAllocationConflict}

	_, err := s.service.Register(s.ctx, s.registerInput("u-1", "10000001"))
	s.ErrorIs(err, sequence.ErrAllocationConflict)
	s.Empty(s.repo.state.members)
}

func (s *ServiceSuite) TestApproveSetsExpiryAndEmitsOneAuditAndNotification() {
	member := s.approved("u-1", "10000001")

	s.Equal(StatusApproved, member.Status)
	s.Equal(time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), *member.ExpiryDate)
	s.Equal("admin-1", *member.ApprovedBy)

	approvals := 0
	for _, entry := range s.repo.auditsFor(member.ID) {
		if entry.Action == audit.ActionApprove {
			approvals++
		}
	}
	s.Equal(1, approvals)

	var approvalNotes []notification.Notification
	for _, n := range s.repo.notificationsFor("u-1") {
		if n.Type == notification.TypeApproval {
			approvalNotes = append(approvalNotes, n)
		}
	}
	s.Require().Len(approvalNotes, 1)
	s.Equal("Membership Approved", approvalNotes[0].Title)
	s.Contains(approvalNotes[0].Message, "KTS-2024-0001")
}

func (s *ServiceSuite) TestRejectNonPendingIsNoop() {
	member := s.approved("u-1", "10000001")
	audits := len(s.repo.state.audits)
	notes := len(s.repo.state.notifications)

	affected, err := s.service.Reject(s.ctx, member.ID, "admin-1", "late")
	s.Require().NoError(err)

	s.Zero(affected)
	s.Equal(StatusApproved, s.repo.state.members[member.ID].Status)
	s.Len(s.repo.state.audits, audits)
	s.Len(s.repo.state.notifications, notes)
	s.Equal(1, s.observer.counts["member.reject.noop"])
}

func (s *ServiceSuite) TestRejectRecordsReason() {
	member := s.register("u-1", "10000001")

	affected, err := s.service.Reject(s.ctx, member.ID, "admin-1", " missing documents ")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)

	stored := s.repo.state.members[member.ID]
	s.Equal(StatusRejected, stored.Status)
	s.Equal("missing documents", stored.RejectionReason)
	s.Nil(stored.ExpiryDate)
}

func (s *ServiceSuite) TestConcurrentApproveAndRejectApplyOnce() {
	member := s.register("u-1", "10000001")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var affected int64
			var err error
			if i%2 == 0 {
				affected, err = s.service.Approve(s.ctx, member.ID, "admin-1")
			} else {
				affected, err = s.service.Reject(s.ctx, member.ID, "admin-2", "dup")
			}
			if !s.NoError(err) {
				return
			}
			mu.Lock()
			total += affected
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	s.Equal(int64(1), total)
	decisions := 0
	for _, entry := range s.repo.auditsFor(member.ID) {
		if entry.Action == audit.ActionApprove || entry.Action == audit.ActionReject {
			decisions++
		}
	}
	s.Equal(1, decisions)
}

func (s *ServiceSuite) TestBulkActionsCountAffected() {
	first := s.register("u-1", "10000001")
	second := s.register("u-2", "10000002")
	third := s.register("u-3", "10000003")

	_, err := s.service.Reject(s.ctx, third.ID, "admin-1", "duplicate")
	s.Require().NoError(err)

	affected, err := s.service.ApproveMany(s.ctx, []string{first.ID, second.ID, third.ID, "missing"}, "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(2), affected)

	affected, err = s.service.SuspendMany(s.ctx, []string{first.ID, third.ID}, "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)
	s.Equal(StatusSuspended, s.repo.state.members[first.ID].Status)

	affected, err = s.service.RejectMany(s.ctx, []string{first.ID, second.ID}, "admin-1", "late")
	s.Require().NoError(err)
	s.Zero(affected)
}

func (s *ServiceSuite) TestDeleteReferencedCategoryFails() {
	member := s.register("u-1", "10000001")

	err := s.service.DeleteCategory(s.ctx, "cat-1", "admin-1")

	s.ErrorIs(err, sentinel.ErrReferentialIntegrity)
	s.Contains(s.repo.state.categories, "cat-1")
	s.Contains(s.repo.state.members, member.ID)
}

func (s *ServiceSuite) TestDeleteUnreferencedCategory() {
	s.Require().NoError(s.service.DeleteCategory(s.ctx, "cat-2", "admin-1"))
	s.NotContains(s.repo.state.categories, "cat-2")
	s.Len(s.repo.auditsFor("cat-2"), 1)
}

func (s *ServiceSuite) TestCategoryValidation() {
	_, err := s.service.CreateCategory(s.ctx, CreateCategoryInput{Name: "Student", AnnualFee: -1})
	s.ErrorIs(err, ErrInvalidFee)

	_, err = s.service.CreateCategory(s.ctx, CreateCategoryInput{Name: "Ordinary"})
	s.ErrorIs(err, sentinel.ErrUniquenessViolation)

	created, err := s.service.CreateCategory(s.ctx, CreateCategoryInput{Name: " Student ", AnnualFee: 300})
	s.Require().NoError(err)
	s.Equal("Student", created.Name)
	s.Equal(DefaultDurationMonths, created.DurationMonths)

	_, err = s.service.UpdateCategory(s.ctx, UpdateCategoryInput{ID: created.ID, Name: "Student", DurationMonths: 0})
	s.ErrorIs(err, ErrInvalidDuration)
}

func (s *ServiceSuite) TestDeleteMemberCascades() {
	member := s.approved("u-1", "10000001")
	_, err := s.service.InitiateRenewal(s.ctx, InitiateRenewalInput{MemberID: member.ID, ActorID: "u-1"})
	s.Require().NoError(err)
	_, err = s.service.IssueCertificate(s.ctx, member.ID, "admin-1")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, member.ID, "admin-1"))

	s.Empty(s.repo.state.members)
	s.Empty(s.repo.state.payments)
	s.Empty(s.repo.state.renewals)
	s.Empty(s.repo.state.certificates)
	s.Equal(audit.ActionDelete, s.repo.state.audits[len(s.repo.state.audits)-1].Action)
}

func (s *ServiceSuite) TestRenewalFlow() {
	member := s.approved("u-1", "10000001")

	started, err := s.service.InitiateRenewal(s.ctx, InitiateRenewalInput{MemberID: member.ID, ActorID: "u-1", PhoneNumber: "0712345678"})
	s.Require().NoError(err)
	s.Equal(billing.TypeRenewal, started.Payment.Type)
	s.Equal(1000.0, started.Payment.Amount)
	s.Equal(billing.StatusInitiated, started.Payment.Status)
	s.Equal(RenewalPendingPayment, started.Renewal.Status)
	s.Equal(*member.ExpiryDate, started.Renewal.PreviousExpiryDate)
	s.True(started.Renewal.NewExpiryDate.After(started.Renewal.PreviousExpiryDate))

	_, err = s.service.InitiateRenewal(s.ctx, InitiateRenewalInput{MemberID: member.ID})
	s.ErrorIs(err, ErrRenewalPending)

	_, err = s.service.CompleteRenewal(s.ctx, started.Renewal.ID, "admin-1")
	s.ErrorIs(err, ErrPaymentNotCompleted)

	s.completePayment(started.Payment.ID)
	affected, err := s.service.CompleteRenewal(s.ctx, started.Renewal.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)

	stored := s.repo.state.members[member.ID]
	s.Equal(time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), *stored.ExpiryDate)
	renewal := s.repo.state.renewals[started.Renewal.ID]
	s.Equal(RenewalCompleted, renewal.Status)
	s.NotNil(renewal.CompletedAt)
	s.Equal(*stored.ExpiryDate, renewal.NewExpiryDate)

	affected, err = s.service.CompleteRenewal(s.ctx, started.Renewal.ID, "admin-1")
	s.Require().NoError(err)
	s.Zero(affected)

	renewNotes := 0
	for _, n := range s.repo.notificationsFor("u-1") {
		if n.Title == "Membership Renewed" {
			renewNotes++
		}
	}
	s.Equal(1, renewNotes)
}

func (s *ServiceSuite) TestInitiateRenewalRequiresRenewableStatus() {
	member := s.register("u-1", "10000001")
	_, err := s.service.InitiateRenewal(s.ctx, InitiateRenewalInput{MemberID: member.ID})
	s.ErrorIs(err, ErrNotRenewable)
	s.Empty(s.repo.state.payments)
}

func (s *ServiceSuite) TestDirectRenewWithCompletedPayment() {
	member := s.approved("u-1", "10000001")
	s.Require().NoError(s.repo.CreatePayment(s.ctx, &billing.Payment{ID: "p-1", MemberID: member.ID, Status: billing.StatusPending, Amount: 1000}))

	_, err := s.service.Renew(s.ctx, member.ID, "p-1", "admin-1")
	s.ErrorIs(err, ErrPaymentNotCompleted)

	s.completePayment("p-1")
	_, err = s.service.Renew(s.ctx, "someone-else", "p-1", "admin-1")
	s.ErrorIs(err, ErrPaymentNotOwned)

	affected, err := s.service.Renew(s.ctx, member.ID, "p-1", "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)
	s.Len(s.repo.state.renewals, 1)

	_, err = s.service.Renew(s.ctx, member.ID, "p-1", "admin-1")
	s.ErrorIs(err, ErrPaymentAlreadyLinked)
}

func (s *ServiceSuite) TestSuspendedMemberCanBeRenewed() {
	member := s.approved("u-1", "10000001")
	_, err := s.service.Suspend(s.ctx, member.ID, "admin-1")
	s.Require().NoError(err)
	s.Require().NoError(s.repo.CreatePayment(s.ctx, &billing.Payment{ID: "p-1", MemberID: member.ID, Status: billing.StatusCompleted, Amount: 1000}))

	affected, err := s.service.Renew(s.ctx, member.ID, "p-1", "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)
	s.Equal(StatusApproved, s.repo.state.members[member.ID].Status)
}

func (s *ServiceSuite) TestIssueCertificate() {
	pending := s.register("u-1", "10000001")
	_, err := s.service.IssueCertificate(s.ctx, pending.ID, "admin-1")
	s.ErrorIs(err, ErrMembershipInactive)
	s.Zero(s.repo.state.counters["certificate/2024"])

	member := s.approved("u-2", "10000002")
	certificate, err := s.service.IssueCertificate(s.ctx, member.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal("CERT-2024-0001", certificate.CertificateNumber)
	s.Equal(*member.ExpiryDate, certificate.ValidUntil)
	s.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), certificate.IssueDate)

	s.now = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.service.IssueCertificate(s.ctx, member.ID, "admin-1")
	s.ErrorIs(err, ErrMembershipInactive, "expired memberships are not active")
}

func (s *ServiceSuite) TestSendExpiryReminders() {
	approved := s.approved("u-1", "10000001")
	pending := s.register("u-2", "10000002")

	sent, err := s.service.SendExpiryReminders(s.ctx, []string{approved.ID, pending.ID})
	s.Require().NoError(err)
	s.Equal(int64(1), sent)

	var reminders []notification.Notification
	for _, n := range s.repo.state.notifications {
		if n.Type == notification.TypeExpiryReminder {
			reminders = append(reminders, n)
		}
	}
	s.Require().Len(reminders, 1)
	s.Equal("u-1", reminders[0].RecipientID)
	s.Contains(reminders[0].Message, "2025-01-09")
	s.Contains(reminders[0].Message, "360 days")
}

func (s *ServiceSuite) TestUploadDocument() {
	member := s.register("u-1", "10000001")

	_, err := s.service.UploadDocument(s.ctx, UploadDocumentInput{MemberID: member.ID, Type: DocumentIDCopy, FileName: "id.exe"}, strings.NewReader("x"))
	s.ErrorIs(err, ErrInvalidFileExtension)

	_, err = s.service.UploadDocument(s.ctx, UploadDocumentInput{MemberID: member.ID, Type: "selfie", FileName: "id.pdf"}, strings.NewReader("x"))
	s.ErrorIs(err, ErrInvalidDocumentType)

	_, err = s.service.UploadDocument(s.ctx, UploadDocumentInput{MemberID: member.ID, Type: DocumentIDCopy, FileName: "id.pdf"}, strings.NewReader(strings.Repeat("x", 17)))
	s.ErrorIs(err, ErrFileTooLarge)
	s.Empty(s.storage.files)

	document, err := s.service.UploadDocument(s.ctx, UploadDocumentInput{MemberID: member.ID, Type: DocumentIDCopy, FileName: "ID.PDF"}, strings.NewReader("%PDF-1.4"))
	s.Require().NoError(err)
	s.Equal(fmt.Sprintf("member_documents/2024/01/%s.pdf", document.ID), document.FilePath)
	s.Equal([]byte("%PDF-1.4"), s.storage.files[document.FilePath])

	affected, err := s.service.VerifyDocuments(s.ctx, []string{document.ID}, "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(1), affected)

	affected, err = s.service.VerifyDocuments(s.ctx, []string{document.ID}, "admin-1")
	s.Require().NoError(err)
	s.Zero(affected)
}

func (s *ServiceSuite) TestListValidatesStatus() {
	_, _, err := s.service.List(s.ctx, ListFilter{Status: "archived"})
	s.ErrorIs(err, ErrInvalidStatus)

	s.register("u-1", "10000001")
	items, total, err := s.service.List(s.ctx, ListFilter{Status: "PENDING"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Ordinary", items[0].CategoryName)
}

func (s *ServiceSuite) completePayment(paymentID string) {
	payment := s.repo.state.payments[paymentID]
	completedAt := s.now
	payment.Status = billing.StatusCompleted
	payment.CompletedAt = &completedAt
	s.repo.state.payments[paymentID] = payment
}

func TestExpiryFrom(t *testing.T) {
	got := ExpiryFrom(time.Date(2024, 1, 15, 23, 0, 0, 0, time.FixedZone("EAT", 3*3600)), 12)
	require.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, 30, DaysPerMonth)
}
