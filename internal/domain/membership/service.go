package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sequence"
	"membership-app-go/pkg/phone"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200

	DefaultMaxDocumentBytes = 5 << 20

	entityMember = "member"
)

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

func WithStorage(storage Storage) Option {
	return func(s *Service) {
		s.storage = storage
	}
}

func WithMaxDocumentBytes(limit int64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxDocumentBytes = limit
		}
	}
}

func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		s.phoneRegion = region
	}
}

type Service struct {
	repo             Repository
	allocator        *sequence.Allocator
	payments         *billing.Service
	storage          Storage
	observer         Observer
	now              func() time.Time
	phoneRegion      string
	maxDocumentBytes int64
}

func NewService(repo Repository, allocator *sequence.Allocator, payments *billing.Service, opts ...Option) *Service {
	s := &Service{
		repo:             repo,
		allocator:        allocator,
		payments:         payments,
		now:              time.Now,
		phoneRegion:      phone.DefaultRegion,
		maxDocumentBytes: DefaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (*Member, error) {
	return s.repo.GetMember(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*Member, error) {
	return s.repo.GetMemberByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]MemberView, int64, error) {
	filter.Status = strings.TrimSpace(strings.ToLower(filter.Status))
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	items, total, err := s.repo.ListMembers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []MemberView{}
	}
	return items, total, nil
}

// Register creates a pending member and allocates its membership ID in the
// same transaction. Allocation conflicts retry the whole registration.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Member, error) {
	member, err := s.newMember(input)
	if err != nil {
		return nil, err
	}

	actorID := input.ActorID
	if actorID == "" {
		actorID = input.UserID
	}

	var result Member
	err = sequence.Retry(ctx, sequence.DefaultAttempts, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			_, err := tx.GetMemberByUserID(ctx, member.UserID)
			if err == nil {
				return ErrAlreadyRegistered
			}
			if !errors.Is(err, ErrMemberNotFound) {
				return err
			}

			if err := s.checkReferences(ctx, tx, member); err != nil {
				return err
			}

			now := s.now().UTC()
			membershipID, err := s.allocator.Allocate(ctx, tx, sequence.KindMembership, sequence.YearScope(now))
			if err != nil {
				return err
			}

			created := *member
			created.ID = uuid.NewString()
			created.MembershipID = membershipID
			created.Status = StatusPending
			created.RegistrationDate = now
			if err := tx.CreateMember(ctx, &created); err != nil {
				return err
			}

			err = event.Dispatch(ctx, tx, now,
				event.Audit{
					ActorID:     actorID,
					Action:      audit.ActionCreate,
					ModelName:   modelMember,
					ObjectID:    created.ID,
					Description: fmt.Sprintf("Registered member %s", created.MembershipID),
					Metadata:    map[string]any{"membership_id": created.MembershipID},
				},
				event.Notify{
					RecipientID: created.UserID,
					Type:        notification.TypeRegistration,
					Title:       "Registration Received",
					Message:     fmt.Sprintf("Your membership application %s has been received and is pending approval.", created.MembershipID),
				},
			)
			if err != nil {
				return err
			}

			result = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) newMember(input RegisterInput) (*Member, error) {
	member := &Member{
		UserID:          strings.TrimSpace(input.UserID),
		CategoryID:      strings.TrimSpace(input.CategoryID),
		CountryID:       strings.TrimSpace(input.CountryID),
		FirstName:       strings.TrimSpace(input.FirstName),
		MiddleName:      strings.TrimSpace(input.MiddleName),
		LastName:        strings.TrimSpace(input.LastName),
		DateOfBirth:     Today(input.DateOfBirth),
		Gender:          strings.ToUpper(strings.TrimSpace(input.Gender)),
		NationalID:      strings.TrimSpace(input.NationalID),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		PostalAddress:   strings.TrimSpace(input.PostalAddress),
		PhysicalAddress: strings.TrimSpace(input.PhysicalAddress),
		Occupation:      strings.TrimSpace(input.Occupation),
		Organization:    strings.TrimSpace(input.Organization),
	}

	if member.UserID == "" || member.CategoryID == "" || member.CountryID == "" ||
		member.FirstName == "" || member.LastName == "" || member.NationalID == "" ||
		member.Email == "" || member.PhysicalAddress == "" || input.DateOfBirth.IsZero() {
		return nil, ErrMissingRequiredFields
	}
	if err := validation.Validate(member.Email, is.Email); err != nil {
		return nil, fmt.Errorf("%w: email", ErrMissingRequiredFields)
	}
	if !IsValidGender(member.Gender) {
		return nil, ErrInvalidGender
	}
	if region := strings.TrimSpace(input.RegionID); region != "" {
		member.RegionID = &region
	}

	primary, err := phone.Normalize(input.PhoneNumber, s.phoneRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: phone_number", ErrInvalidPhone)
	}
	member.PhoneNumber = primary

	if strings.TrimSpace(input.AlternativePhone) != "" {
		alternative, err := phone.Normalize(input.AlternativePhone, s.phoneRegion)
		if err != nil {
			return nil, fmt.Errorf("%w: alternative_phone", ErrInvalidPhone)
		}
		member.AlternativePhone = alternative
	}

	return member, nil
}

func (s *Service) checkReferences(ctx context.Context, tx Repository, member *Member) error {
	category, err := tx.GetCategory(ctx, member.CategoryID)
	if err != nil {
		return err
	}
	if !category.IsActive {
		return ErrCategoryInactive
	}

	active, err := tx.CountryIsActive(ctx, member.CountryID)
	if err != nil {
		return err
	}
	if !active {
		return ErrCountryNotFound
	}

	if member.RegionID != nil {
		ok, err := tx.RegionBelongsToCountry(ctx, *member.RegionID, member.CountryID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRegionMismatch
		}
	}
	return nil
}

// Approve moves a pending member to approved. It returns 0 when the member is
// not pending.
func (s *Service) Approve(ctx context.Context, memberID, actorID string) (int64, error) {
	return s.transition(ctx, memberID, Command{Action: ActionApprove, ActorID: actorID})
}

// Reject moves a pending member to rejected. It returns 0 when the member is
// not pending.
func (s *Service) Reject(ctx context.Context, memberID, actorID, reason string) (int64, error) {
	return s.transition(ctx, memberID, Command{Action: ActionReject, ActorID: actorID, Reason: strings.TrimSpace(reason)})
}

// Suspend moves an approved member to suspended.
func (s *Service) Suspend(ctx context.Context, memberID, actorID string) (int64, error) {
	return s.transition(ctx, memberID, Command{Action: ActionSuspend, ActorID: actorID})
}

func (s *Service) ApproveMany(ctx context.Context, memberIDs []string, actorID string) (int64, error) {
	return s.transitionMany(ctx, memberIDs, Command{Action: ActionApprove, ActorID: actorID})
}

func (s *Service) RejectMany(ctx context.Context, memberIDs []string, actorID, reason string) (int64, error) {
	return s.transitionMany(ctx, memberIDs, Command{Action: ActionReject, ActorID: actorID, Reason: strings.TrimSpace(reason)})
}

func (s *Service) SuspendMany(ctx context.Context, memberIDs []string, actorID string) (int64, error) {
	return s.transitionMany(ctx, memberIDs, Command{Action: ActionSuspend, ActorID: actorID})
}

// transitionMany applies cmd to each member in its own transaction. Missing
// members are skipped.
func (s *Service) transitionMany(ctx context.Context, memberIDs []string, cmd Command) (int64, error) {
	var total int64
	for _, id := range memberIDs {
		affected, err := s.transition(ctx, id, cmd)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				continue
			}
			return total, err
		}
		total += affected
	}
	return total, nil
}

func (s *Service) transition(ctx context.Context, memberID string, cmd Command) (int64, error) {
	var affected int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		affected, _, err = s.applyInTx(ctx, tx, memberID, cmd)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.observe(cmd.Action, affected > 0)
	return affected, nil
}

// applyInTx locks the member row, runs Apply and persists the result with a
// status-guarded update. Events are dispatched only when a row changed.
func (s *Service) applyInTx(ctx context.Context, tx Repository, memberID string, cmd Command) (int64, Outcome, error) {
	member, err := tx.GetMemberForUpdate(ctx, memberID)
	if err != nil {
		return 0, Outcome{}, err
	}

	if cmd.Action == ActionApprove || cmd.Action == ActionRenew {
		category, err := tx.GetCategory(ctx, member.CategoryID)
		if err != nil {
			return 0, Outcome{}, err
		}
		cmd.DurationMonths = category.DurationMonths
	}
	cmd.Now = s.now()

	from := member.Status
	outcome, err := Apply(member, cmd)
	if err != nil {
		return 0, Outcome{}, err
	}
	if !outcome.Applied {
		return 0, outcome, nil
	}

	affected, err := tx.UpdateMemberLifecycle(ctx, member, from)
	if err != nil {
		return 0, Outcome{}, err
	}
	if affected == 0 {
		return 0, Outcome{From: from, To: from}, nil
	}

	if err := event.Dispatch(ctx, tx, cmd.Now, outcome.Events...); err != nil {
		return 0, Outcome{}, err
	}
	return affected, outcome, nil
}

// Delete removes a member together with its payments, documents, renewals
// and certificates.
func (s *Service) Delete(ctx context.Context, memberID, actorID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := tx.GetMemberForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if err := tx.DeleteMember(ctx, memberID); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), event.Audit{
			ActorID:     actorID,
			Action:      audit.ActionDelete,
			ModelName:   modelMember,
			ObjectID:    member.ID,
			Description: fmt.Sprintf("Deleted member %s (%s)", member.MembershipID, member.FullName()),
			Metadata:    map[string]any{"membership_id": member.MembershipID},
		})
	})
}

// SendExpiryReminders notifies every approved member in memberIDs that has an
// expiry date and returns the number of notifications created.
func (s *Service) SendExpiryReminders(ctx context.Context, memberIDs []string) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, nil
	}

	var sent int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		members, err := tx.GetMembersByIDs(ctx, memberIDs)
		if err != nil {
			return err
		}

		now := s.now()
		var events []event.Event
		for _, member := range members {
			if member.Status != StatusApproved || member.ExpiryDate == nil {
				continue
			}
			days, _ := member.DaysUntilExpiry(now)
			events = append(events, event.Notify{
				RecipientID: member.UserID,
				Type:        notification.TypeExpiryReminder,
				Title:       "Membership Expiry Reminder",
				Message:     expiryReminderMessage(member, days),
			})
		}
		if err := event.Dispatch(ctx, tx, now, events...); err != nil {
			return err
		}
		sent = int64(len(events))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}

func expiryReminderMessage(member Member, days int) string {
	expiry := formatDate(member.ExpiryDate)
	if days < 0 {
		return fmt.Sprintf("Your membership %s expired on %s. Please renew to restore your membership.", member.MembershipID, expiry)
	}
	return fmt.Sprintf("Your membership %s expires on %s (%d days left). Please renew to keep your membership active.", member.MembershipID, expiry, days)
}

func (s *Service) observe(action Action, applied bool) {
	if s.observer != nil {
		s.observer.ObserveTransition(entityMember, string(action), applied)
	}
}
