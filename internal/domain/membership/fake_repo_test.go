package membership

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sentinel"
	"membership-app-go/internal/domain/sequence"
)

type fakeState struct {
	categories    map[string]Category
	members       map[string]Member
	payments      map[string]billing.Payment
	receipts      map[string]billing.Receipt
	renewals      map[string]Renewal
	certificates  map[string]Certificate
	documents     map[string]Document
	counters      map[string]int64
	audits        []audit.Entry
	notifications []notification.Notification
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s fakeState) clone() fakeState {
	return fakeState{
		categories:    cloneMap(s.categories),
		members:       cloneMap(s.members),
		payments:      cloneMap(s.payments),
		receipts:      cloneMap(s.receipts),
		renewals:      cloneMap(s.renewals),
		certificates:  cloneMap(s.certificates),
		documents:     cloneMap(s.documents),
		counters:      cloneMap(s.counters),
		audits:        append([]audit.Entry(nil), s.audits...),
		notifications: append([]notification.Notification(nil), s.notifications...),
	}
}

// fakeRepo serializes transactions on a mutex, which stands in for the row
// locks Postgres takes, and restores a snapshot when fn fails.
type fakeRepo struct {
	mu        sync.Mutex
	state     fakeState
	countries map[string]bool
	regions   map[string]string

	counterErrs []error
	counterHits int

	completeRenewalErrs []error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		state: fakeState{
			categories: map[string]Category{
				"cat-1": {ID: "cat-1", Name: "Ordinary", AnnualFee: 1000, RegistrationFee: 500, DurationMonths: 12, IsActive: true},
				"cat-2": {ID: "cat-2", Name: "Retired", DurationMonths: 12, IsActive: false},
			},
			members:      map[string]Member{},
			payments:     map[string]billing.Payment{},
			receipts:     map[string]billing.Receipt{},
			renewals:     map[string]Renewal{},
			certificates: map[string]Certificate{},
			documents:    map[string]Document{},
			counters:     map[string]int64{},
		},
		countries: map[string]bool{"ke": true, "tz": true},
		regions:   map[string]string{"nairobi": "ke", "arusha": "tz"},
	}
}

func (r *fakeRepo) Transaction(_ context.Context, fn func(Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.state.clone()
	if err := fn(r); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

func (r *fakeRepo) NextValue(_ context.Context, kind sequence.Kind, scope string) (int64, error) {
	r.counterHits++
	if len(r.counterErrs) > 0 {
		err := r.counterErrs[0]
		r.counterErrs = r.counterErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	key := string(kind) + "/" + scope
	r.state.counters[key]++
	return r.state.counters[key], nil
}

func (r *fakeRepo) AppendAuditLog(_ context.Context, entry *audit.Entry) error {
	r.state.audits = append(r.state.audits, *entry)
	return nil
}

func (r *fakeRepo) CreateNotification(_ context.Context, item *notification.Notification) error {
	r.state.notifications = append(r.state.notifications, *item)
	return nil
}

func (r *fakeRepo) GetMemberRef(_ context.Context, memberID string) (*billing.MemberRef, error) {
	member, ok := r.state.members[memberID]
	if !ok {
		return nil, billing.ErrMemberNotFound
	}
	return &billing.MemberRef{ID: member.ID, UserID: member.UserID, MembershipID: member.MembershipID, FullName: member.FullName()}, nil
}

func (r *fakeRepo) CreatePayment(_ context.Context, payment *billing.Payment) error {
	r.state.payments[payment.ID] = *payment
	return nil
}

func (r *fakeRepo) GetPayment(_ context.Context, id string) (*billing.Payment, error) {
	payment, ok := r.state.payments[id]
	if !ok {
		return nil, billing.ErrPaymentNotFound
	}
	return &payment, nil
}

func (r *fakeRepo) GetPaymentForUpdate(ctx context.Context, id string) (*billing.Payment, error) {
	return r.GetPayment(ctx, id)
}

func (r *fakeRepo) UpdatePaymentStatus(_ context.Context, payment *billing.Payment, from string) (int64, error) {
	stored, ok := r.state.payments[payment.ID]
	if !ok || stored.Status != from {
		return 0, nil
	}
	r.state.payments[payment.ID] = *payment
	return 1, nil
}

func (r *fakeRepo) CreateReceipt(_ context.Context, receipt *billing.Receipt) error {
	r.state.receipts[receipt.PaymentID] = *receipt
	return nil
}

func (r *fakeRepo) ListCategories(_ context.Context, activeOnly bool) ([]Category, error) {
	var items []Category
	for _, category := range r.state.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		items = append(items, category)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *fakeRepo) GetCategory(_ context.Context, id string) (*Category, error) {
	category, ok := r.state.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &category, nil
}

func (r *fakeRepo) CreateCategory(_ context.Context, category *Category) error {
	for _, existing := range r.state.categories {
		if existing.Name == category.Name {
			return sentinel.Unique("name")
		}
	}
	r.state.categories[category.ID] = *category
	return nil
}

func (r *fakeRepo) UpdateCategory(_ context.Context, category *Category) error {
	r.state.categories[category.ID] = *category
	return nil
}

func (r *fakeRepo) DeleteCategory(_ context.Context, id string) error {
	for _, member := range r.state.members {
		if member.CategoryID == id {
			return sentinel.Referenced("members")
		}
	}
	delete(r.state.categories, id)
	return nil
}

func (r *fakeRepo) CountryIsActive(_ context.Context, countryID string) (bool, error) {
	return r.countries[countryID], nil
}

func (r *fakeRepo) RegionBelongsToCountry(_ context.Context, regionID, countryID string) (bool, error) {
	return r.regions[regionID] == countryID, nil
}

func (r *fakeRepo) CreateMember(_ context.Context, member *Member) error {
	for _, existing := range r.state.members {
		if existing.NationalID == member.NationalID {
			return sentinel.Unique("national_id")
		}
		if existing.MembershipID == member.MembershipID {
			return sentinel.Unique("membership_id")
		}
	}
	r.state.members[member.ID] = *member
	return nil
}

func (r *fakeRepo) GetMember(_ context.Context, id string) (*Member, error) {
	member, ok := r.state.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return &member, nil
}

func (r *fakeRepo) GetMemberByUserID(_ context.Context, userID string) (*Member, error) {
	for _, member := range r.state.members {
		if member.UserID == userID {
			m := member
			return &m, nil
		}
	}
	return nil, ErrMemberNotFound
}

func (r *fakeRepo) GetMemberForUpdate(ctx context.Context, id string) (*Member, error) {
	return r.GetMember(ctx, id)
}

func (r *fakeRepo) GetMembersByIDs(_ context.Context, ids []string) ([]Member, error) {
	var items []Member
	for _, id := range ids {
		if member, ok := r.state.members[id]; ok {
			items = append(items, member)
		}
	}
	return items, nil
}

func (r *fakeRepo) UpdateMemberLifecycle(_ context.Context, member *Member, from string) (int64, error) {
	stored, ok := r.state.members[member.ID]
	if !ok || stored.Status != from {
		return 0, nil
	}
	r.state.members[member.ID] = *member
	return 1, nil
}

func (r *fakeRepo) ListMembers(_ context.Context, filter ListFilter) ([]MemberView, int64, error) {
	var items []MemberView
	for _, member := range r.state.members {
		if filter.Status != "" && member.Status != filter.Status {
			continue
		}
		items = append(items, MemberView{Member: member, CategoryName: r.state.categories[member.CategoryID].Name})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].MembershipID < items[j].MembershipID })
	return items, int64(len(items)), nil
}

func (r *fakeRepo) DeleteMember(_ context.Context, id string) error {
	if _, ok := r.state.members[id]; !ok {
		return ErrMemberNotFound
	}
	delete(r.state.members, id)
	for key, payment := range r.state.payments {
		if payment.MemberID == id {
			delete(r.state.payments, key)
		}
	}
	for key, renewal := range r.state.renewals {
		if renewal.MemberID == id {
			delete(r.state.renewals, key)
		}
	}
	for key, certificate := range r.state.certificates {
		if certificate.MemberID == id {
			delete(r.state.certificates, key)
		}
	}
	for key, document := range r.state.documents {
		if document.MemberID == id {
			delete(r.state.documents, key)
		}
	}
	return nil
}

func (r *fakeRepo) CreateRenewal(_ context.Context, renewal *Renewal) error {
	r.state.renewals[renewal.ID] = *renewal
	return nil
}

func (r *fakeRepo) GetRenewalForUpdate(_ context.Context, id string) (*Renewal, error) {
	renewal, ok := r.state.renewals[id]
	if !ok {
		return nil, ErrRenewalNotFound
	}
	return &renewal, nil
}

func (r *fakeRepo) GetRenewalByPayment(_ context.Context, paymentID string) (*Renewal, error) {
	for _, renewal := range r.state.renewals {
		if renewal.PaymentID != nil && *renewal.PaymentID == paymentID {
			rn := renewal
			return &rn, nil
		}
	}
	return nil, ErrRenewalNotFound
}

func (r *fakeRepo) HasPendingRenewal(_ context.Context, memberID string) (bool, error) {
	for _, renewal := range r.state.renewals {
		if renewal.MemberID == memberID && renewal.Status == RenewalPendingPayment {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CompleteRenewal(_ context.Context, renewal *Renewal) (int64, error) {
	if len(r.completeRenewalErrs) > 0 {
		err := r.completeRenewalErrs[0]
		r.completeRenewalErrs = r.completeRenewalErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	stored, ok := r.state.renewals[renewal.ID]
	if !ok || stored.Status != RenewalPendingPayment {
		return 0, nil
	}
	r.state.renewals[renewal.ID] = *renewal
	return 1, nil
}

func (r *fakeRepo) ListRenewals(_ context.Context, memberID string) ([]Renewal, error) {
	var items []Renewal
	for _, renewal := range r.state.renewals {
		if renewal.MemberID == memberID {
			items = append(items, renewal)
		}
	}
	return items, nil
}

func (r *fakeRepo) CreateCertificate(_ context.Context, certificate *Certificate) error {
	r.state.certificates[certificate.ID] = *certificate
	return nil
}

func (r *fakeRepo) ListCertificates(_ context.Context, memberID string) ([]Certificate, error) {
	var items []Certificate
	for _, certificate := range r.state.certificates {
		if certificate.MemberID == memberID {
			items = append(items, certificate)
		}
	}
	return items, nil
}

func (r *fakeRepo) CreateDocument(_ context.Context, document *Document) error {
	r.state.documents[document.ID] = *document
	return nil
}

func (r *fakeRepo) ListDocuments(_ context.Context, memberID string) ([]Document, error) {
	var items []Document
	for _, document := range r.state.documents {
		if document.MemberID == memberID {
			items = append(items, document)
		}
	}
	return items, nil
}

func (r *fakeRepo) VerifyDocuments(_ context.Context, ids []string) (int64, error) {
	var affected int64
	for _, id := range ids {
		document, ok := r.state.documents[id]
		if !ok || document.IsVerified {
			continue
		}
		document.IsVerified = true
		r.state.documents[id] = document
		affected++
	}
	return affected, nil
}

func (r *fakeRepo) auditsFor(objectID string) []audit.Entry {
	var items []audit.Entry
	for _, entry := range r.state.audits {
		if entry.ObjectID == objectID {
			items = append(items, entry)
		}
	}
	return items
}

func (r *fakeRepo) notificationsFor(userID string) []notification.Notification {
	var items []notification.Notification
	for _, item := range r.state.notifications {
		if item.RecipientID == userID {
			items = append(items, item)
		}
	}
	return items
}

type memoryStorage struct {
	files map[string][]byte
}

func (s *memoryStorage) Save(_ context.Context, path string, content io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[path] = buf.Bytes()
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, path string) error {
	delete(s.files, path)
	return nil
}
