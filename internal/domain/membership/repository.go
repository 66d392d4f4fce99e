package membership

import (
	"context"
	"io"

	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/sequence"
)

type Repository interface {
	sequence.Counter
	event.Sink
	billing.TransitionStore

	Transaction(ctx context.Context, fn func(Repository) error) error

	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id string) error

	CountryIsActive(ctx context.Context, countryID string) (bool, error)
	RegionBelongsToCountry(ctx context.Context, regionID, countryID string) (bool, error)

	CreateMember(ctx context.Context, member *Member) error
	GetMember(ctx context.Context, id string) (*Member, error)
	GetMemberByUserID(ctx context.Context, userID string) (*Member, error)
	GetMemberForUpdate(ctx context.Context, id string) (*Member, error)
	GetMembersByIDs(ctx context.Context, ids []string) ([]Member, error)
	// UpdateMemberLifecycle writes the lifecycle columns of member only while
	// the stored status still equals from and returns the affected row count.
	UpdateMemberLifecycle(ctx context.Context, member *Member, from string) (int64, error)
	ListMembers(ctx context.Context, filter ListFilter) ([]MemberView, int64, error)
	DeleteMember(ctx context.Context, id string) error

	CreateRenewal(ctx context.Context, renewal *Renewal) error
	GetRenewalForUpdate(ctx context.Context, id string) (*Renewal, error)
	GetRenewalByPayment(ctx context.Context, paymentID string) (*Renewal, error)
	HasPendingRenewal(ctx context.Context, memberID string) (bool, error)
	CompleteRenewal(ctx context.Context, renewal *Renewal) (int64, error)
	ListRenewals(ctx context.Context, memberID string) ([]Renewal, error)

	CreateCertificate(ctx context.Context, certificate *Certificate) error
	ListCertificates(ctx context.Context, memberID string) ([]Certificate, error)

	CreateDocument(ctx context.Context, document *Document) error
	ListDocuments(ctx context.Context, memberID string) ([]Document, error)
	VerifyDocuments(ctx context.Context, ids []string) (int64, error)
}

// Storage keeps uploaded document files.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Delete(ctx context.Context, path string) error
}

// Observer receives lifecycle transition outcomes. metrics.Metrics
// satisfies it.
type Observer interface {
	ObserveTransition(entity, action string, applied bool)
}
