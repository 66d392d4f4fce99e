package billing

import (
	"context"

	"membership-app-go/internal/domain/event"
	"membership-app-go/internal/domain/sequence"
)

// PaymentStore is the storage CreateInTx needs. Other domains that create
// payments inside their own transactions implement it.
type PaymentStore interface {
	event.Sink
	GetMemberRef(ctx context.Context, memberID string) (*MemberRef, error)
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// TransitionStore is the storage payment transitions and receipts need.
// Domains that complete payments inside their own transactions implement it.
type TransitionStore interface {
	PaymentStore
	sequence.Counter

	GetPaymentForUpdate(ctx context.Context, id string) (*Payment, error)
	// UpdatePaymentStatus writes payment's mutable columns only while the
	// stored status still equals from, and returns the affected row count.
	UpdatePaymentStatus(ctx context.Context, payment *Payment, from string) (int64, error)
	CreateReceipt(ctx context.Context, receipt *Receipt) error
}

type Repository interface {
	TransitionStore

	Transaction(ctx context.Context, fn func(Repository) error) error
	GetPaymentByReference(ctx context.Context, reference string) (*Payment, error)
	GetReceiptByPayment(ctx context.Context, paymentID string) (*Receipt, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]PaymentView, int64, error)
}
