package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMembership  Kind = "membership"
	KindReceipt     Kind = "receipt"
	KindCertificate Kind = "certificate"
)

const (
	DefaultMembershipPrefix = "KTS"
	ReceiptPrefix           = "RCT"
	CertificatePrefix       = "CERT"
	PaymentPrefix           = "PAY"

	minDigits = 4
)

// Counter returns the next value for (kind, scope). Implementations must
// increment atomically inside the caller's transaction so that a rollback
// returns the number to the pool.
type Counter interface {
	NextValue(ctx context.Context, kind Kind, scope string) (int64, error)
}

// Observer receives allocation outcomes. metrics.Metrics satisfies it.
type Observer interface {
	Allocated(kind string)
	Conflict(kind string)
}

type Option func(*Allocator)

func WithMembershipPrefix(prefix string) Option {
	return func(a *Allocator) {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix != "" {
			a.prefixes[KindMembership] = prefix
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(a *Allocator) {
		a.observer = observer
	}
}

type Allocator struct {
	prefixes map[Kind]string
	observer Observer
}

func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		prefixes: map[Kind]string{
			KindMembership:  DefaultMembershipPrefix,
			KindReceipt:     ReceiptPrefix,
			KindCertificate: CertificatePrefix,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allocator) Prefix(kind Kind) string {
	return a.prefixes[kind]
}

// Allocate draws the next value from counter and renders the identifier.
// counter must be bound to the transaction that persists the owning record.
func (a *Allocator) Allocate(ctx context.Context, counter Counter, kind Kind, scope string) (string, error) {
	prefix, ok := a.prefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown sequence kind %q", kind)
	}

	value, err := counter.NextValue(ctx, kind, scope)
	if err != nil {
		if a.observer != nil && isConflict(err) {
			a.observer.Conflict(string(kind))
		}
		return "", err
	}
	if value <= 0 {
		return "", fmt.Errorf("%w: %d for %s/%s", ErrInvalidSequence, value, kind, scope)
	}

	if a.observer != nil {
		a.observer.Allocated(string(kind))
	}
	return Format(prefix, scope, value), nil
}

// Format renders PREFIX-SCOPE-NNNN. Values above 9999 widen instead of wrapping.
func Format(prefix, scope string, value int64) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, scope, minDigits, value)
}

// Parse splits an identifier produced by Format.
func Parse(identifier string) (prefix, scope string, value int64, err error) {
	parts := strings.Split(identifier, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || len(parts[2]) < minDigits {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	value, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil || value <= 0 {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return parts[0], parts[1], value, nil
}

// YearScope is the counter scope for identifiers issued at t.
func YearScope(t time.Time) string {
	return strconv.Itoa(t.UTC().Year())
}

// PaymentReference returns PAY-YYYYMMDD-XXXXXXXX with a random suffix.
// References do not use a counter and never contend.
func PaymentReference(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", PaymentPrefix, now.UTC().Format("20060102"), strings.ToUpper(suffix))
}

func isConflict(err error) bool {
	return errors.Is(err, ErrAllocationConflict)
}
