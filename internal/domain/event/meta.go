package event

import "context"

// RequestMeta is copied onto audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
