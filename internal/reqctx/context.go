package reqctx

import "context"

type ctxKey string

const (
	keyRID       ctxKey = "rid"
	keyListingID ctxKey = "listing_id"
)

// WithRID stores the request correlation id for logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

func WithListingID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyListingID, id)
}

// ListingID returns listing id if present.
func ListingID(ctx context.Context) string {
	v, _ := ctx.Value(keyListingID).(string)
	return v
}
