package ctxutil

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type originDataKey struct{}

// OriginData identifies the client installation a request acts for.
// Location is the client's calendar zone; nil means the server default.
type OriginData struct {
	Origin   uuid.UUID
	Location *time.Location
}

func WithOriginData(ctx context.Context, od *OriginData) context.Context {
	return context.WithValue(ctx, originDataKey{}, od)
}

func GetOriginData(ctx context.Context) *OriginData {
	val := ctx.Value(originDataKey{})
	if od, ok := val.(*OriginData); ok {
		return od
	}
	return nil
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
