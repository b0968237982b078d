package origin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/fitcoach-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

func newTestService(t *testing.T, ttl time.Duration) *service {
	t.Helper()
	svc, err := NewService(logger.Nop(), "test-secret", ttl)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc.(*service)
}

func TestIssueThenVerify(t *testing.T) {
	svc := newTestService(t, time.Hour)
	tok, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.Origin == uuid.Nil {
		t.Fatalf("origin: want non-nil")
	}
	loc := time.FixedZone("UTC+8", 8*3600)
	base := ctxutil.WithOriginData(context.Background(), &ctxutil.OriginData{Location: loc})
	ctx, err := svc.SetContextFromToken(base, tok.Token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	od := ctxutil.GetOriginData(ctx)
	if od == nil || od.Origin != tok.Origin {
		t.Fatalf("origin: want=%s got=%v", tok.Origin, od)
	}
	if od.Location != loc {
		t.Fatalf("location: want the request zone to survive")
	}
}

func TestVerifyRejects(t *testing.T) {
	svc := newTestService(t, time.Hour)
	tok, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := newTestService(t, time.Hour)
	other.secret = []byte("another-secret")

	expired := newTestService(t, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name  string
		svc   *service
		token string
		want  error
	}{
		{"empty", svc, "", ErrMissingToken},
		{"garbage", svc, "not.a.jwt", ErrInvalidToken},
		{"wrong secret", other, tok.Token, ErrInvalidToken},
		{"expired", svc, old.Token, ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.svc.SetContextFromToken(context.Background(), tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err: want=%v got=%v", tc.want, err)
			}
		})
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(logger.Nop(), "", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("err: want=%v got=%v", ErrNoSecret, err)
	}
}
