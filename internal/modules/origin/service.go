package origin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/fitcoach-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

const issuer = "fitcoach"

var (
	ErrMissingToken = errors.New("missing origin token")
	ErrInvalidToken = errors.New("invalid or expired origin token")
	ErrNoSecret     = errors.New("origin token secret is empty")
)

// Claims carry the origin id as the JWT subject.
type Claims struct {
	jwt.RegisteredClaims
}

type Token struct {
	Token     string    `json:"token"`
	Origin    uuid.UUID `json:"origin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service issues and verifies device tokens. Each token names one client
// installation whose state is kept apart from every other.
type Service interface {
	Issue(ctx context.Context) (Token, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	TTL() time.Duration
}

type service struct {
	log    *logger.Logger
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(log *logger.Logger, secret string, ttl time.Duration) (Service, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &service{
		log:    log.With("service", "OriginService"),
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *service) TTL() time.Duration { return s.ttl }

func (s *service) Issue(ctx context.Context) (Token, error) {
	id := uuid.New()
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign origin token: %w", err)
	}
	s.log.Info("origin issued", "origin", id.String())
	return Token{Token: signed, Origin: id, ExpiresAt: exp.UTC()}, nil
}

func (s *service) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrMissingToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return ctx, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	od := ctxutil.GetOriginData(ctx)
	next := &ctxutil.OriginData{Origin: id}
	if od != nil {
		next.Location = od.Location
	}
	return ctxutil.WithOriginData(ctx, next), nil
}
