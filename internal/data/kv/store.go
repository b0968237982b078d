package kv

import (
	"context"
	"errors"
)

// Persisted keys. Each holds one JSON document.
const (
	KeyFitnessPlan    = "fitnessPlan"
	KeyUserProfile    = "userProfile"
	KeyCheckInDates   = "checkInDates"
	KeyMetricsHistory = "metricsHistory"
)

// Keys lists every key the coach state uses.
var Keys = []string{KeyFitnessPlan, KeyUserProfile, KeyCheckInDates, KeyMetricsHistory}

var ErrEmptyOrigin = errors.New("kv: origin is required")

// Store is an origin-scoped string key/value store. Values have no TTL and
// no version; SetMany and Clear are atomic.
type Store interface {
	Get(ctx context.Context, origin, key string) (value string, ok bool, err error)
	Set(ctx context.Context, origin, key, value string) error
	SetMany(ctx context.Context, origin string, values map[string]string) error
	// Remove deletes one key. Coach state is only ever cleared as a whole,
	// so the controller never calls it.
	Remove(ctx context.Context, origin, key string) error
	Clear(ctx context.Context, origin string) error
	Close() error
}

func checkOrigin(origin string) error {
	if origin == "" {
		return ErrEmptyOrigin
	}
	return nil
}
