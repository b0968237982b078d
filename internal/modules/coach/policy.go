package coach

import (
	"fmt"
	"strings"
	"time"
)

// ChatFailurePolicy decides what a failed consultant call does to the transcript.
type ChatFailurePolicy string

const (
	// SubstituteMessage appends a model message apologising for the failure
	// and reports success, so the conversation keeps flowing.
	SubstituteMessage ChatFailurePolicy = "substitute"
	// Propagate leaves the transcript at the user message and returns the error.
	Propagate ChatFailurePolicy = "propagate"
)

func ParseChatFailurePolicy(s string) (ChatFailurePolicy, error) {
	switch ChatFailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SubstituteMessage:
		return SubstituteMessage, nil
	case Propagate:
		return Propagate, nil
	default:
		return "", fmt.Errorf("unknown chat failure policy %q", s)
	}
}

// SyncPolicy lists which profile fields a saved metric overwrites. Only values
// the metric actually carries are copied.
type SyncPolicy struct {
	Weight  bool
	BodyFat bool
}

const (
	GreetingText        = "你好！我是你的 AI 健身教練。計畫已生成，準備好開始改變了嗎？"
	ChatFallbackText    = "連線錯誤，請稍後再試。"
	GenerationAlertText = "生成失敗，請檢查網路連線。"
)

// HubConfig bounds how many origin controllers stay in memory.
type HubConfig struct {
	MaxResident int
	IdleTTL     time.Duration
}

type Config struct {
	Language          string
	ChatFailurePolicy ChatFailurePolicy
	Sync              SyncPolicy
	ResetTTL          time.Duration
	// GenerationTimeout bounds a shared plan generation once it no longer
	// follows the caller that started it.
	GenerationTimeout time.Duration
	Hub               HubConfig
}

func DefaultConfig() Config {
	return Config{
		Language:          DefaultLanguage,
		ChatFailurePolicy: SubstituteMessage,
		Sync:              SyncPolicy{Weight: true},
		ResetTTL:          2 * time.Minute,
		GenerationTimeout: 3 * time.Minute,
		Hub:               HubConfig{MaxResident: 10000, IdleTTL: 30 * time.Minute},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.ChatFailurePolicy == "" {
		c.ChatFailurePolicy = d.ChatFailurePolicy
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = d.ResetTTL
	}
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = d.GenerationTimeout
	}
	if c.Hub.MaxResident <= 0 {
		c.Hub.MaxResident = d.Hub.MaxResident
	}
	if c.Hub.IdleTTL <= 0 {
		c.Hub.IdleTTL = d.Hub.IdleTTL
	}
	return c
}
