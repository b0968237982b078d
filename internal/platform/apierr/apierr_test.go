package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsWrappedError(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("handler: %w", New(http.StatusConflict, "busy", base).WithField("plan"))

	ae, ok := From(wrapped)
	if !ok {
		t.Fatalf("From: want ok")
	}
	if ae.Status != http.StatusConflict || ae.Code != "busy" || ae.Field != "plan" {
		t.Fatalf("From: got=%+v", ae)
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("errors.Is: want the cause to stay reachable")
	}
	if ae.Error() != "boom" {
		t.Fatalf("Error: want=%q got=%q", "boom", ae.Error())
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("status fallback: got=%q", got)
	}
	if got := New(0, "code_only", nil).Error(); got != "code_only" {
		t.Fatalf("code fallback: got=%q", got)
	}
	if _, ok := From(errors.New("plain")); ok {
		t.Fatalf("From: plain error must not match")
	}
}
