package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	tc := []struct {
		name  string
		value string
		set   bool
		want  time.Duration
	}{
		{name: "whole seconds", value: "5", set: true, want: 5 * time.Second},
		{name: "zero", value: "0", set: true, want: 0},
		{name: "padded", value: " 2 ", set: true, want: 2 * time.Second},
		{name: "missing header", want: 0},
		{name: "http date", value: "Wed, 21 Oct 2015 07:28:00 GMT", set: true, want: 0},
		{name: "negative", value: "-3", set: true, want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.set {
				h.Set("Retry-After", tt.value)
			}
			if got := ParseRetryAfter(h); got != tt.want {
				t.Errorf("ParseRetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nil header", func(t *testing.T) {
		if got := ParseRetryAfter(nil); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})
}

func TestSleep(t *testing.T) {
	t.Run("Returns On Cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Zero Duration", func(t *testing.T) {
		if err := Sleep(context.Background(), 0); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("CapWait", func(t *testing.T) {
		if got := CapWait(10*time.Second, 3*time.Second); got != 3*time.Second {
			t.Errorf("expected cap, got %v", got)
		}
		if got := CapWait(10*time.Second, 0); got != 10*time.Second {
			t.Errorf("expected uncapped, got %v", got)
		}
	})
}

func TestAuthError(t *testing.T) {
	cause := fmt.Errorf("status 401")
	err := fmt.Errorf("fetch playlists: %w", NewAuthError(KindUnauthenticated, "playlists", cause))

	if !errors.Is(err, ErrUnauthenticated) {
		t.Error("expected errors.Is to match the kind sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	if KindOf(err) != KindUnauthenticated {
		t.Errorf("expected unauthenticated, got %s", KindOf(err))
	}

	t.Run("KindOf Fallbacks", func(t *testing.T) {
		if KindOf(fmt.Errorf("wrap: %w", ErrFatal)) != KindFatal {
			t.Error("expected fatal")
		}
		if KindOf(fmt.Errorf("dial tcp: refused")) != KindTransport {
			t.Error("expected transport")
		}
		if KindRateLimited.String() != "rate_limited" {
			t.Errorf("unexpected String() %q", KindRateLimited.String())
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	name, args, err := browserCommand("linux", "http://x")
	if err != nil || name != "xdg-open" || args[0] != "http://x" {
		t.Errorf("unexpected linux command %s %v %v", name, args, err)
	}
	if _, _, err := browserCommand("plan9", "http://x"); err == nil {
		t.Error("expected unsupported platform error")
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, _ := GenerateState()
	if a == b || len(a) != 32 {
		t.Errorf("expected distinct 32-char states, got %q %q", a, b)
	}
}
