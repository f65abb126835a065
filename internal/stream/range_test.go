package stream

import (
	"errors"
	"testing"
)

func TestValidateRange(t *testing.T) {
	valid := []string{
		"",
		"bytes=0-999",
		"bytes=500-",
		"bytes=-500",
		"bytes=0-0",
		"bytes=0-99, 200-299",
		"Bytes=10-20",
		"bytes=9999999-",
	}
	for _, header := range valid {
		if err := ValidateRange(header); err != nil {
			t.Errorf("ValidateRange(%q) returned %v", header, err)
		}
	}

	invalid := []string{
		"0-999",
		"items=0-5",
		"bytes=",
		"bytes=-",
		"bytes=abc-def",
		"bytes=10-5",
		"bytes=+1-5",
		"bytes=0-99,",
		"bytes=5",
	}
	for _, header := range invalid {
		err := ValidateRange(header)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("ValidateRange(%q) = %v, want ErrInvalidRange", header, err)
		}
	}
}

func TestUpstreamErrorMatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&UpstreamError{Op: "fetch upstream", Err: cause})

	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatal("expected upstream error to match ErrUpstreamUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected upstream error to match its cause")
	}
	if got := err.Error(); got != "fetch upstream: connection refused" {
		t.Fatalf("unexpected message %q", got)
	}
}
