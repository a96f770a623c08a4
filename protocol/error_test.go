package protocol

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeMessages(t *testing.T) {
	for code := range errorMessages {
		if code.Error() == "" {
			t.Error("Empty message for error code", int(code))
		}
	}
	if ErrorCode(0).Error() != "[keylink] Unknown error" {
		t.Error("Unexpected message for an unknown code")
	}
}

func TestErrorCodeWrapping(t *testing.T) {
	err := fmt.Errorf("getChain: %w", ErrMalformedResponse)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatal("Expect the wrapped code to match")
	}
	if errors.Is(err, ErrMalformedLink) {
		t.Fatal("Unexpected match with another code")
	}
}
