package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAsUnwrapsWrappedError(t *testing.T) {
	t.Parallel()

	base := New(CodeInsufficientInventory, "listing has 2 units left").
		WithDetails(map[string]any{"listing_id": "abc", "requested": 5})
	wrapped := fmt.Errorf("checkout failed: %w", base)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficientInventory {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if typed.Details() == nil {
		t.Fatal("expected details to survive wrapping")
	}
}

func TestMetadataForDomainCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeInsufficientInventory, http.StatusConflict, true},
		{CodeInvalidTransition, http.StatusUnprocessableEntity, false},
		{CodeNotCancellable, http.StatusUnprocessableEntity, false},
		{CodeReturnWindowExpired, http.StatusUnprocessableEntity, false},
		{CodeConcurrentModification, http.StatusConflict, true},
		{Code("UNKNOWN"), http.StatusInternalServerError, true},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", New(CodeNotCancellable, "order shipped"))
	if !IsCode(err, CodeNotCancellable) {
		t.Fatal("expected IsCode to match through wrapping")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("unexpected code match")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatal("nil error must not match")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeDependency, fmt.Errorf("driver: connection reset"), "update inventory")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(dump.Chain))
	}
}
