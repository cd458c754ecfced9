package orders

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.March, 9, 14, 0, 0, 0, time.UTC)
	number, err := GenerateOrderNumber(at)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(number) != 14 {
		t.Fatalf("unexpected length %d for %q", len(number), number)
	}
	if !strings.HasPrefix(number, "GT260309") {
		t.Fatalf("unexpected date segment in %q", number)
	}
	if !ValidOrderNumber(number) {
		t.Fatalf("generated number %q fails validation", number)
	}
}

func TestGenerateOrderNumberVaries(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 64)
	now := time.Now()
	for i := 0; i < 64; i++ {
		number, err := GenerateOrderNumber(now)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		seen[number] = struct{}{}
	}
	// 3 random bytes make 64 collisions vanishingly unlikely.
	if len(seen) < 60 {
		t.Fatalf("expected distinct numbers, got %d unique of 64", len(seen))
	}
}

func TestValidOrderNumberRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		"",
		"GT260309",
		"XX260309A1B2C3",
		"GT260309a1b2c3",
		"GT2603091G2H3I",
		"GT260309A1B2C3D4",
	} {
		if ValidOrderNumber(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
