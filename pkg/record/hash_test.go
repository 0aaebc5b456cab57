package record

import (
	"strings"
	"testing"
)

func TestCanonicalHash_Deterministic(t *testing.T) {
	a, err := CanonicalHash(map[string]any{"threshold": 0.95, "mode": "strict"})
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	b, err := CanonicalHash(map[string]any{"mode": "strict", "threshold": 0.95})
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if a != b {
		t.Errorf("key order changed the hash: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "sha256:") {
		t.Errorf("expected sha256 prefix, got %s", a)
	}
}

func TestCanonicalHash_DistinguishesValues(t *testing.T) {
	a, _ := CanonicalHash(map[string]any{"threshold": "0.8"})
	b, _ := CanonicalHash(map[string]any{"threshold": "0.95"})
	if a == b {
		t.Error("different payloads produced the same hash")
	}
}
