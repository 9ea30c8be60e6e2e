package core_test

import (
	"errors"
	"testing"

	"github.com/itisrmk/pit/pkg/core"
)

func TestComputeFingerprint_Deterministic(t *testing.T) {
	a := core.ComputeFingerprint([]byte("You are a helpful assistant."))
	b := core.ComputeFingerprint([]byte("You are a helpful assistant."))
	if a != b {
		t.Fatalf("same content produced different fingerprints: %s vs %s", a, b)
	}

	c := core.ComputeFingerprint([]byte("You are a helpful assistant!"))
	if a == c {
		t.Fatalf("different content produced identical fingerprints: %s", a)
	}

	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprint_Short(t *testing.T) {
	fp := core.ComputeFingerprint([]byte("content"))
	if got := fp.Short(); got != string(fp[:8]) {
		t.Errorf("Short() = %q, want first 8 chars of %q", got, fp)
	}
	if got := core.Fingerprint("abc").Short(); got != "abc" {
		t.Errorf("Short() on short input = %q, want %q", got, "abc")
	}
}

func TestErrors_Unwrap(t *testing.T) {
	nf := &core.NotFoundError{Kind: "artifact", Key: "support"}
	if !errors.Is(nf, core.ErrNotFound) {
		t.Error("NotFoundError should unwrap to ErrNotFound")
	}

	re := &core.RangeError{Sequence: 9, Low: 1, High: 5, Err: core.ErrOutOfRange}
	if !errors.Is(re, core.ErrOutOfRange) {
		t.Error("RangeError should unwrap to its cause")
	}
}

func TestVersion_Clone(t *testing.T) {
	v := core.Version{
		Sequence: 3,
		Tags:     []string{"production"},
		Metrics:  map[string]float64{"success_rate": 0.92},
	}
	c := v.Clone()
	c.Tags[0] = "staging"
	c.Metrics["success_rate"] = 0.1

	if v.Tags[0] != "production" {
		t.Error("Clone shares the tag slice")
	}
	if v.Metrics["success_rate"] != 0.92 {
		t.Error("Clone shares the metric map")
	}
}
