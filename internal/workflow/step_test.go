package workflow

import "testing"

func TestStepsInLifecycleOrder(t *testing.T) {
	want := []string{"issue", "accrue", "pay_coupon", "observe_price", "convert"}
	if len(Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(Steps))
	}
	for i, s := range Steps {
		if s.String() != want[i] {
			t.Fatalf("step %d is %q, want %q", i, s, want[i])
		}
	}
}

func TestParseStep(t *testing.T) {
	for _, s := range Steps {
		parsed, ok := ParseStep(s.String())
		if !ok || parsed != s {
			t.Fatalf("parse %q: got %v, %v", s, parsed, ok)
		}
	}
	if _, ok := ParseStep("mature"); ok {
		t.Fatal("unknown step name should not parse")
	}
}
