package requestid

import "testing"

func TestNew_Unique(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	b, err := New()
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if len(a) != 32 {
		t.Fatalf("len=%d, want 32", len(a))
	}
	if a == b {
		t.Fatalf("New() returned the same id twice: %q", a)
	}
}
