package extract

import (
	"context"
	"testing"
)

func TestTextService(t *testing.T) {
	svc := NewTextService()

	text, err := svc.Extract(context.Background(), []byte("PAGE ONE\fPAGE TWO"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "PAGE ONE\fPAGE TWO" {
		t.Errorf("Extract = %q, want passthrough", text)
	}
}

func TestDefault_Memoized(t *testing.T) {
	first := Default()
	second := Default()
	if first == nil {
		t.Fatal("Default() = nil")
	}
	if first != second {
		t.Error("Default() returned different handles across calls")
	}
}
