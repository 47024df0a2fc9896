package token

import "testing"

func TestGenerateLength(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(tok) != Length {
		t.Fatalf("len(token) = %d, want %d", len(tok), Length)
	}
	for _, c := range tok {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("token %q contains non-hex character %q", tok, c)
		}
	}
}

func TestGenerateIsNotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[tok] = true
	}
	if len(seen) < 15 {
		t.Fatalf("expected mostly-distinct tokens across 20 draws, got %d distinct", len(seen))
	}
}
