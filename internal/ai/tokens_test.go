package ai

import "testing"

func TestTokenizerCount(t *testing.T) {
	tk := NewTokenizer("")
	if n := tk.Count("Hello, world!", ""); n != 4 {
		t.Fatalf("Count = %d, want 4", n)
	}
	if n := tk.Count("", "gpt-4"); n != 0 {
		t.Fatalf("empty text = %d", n)
	}
}

func TestTokenizerFallsBackForUnknownModel(t *testing.T) {
	tk := NewTokenizer("gpt-4")
	known := tk.Count("The quick brown fox jumps over the lazy dog", "gpt-4")
	unknown := tk.Count("The quick brown fox jumps over the lazy dog", "my-private-model")
	if known == 0 || unknown != known {
		t.Fatalf("known=%d unknown=%d", known, unknown)
	}
}

func TestTokenizerMemoIsBounded(t *testing.T) {
	tk := NewTokenizer("")
	for i := 0; i < 25; i++ {
		tk.Count(string(rune('a'+i)), "")
	}
	if tk.memo.Len() != tokenMemoSize {
		t.Fatalf("memo holds %d entries, want %d", tk.memo.Len(), tokenMemoSize)
	}
}

func TestServiceCountTokens(t *testing.T) {
	svc := NewService(&fakeRuntime{}, ServiceOptions{})
	if n := svc.CountTokens("Hello, world!", ""); n <= 0 {
		t.Fatalf("CountTokens = %d", n)
	}
}
