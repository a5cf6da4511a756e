package transcribe

import (
	"context"
	"testing"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "auto", true},
		{"auto", "auto", true},
		{"en", "en", true},
		{"EN", "en", true},
		{"en-US", "en", true},
		{"deu", "de", true},
		{"pt-BR", "pt", true},
		{"tlh", "", false},
		{"not a language", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeLanguage(tc.in)
		if ok != tc.ok {
			t.Fatalf("NormalizeLanguage(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLanguagesIncludesAutoFirst(t *testing.T) {
	langs := Languages()
	if len(langs) == 0 || langs[0].Code != AutoLanguage {
		t.Fatalf("Languages()[0] = %+v, want auto detect entry", langs)
	}
}

type nopTranscriber struct{}

func (nopTranscriber) Transcribe(ctx context.Context, req Request) (Stream, error) {
	return nil, nil
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry()
	if r.DefaultModel() != "" {
		t.Fatalf("empty registry default = %q, want empty", r.DefaultModel())
	}

	r.Register(ModelInfo{Name: "tiny", Label: "Tiny", EstimateFactor: 2}, nopTranscriber{})
	r.Register(ModelInfo{Name: "small", Label: "Small", EstimateFactor: 6}, nopTranscriber{})

	if got := r.DefaultModel(); got != "tiny" {
		t.Fatalf("DefaultModel() = %q, want tiny", got)
	}
	if !r.Has("small") || r.Has("large") {
		t.Fatal("Has() lookup wrong")
	}
	models := r.Models()
	if len(models) != 2 || models[0].Name != "tiny" || models[1].Name != "small" {
		t.Fatalf("Models() = %+v, want registration order", models)
	}
	if _, ok := r.Get("large"); ok {
		t.Fatal("Get() returned a transcriber for an unknown model")
	}
}

func TestRegistryEstimateSeconds(t *testing.T) {
	r := NewRegistry()
	r.Register(ModelInfo{Name: "tiny", Label: "Tiny", EstimateFactor: 2}, nopTranscriber{})

	if got := r.EstimateSeconds("tiny", 10*1024*1024); got != 20 {
		t.Fatalf("EstimateSeconds() = %v, want 20", got)
	}
	if got := r.EstimateSeconds("unknown", 1024); got != 0 {
		t.Fatalf("EstimateSeconds(unknown) = %v, want 0", got)
	}
}
