package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scriptgen/internal/generation"
	"scriptgen/internal/provider"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(map[string]string{"openai_api_key": "sk-1"})

	if v, ok, _ := m.Get(ctx, "openai_api_key"); !ok || v != "sk-1" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
	if _, ok, _ := m.Get(ctx, "claude_api_key"); ok {
		t.Error("expected missing slot")
	}
	if err := m.Set(ctx, "claude_api_key", "sk-2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _, _ := m.Get(ctx, "claude_api_key"); v != "sk-2" {
		t.Errorf("Get() after Set = %q", v)
	}
	if err := m.Set(ctx, "", "x"); !errors.Is(err, ErrEmptySlot) {
		t.Errorf("Set(\"\") error = %v", err)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GROK_API_KEY", "")

	ctx := context.Background()
	if v, ok, _ := (Env{}).Get(ctx, "gemini_api_key"); !ok || v != "g-key" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
	if _, ok, _ := (Env{}).Get(ctx, "grok_api_key"); ok {
		t.Error("empty variable should read as missing")
	}
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.env")
	f := NewFile(path)

	if _, ok, err := f.Get(ctx, "openai_api_key"); ok || err != nil {
		t.Fatalf("Get() on missing file = %v, %v", ok, err)
	}

	if err := f.Set(ctx, "openai_api_key", "sk-abc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.Set(ctx, "leonardo_api_key", "leo"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if v, ok, _ := NewFile(path).Get(ctx, "openai_api_key"); !ok || v != "sk-abc" {
		t.Errorf("Get() = %q, %v", v, ok)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "OPENAI_API_KEY") || !strings.Contains(string(data), "LEONARDO_API_KEY") {
		t.Errorf("unexpected file content %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	first := NewMemory(nil)
	second := NewMemory(map[string]string{"mistral_api_key": "m-1", "deepseek_api_key": "d-2"})
	chain := Chain{first, second}

	if v, ok, _ := chain.Get(ctx, "mistral_api_key"); !ok || v != "m-1" {
		t.Errorf("Get() = %q, %v", v, ok)
	}

	if err := chain.Set(ctx, "mistral_api_key", "m-new"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := chain.Get(ctx, "mistral_api_key"); v != "m-new" {
		t.Errorf("first store should win, got %q", v)
	}
	if v, _, _ := second.Get(ctx, "mistral_api_key"); v != "m-1" {
		t.Errorf("second store should be untouched, got %q", v)
	}

	if err := (Chain{}).Set(ctx, "x", "y"); err == nil {
		t.Error("expected error for empty chain")
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("backend down")
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	desc, _ := provider.Default().Lookup(provider.Perplexity)

	tests := []struct {
		name     string
		store    Store
		want     string
		wantKind generation.Kind
	}{
		{"present", NewMemory(map[string]string{"perplexity_api_key": " pplx "}), "pplx", ""},
		{"absent", NewMemory(nil), "", generation.KindCredentialMissing},
		{"blank", NewMemory(map[string]string{"perplexity_api_key": "   "}), "", generation.KindCredentialMissing},
		{"nilStore", nil, "", generation.KindCredentialMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ctx, tt.store, desc)
			if generation.KindOf(err) != tt.wantKind {
				t.Fatalf("error = %v, want kind %q", err, tt.wantKind)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Resolve(ctx, failingStore{}, desc); err == nil || errors.Is(err, generation.ErrCredentialMissing) {
		t.Errorf("backend errors should surface as is, got %v", err)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("youtube_api_key"); got != "YOUTUBE_API_KEY" {
		t.Errorf("EnvName() = %q", got)
	}
	if got := EnvName("my-slot.v2"); got != "MY_SLOT_V2" {
		t.Errorf("EnvName() = %q", got)
	}
}
