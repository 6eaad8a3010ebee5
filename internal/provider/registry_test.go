package provider

import "testing"

func TestDefaultCatalogue(t *testing.T) {
	r := Default()

	text := r.List(KindText)
	if len(text) != 7 {
		t.Fatalf("expected 7 text providers, got %d", len(text))
	}

	wantOrder := []string{Gemini, OpenAI, Claude, Grok, Mistral, DeepSeek, Perplexity}
	for i, d := range text {
		if d.ID != wantOrder[i] {
			t.Errorf("text[%d] = %q, want %q", i, d.ID, wantOrder[i])
		}
		if d.CredentialSlot != d.ID+"_api_key" {
			t.Errorf("%s slot = %q", d.ID, d.CredentialSlot)
		}
	}

	leo, ok := r.Lookup(Leonardo)
	if !ok || leo.Kind != KindImage {
		t.Fatalf("leonardo missing or wrong kind: %+v", leo)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Descriptor{ID: "a"}, Descriptor{ID: "a"})
	if err == nil {
		t.Error("expected duplicate id error")
	}

	_, err = NewRegistry(Descriptor{ID: ""})
	if err == nil {
		t.Error("expected empty id error")
	}
}

func TestWithEndpointCopies(t *testing.T) {
	r := Default()
	patched := r.WithEndpoint(OpenAI, "http://localhost:1234")

	orig, _ := r.Lookup(OpenAI)
	got, _ := patched.Lookup(OpenAI)

	if got.Endpoint != "http://localhost:1234" {
		t.Errorf("patched endpoint = %q", got.Endpoint)
	}
	if orig.Endpoint == got.Endpoint {
		t.Error("original registry was mutated")
	}
	if len(patched.IDs()) != len(r.IDs()) {
		t.Error("patched registry lost entries")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Default().Lookup("nope"); ok {
		t.Error("expected unknown provider lookup to fail")
	}
}
