package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"scriptgen/internal/analysis"
	"scriptgen/internal/app"
	"scriptgen/internal/youtube"
	"scriptgen/pkg/prompts"
)

func TestMergeImportKeepsExplicitFlags(t *testing.T) {
	t.Cleanup(func() {
		scriptParams = prompts.ScriptParams{}
		scriptCmd.Flags().Lookup("niche").Changed = false
	})

	if err := scriptCmd.Flags().Set("niche", "Investimentos"); err != nil {
		t.Fatal(err)
	}
	scriptParams.Duration = "8"
	scriptParams.Style = "Educativo"

	imp := &app.Import{
		Metadata: &youtube.Metadata{Title: "Como investir em ETFs"},
		Analysis: analysis.ScriptAnalysis{Niche: "Finanças", Subniche: "etf", Qualified: true},
	}
	params := mergeImport(scriptCmd, imp, "https://youtu.be/abc123")

	if params.Niche != "Investimentos" {
		t.Errorf("Niche = %q, want the explicit flag", params.Niche)
	}
	if params.Subniche != "etf" || !params.Qualified {
		t.Errorf("imported fields = %+v", params)
	}
	if params.Topic != "Como investir em ETFs" || params.YouTubeLink != "https://youtu.be/abc123" {
		t.Errorf("params = %+v", params)
	}
	if params.Duration != "8" || params.Style != "Educativo" {
		t.Errorf("flags lost: %+v", params)
	}
}

func TestReadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roteiro.txt")
	if err := os.WriteFile(path, []byte("# Introdução\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readScript(path)
	if err != nil {
		t.Fatalf("readScript() error: %v", err)
	}
	if got != "# Introdução\n" {
		t.Errorf("readScript() = %q", got)
	}

	if _, err := readScript(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSelectTopics(t *testing.T) {
	base := func() []analysis.Topic {
		return []analysis.Topic{
			analysis.NewTopic("topic-0", "Abertura"),
			analysis.NewTopic("topic-1", "Mercado"),
			analysis.NewTopic("topic-2", "Conclusão"),
		}
	}

	t.Run("all", func(t *testing.T) {
		topics, numbers, err := selectTopics(base(), nil, nil)
		if err != nil {
			t.Fatalf("selectTopics() error: %v", err)
		}
		if len(topics) != 3 || numbers[0] != 1 || numbers[2] != 3 {
			t.Errorf("got %d topics, numbers %v", len(topics), numbers)
		}
	})

	t.Run("onlyWithPrompt", func(t *testing.T) {
		topics, numbers, err := selectTopics(base(), []int{3, 3}, []string{"3= um farol ao entardecer "})
		if err != nil {
			t.Fatalf("selectTopics() error: %v", err)
		}
		if len(topics) != 1 || numbers[0] != 3 {
			t.Fatalf("got %d topics, numbers %v", len(topics), numbers)
		}
		if topics[0].Prompt != "um farol ao entardecer" || topics[0].Title() != "Conclusão" {
			t.Errorf("topic = %q / %q", topics[0].Title(), topics[0].Prompt)
		}
	})

	invalid := []struct {
		name      string
		only      []int
		overrides []string
	}{
		{"onlyOutOfRange", []int{4}, nil},
		{"promptWithoutNumber", nil, []string{"farol"}},
		{"promptOutOfRange", nil, []string{"0=farol"}},
		{"emptyPrompt", nil, []string{"2= "}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := selectTopics(base(), tt.only, tt.overrides); err == nil {
				t.Error("expected error")
			}
		})
	}
}
