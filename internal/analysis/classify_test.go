package analysis

import (
	"testing"

	"scriptgen/pkg/prompts"
)

func TestClassify(t *testing.T) {
	taxonomy := DefaultTaxonomy()

	tests := []struct {
		name      string
		text      string
		tags      []string
		want      string
		qualified bool
	}{
		{"finance", "Como investir em ETFs", nil, "Finanças", false},
		{"fitness", "Treino HIIT em casa", nil, "Saúde e Fitness", false},
		{"fromTags", "Vlog do fim de semana", []string{"Minecraft"}, "Games", false},
		{"fallback", "Receita de bolo", []string{"bolo"}, "Geral", false},
		{"orderWins", "Marketing para investidores", nil, "Finanças", false},
		{"advancedText", "Backtest de carteiras", nil, "Geral", true},
		{"advancedCaseInsensitive", "Python com LLM", nil, "Tecnologia", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taxonomy.Classify(tt.text, tt.tags)
			if got.Niche != tt.want {
				t.Errorf("Niche = %q, want %q", got.Niche, tt.want)
			}
			if got.Qualified != tt.qualified {
				t.Errorf("Qualified = %v, want %v", got.Qualified, tt.qualified)
			}
		})
	}
}

func TestClassifySubniches(t *testing.T) {
	got := DefaultTaxonomy().Classify("Vídeo", []string{"etf", "dividendos", "renda passiva", "extra"})
	if got.Subniche != "etf" || got.Microniche != "dividendos" || got.Nanoniche != "renda passiva" {
		t.Errorf("unexpected subniches %+v", got)
	}

	got = DefaultTaxonomy().Classify("Vídeo", []string{"só uma"})
	if got.Microniche != "" || got.Nanoniche != "" {
		t.Errorf("missing tags should be empty, got %+v", got)
	}
}

func TestClassifyQualifiedByTagCount(t *testing.T) {
	tags := []string{"a", "b", "c", "d", "e", "f", "g"}
	if DefaultTaxonomy().Classify("x", tags).Qualified {
		t.Error("7 tags should not qualify")
	}
	if !DefaultTaxonomy().Classify("x", append(tags, "h")).Qualified {
		t.Error("8 tags should qualify")
	}
}

func TestNewTaxonomyCustom(t *testing.T) {
	taxonomy, err := NewTaxonomy(TaxonomySpec{
		Categories:        []CategorySpec{{Niche: "Culinária", Pattern: `(receita|bolo)`}},
		Fallback:          "Outros",
		Advanced:          `confeitaria`,
		QualifiedTagCount: 2,
	})
	if err != nil {
		t.Fatalf("NewTaxonomy() error = %v", err)
	}

	if got := taxonomy.Classify("RECEITA de pão", nil); got.Niche != "Culinária" {
		t.Errorf("Niche = %q", got.Niche)
	}
	if got := taxonomy.Classify("Investir", nil); got.Niche != "Outros" {
		t.Errorf("Niche = %q, want fallback", got.Niche)
	}
	if !taxonomy.Classify("x", []string{"a", "b"}).Qualified {
		t.Error("expected custom tag threshold to apply")
	}
}

func TestNewTaxonomyInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec TaxonomySpec
	}{
		{"badPattern", TaxonomySpec{Categories: []CategorySpec{{Niche: "X", Pattern: `(`}}}},
		{"noNiche", TaxonomySpec{Categories: []CategorySpec{{Pattern: `x`}}}},
		{"badAdvanced", TaxonomySpec{Advanced: `[`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTaxonomy(tt.spec); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApply(t *testing.T) {
	params := prompts.ScriptParams{Topic: "t", Niche: "antigo", Subniche: "antigo"}
	ScriptAnalysis{Niche: "Games", Subniche: "minecraft", Qualified: true}.Apply(&params)

	if params.Niche != "Games" || params.Subniche != "minecraft" || params.Microniche != "" || !params.Qualified {
		t.Errorf("unexpected params %+v", params)
	}
	if params.Topic != "t" {
		t.Error("Apply must not touch the topic")
	}
}
