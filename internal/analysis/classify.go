package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"scriptgen/pkg/prompts"
)

const (
	DefaultFallbackNiche     = "Geral"
	DefaultQualifiedTagCount = 8
	DefaultAdvancedPattern   = `(avançad|intermediár|framework|api|derivad|cagr|roi|backtest|regress|estatístic|neural|kubernetes|docker|otimiza|quantitativo|hedge|opções|futuros|fine-?tune|prompt engineering|llm)`
)

// DefaultCategories are checked in order; the first match wins.
var DefaultCategories = []CategorySpec{
	{Niche: "Finanças", Pattern: `(finan|invest|ação|bolsa|etf|trader|cripto|bitcoin|cagr|dividend)`},
	{Niche: "Tecnologia", Pattern: `(tecno|program|dev|javascript|python|ia|a[ií]|algorit|api|kubernetes|docker|cloud)`},
	{Niche: "Saúde e Fitness", Pattern: `(saúde|saude|fitness|treino|dieta|nutri|muscula|hiit)`},
	{Niche: "Marketing", Pattern: `(marketing|venda|tráfego|trafego|anúncio|anuncio|copy|roi|funil)`},
	{Niche: "Games", Pattern: `(game|jogo|gamer|stream|fortnite|minecraft|valorant)`},
}

type CategorySpec struct {
	Niche   string
	Pattern string
}

// TaxonomySpec is the uncompiled, configurable form of a Taxonomy.
type TaxonomySpec struct {
	Categories        []CategorySpec
	Fallback          string
	Advanced          string
	QualifiedTagCount int
}

type Category struct {
	Niche   string
	Pattern *regexp.Regexp
}

type Taxonomy struct {
	Categories        []Category
	Fallback          string
	Advanced          *regexp.Regexp
	QualifiedTagCount int
}

// ScriptAnalysis is the classification of one video.
type ScriptAnalysis struct {
	Niche      string
	Subniche   string
	Microniche string
	Nanoniche  string
	Qualified  bool
}

func DefaultTaxonomySpec() TaxonomySpec {
	return TaxonomySpec{
		Categories:        append([]CategorySpec(nil), DefaultCategories...),
		Fallback:          DefaultFallbackNiche,
		Advanced:          DefaultAdvancedPattern,
		QualifiedTagCount: DefaultQualifiedTagCount,
	}
}

func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultTaxonomySpec())
	if err != nil {
		panic(fmt.Sprintf("analysis: default taxonomy: %v", err))
	}
	return t
}

// NewTaxonomy compiles spec. Patterns match case-insensitively. Empty
// fields fall back to the defaults.
func NewTaxonomy(spec TaxonomySpec) (*Taxonomy, error) {
	if len(spec.Categories) == 0 {
		spec.Categories = DefaultCategories
	}
	if spec.Fallback == "" {
		spec.Fallback = DefaultFallbackNiche
	}
	if spec.Advanced == "" {
		spec.Advanced = DefaultAdvancedPattern
	}
	if spec.QualifiedTagCount <= 0 {
		spec.QualifiedTagCount = DefaultQualifiedTagCount
	}

	t := &Taxonomy{
		Categories:        make([]Category, 0, len(spec.Categories)),
		Fallback:          spec.Fallback,
		QualifiedTagCount: spec.QualifiedTagCount,
	}
	for _, c := range spec.Categories {
		if strings.TrimSpace(c.Niche) == "" {
			return nil, fmt.Errorf("category with pattern %q has no niche", c.Pattern)
		}
		re, err := regexp.Compile("(?i)" + c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Niche, err)
		}
		t.Categories = append(t.Categories, Category{Niche: c.Niche, Pattern: re})
	}

	advanced, err := regexp.Compile("(?i)" + spec.Advanced)
	if err != nil {
		return nil, fmt.Errorf("advanced pattern: %w", err)
	}
	t.Advanced = advanced

	return t, nil
}

// Classify assigns a niche from text and tags, takes the sub, micro and nano
// niches from the first three tags, and marks the audience qualified when the
// text uses advanced vocabulary or the video carries many tags.
func (t *Taxonomy) Classify(text string, tags []string) ScriptAnalysis {
	analysis := ScriptAnalysis{Niche: t.Fallback}

	lower := strings.ToLower(text)
	for _, c := range t.Categories {
		if c.matches(lower, tags) {
			analysis.Niche = c.Niche
			break
		}
	}

	analysis.Subniche = tagAt(tags, 0)
	analysis.Microniche = tagAt(tags, 1)
	analysis.Nanoniche = tagAt(tags, 2)
	analysis.Qualified = t.Advanced.MatchString(text) || len(tags) >= t.QualifiedTagCount

	return analysis
}

func (c Category) matches(lower string, tags []string) bool {
	if c.Pattern.MatchString(lower) {
		return true
	}
	for _, tag := range tags {
		if c.Pattern.MatchString(strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

// Apply copies the classification onto params, replacing whatever niche
// fields it held.
func (a ScriptAnalysis) Apply(params *prompts.ScriptParams) {
	params.Niche = a.Niche
	params.Subniche = a.Subniche
	params.Microniche = a.Microniche
	params.Nanoniche = a.Nanoniche
	params.Qualified = a.Qualified
}

func tagAt(tags []string, i int) string {
	if i < len(tags) {
		return tags[i]
	}
	return ""
}
