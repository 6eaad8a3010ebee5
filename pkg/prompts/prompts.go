package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

var (
	ErrTopicRequired    = errors.New("topic is required")
	ErrDurationRequired = errors.New("duration is required")
	ErrStyleRequired    = errors.New("style is required")
)

// Sections is the fixed outline every script must cover, in order.
var Sections = []string{
	"Hook inicial (primeiros 15 segundos)",
	"Introdução e apresentação do problema/tópico",
	"Desenvolvimento do conteúdo principal (dividido em seções)",
	"Call-to-action para inscrição e likes",
	"Conclusão e próximos passos",
	"Outro (final do vídeo)",
}

type Prompts struct {
	Script ScriptPrompts `yaml:"script"`
	Image  ImagePrompts  `yaml:"image"`
}

type ScriptPrompts struct {
	Detailed string `yaml:"detailed"`
}

type ImagePrompts struct {
	Topic string `yaml:"topic"`
}

// ScriptParams describes the video a script is requested for. Duration is in
// minutes. Language may be a code such as "pt-br" or a display label.
type ScriptParams struct {
	Topic          string
	Duration       string
	Style          string
	StyleKeywords  string
	Language       string
	Niche          string
	Subniche       string
	Microniche     string
	Nanoniche      string
	Audience       string
	AdditionalInfo string
	YouTubeLink    string
	Qualified      bool
}

type ImageParams struct {
	Title string
}

// scriptView is what the script template sees: every optional field already
// replaced by its placeholder.
type scriptView struct {
	Topic          string
	Duration       string
	Style          string
	StyleKeywords  string
	Language       string
	Niche          string
	Subniche       string
	Microniche     string
	Nanoniche      string
	YouTubeLink    string
	Qualified      string
	Audience       string
	AdditionalInfo string
	Sections       []string
}

// Default returns the built-in templates.
func Default() *Prompts {
	p, err := parse(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded templates: %v", err))
	}
	return p
}

// Load reads prompts.yaml from the working directory, falling back to the
// built-in templates when the file does not exist.
func Load() (*Prompts, error) {
	if _, err := os.Stat(defaultPromptsPath); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadFrom(defaultPromptsPath)
}

// LoadFrom reads templates from path. Templates missing from the file keep
// their built-in value.
func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

// Validate checks the fields a script request cannot do without.
func Validate(params ScriptParams) error {
	var errs []error
	if strings.TrimSpace(params.Topic) == "" {
		errs = append(errs, ErrTopicRequired)
	}
	if strings.TrimSpace(params.Duration) == "" {
		errs = append(errs, ErrDurationRequired)
	}
	if strings.TrimSpace(params.Style) == "" {
		errs = append(errs, ErrStyleRequired)
	}
	return errors.Join(errs...)
}

// Build renders the script prompt with the built-in template.
func Build(params ScriptParams) (string, error) {
	return Default().RenderScript(params)
}

func (p *Prompts) RenderScript(params ScriptParams) (string, error) {
	if err := Validate(params); err != nil {
		return "", err
	}

	qualified := "Não"
	if params.Qualified {
		qualified = "Sim"
	}

	view := scriptView{
		Topic:          params.Topic,
		Duration:       params.Duration,
		Style:          params.Style,
		StyleKeywords:  orDefault(params.StyleKeywords, "Nenhuma"),
		Language:       orDefault(LanguageLabel(params.Language), "Português (Brasil)"),
		Niche:          orDefault(params.Niche, "Não informado"),
		Subniche:       orDefault(params.Subniche, "Não informado"),
		Microniche:     orDefault(params.Microniche, "Não informado"),
		Nanoniche:      orDefault(params.Nanoniche, "Não informado"),
		YouTubeLink:    orDefault(params.YouTubeLink, "Nenhum"),
		Qualified:      qualified,
		Audience:       orDefault(params.Audience, "Geral"),
		AdditionalInfo: orDefault(params.AdditionalInfo, "Nenhuma"),
		Sections:       Sections,
	}

	return render(p.Script.Detailed, view)
}

func (p *Prompts) RenderImage(params ImageParams) (string, error) {
	return render(p.Image.Topic, params)
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
