package prompts

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one selectable script language.
type Language struct {
	Code  string
	Label string
}

// Languages lists the selectable languages in display order.
var Languages = []Language{
	{"pt-br", "Português (Brasil)"},
	{"en", "Inglês"},
	{"es", "Espanhol"},
	{"fr", "Francês"},
	{"de", "Alemão"},
	{"it", "Italiano"},
	{"ja", "Japonês"},
	{"ko", "Coreano"},
	{"zh", "Chinês (Mandarim)"},
	{"ru", "Russo"},
	{"ar", "Árabe"},
	{"hi", "Hindi"},
}

var labelsByBase = func() map[string]string {
	m := make(map[string]string, len(Languages))
	for _, l := range Languages {
		tag := language.MustParse(l.Code)
		base, _ := tag.Base()
		m[base.String()] = l.Label
	}
	return m
}()

// LanguageLabel turns a BCP 47 code ("pt-BR", "en_US", "ja") into the label
// used in prompts. Anything that is not a known code is returned unchanged.
func LanguageLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return value
	}
	base, confidence := tag.Base()
	if confidence != language.Exact {
		return value
	}
	if label, ok := labelsByBase[base.String()]; ok {
		return label
	}
	return value
}
