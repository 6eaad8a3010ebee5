// Package analysis derives structure from scripts and video metadata:
// the topic list used for image generation and a niche classification used
// to pre-fill script parameters.
package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxTopics          = 20
	maxParagraphs      = 6
	maxParagraphTitle  = 90
	minTitleRuneLength = 4
)

var (
	lineSplit      = regexp.MustCompile(`\r?\n`)
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	sentenceSplit  = regexp.MustCompile(`[.!?]`)

	// Order matters: the first rule that matches a line claims it. The
	// separator also accepts Unicode spaces such as NBSP.
	topicRules = []*regexp.Regexp{
		regexp.MustCompile(`^#{1,6}[\s\p{Z}]+`),
		regexp.MustCompile(`^\d+[.)][\s\p{Z}]+`),
		regexp.MustCompile(`(?i)^(t[óo]pico|se[cç][aã]o|cap[íi]tulo|parte)[:\-][\s\p{Z}]+`),
	}
)

// Topic is one image-worthy section of a script. Its title is fixed at
// extraction; the prompt starts as the title and may be edited.
type Topic struct {
	ID     string
	title  string
	Prompt string
}

func NewTopic(id, title string) Topic {
	return Topic{ID: id, title: title, Prompt: title}
}

func (t Topic) Title() string {
	return t.title
}

// ExtractTopics returns up to 20 distinct section titles found in script.
// Lines are tried against markdown headings, numbered items and section
// keywords. When no line qualifies, the first sentence of each of the first
// six paragraphs is used instead. The result depends only on script.
func ExtractTopics(script string) []Topic {
	titles := extractTitles(script)
	topics := make([]Topic, len(titles))
	for i, title := range titles {
		topics[i] = NewTopic(fmt.Sprintf("topic-%d", i), title)
	}
	return topics
}

func extractTitles(script string) []string {
	if script == "" {
		return nil
	}

	var titles []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if utf8.RuneCountInString(t) < minTitleRuneLength {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		titles = append(titles, t)
	}

	for _, raw := range lineSplit.Split(script, -1) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, rule := range topicRules {
			if loc := rule.FindStringIndex(line); loc != nil {
				add(strings.TrimSpace(line[loc[1]:]))
				break
			}
		}
	}

	if len(titles) == 0 {
		var paragraphs []string
		for _, p := range paragraphSplit.Split(script, -1) {
			if p = strings.TrimSpace(p); p != "" {
				paragraphs = append(paragraphs, p)
			}
		}
		if len(paragraphs) > maxParagraphs {
			paragraphs = paragraphs[:maxParagraphs]
		}
		for _, p := range paragraphs {
			sentence := sentenceSplit.Split(p, 2)[0]
			add(strings.TrimSpace(truncateRunes(sentence, maxParagraphTitle)))
		}
	}

	if len(titles) > maxTopics {
		titles = titles[:maxTopics]
	}
	return titles
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
