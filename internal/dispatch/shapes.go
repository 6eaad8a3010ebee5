package dispatch

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scriptgen/internal/generation"
	"scriptgen/internal/provider"
)

const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
	anthropicVersion   = "2023-06-01"
	roleUser           = "user"
)

// wireRequest is the provider-specific form of a generation.Request.
type wireRequest struct {
	URL    string
	Header http.Header
	Body   any
}

// Builder shapes a normalized request into one provider's wire request.
type Builder func(desc provider.Descriptor, req generation.Request, credential string) wireRequest

// Extractor pulls the generated text out of a raw success body.
type Extractor func(body []byte) (string, error)

// Shape pairs the request builder and response extractor of one provider.
type Shape struct {
	Build   Builder
	Extract Extractor
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatBody struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type claudeBody struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type grokBody struct {
	Messages    []message `json:"messages"`
	Model       string    `json:"model"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiBody struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *geminiConfig   `json:"generationConfig,omitempty"`
}

// DefaultShapes is the wire mapping for every text provider in the default
// catalogue.
func DefaultShapes() map[string]Shape {
	chat := Shape{Build: buildChat, Extract: responsePath("choices", "0", "message", "content")}
	return map[string]Shape{
		provider.Gemini:     {Build: buildGemini, Extract: responsePath("candidates", "0", "content", "parts", "0", "text")},
		provider.OpenAI:     chat,
		provider.Claude:     {Build: buildClaude, Extract: responsePath("content", "0", "text")},
		provider.Grok:       {Build: buildGrok, Extract: responsePath("choices", "0", "message", "content")},
		provider.Mistral:    chat,
		provider.DeepSeek:   chat,
		provider.Perplexity: chat,
	}
}

func bearer(credential string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+credential)
	return h
}

func userMessages(prompt string) []message {
	return []message{{Role: roleUser, Content: prompt}}
}

func maxTokens(req generation.Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

func temperature(req generation.Request) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return defaultTemperature
}

func buildGemini(desc provider.Descriptor, req generation.Request, credential string) wireRequest {
	body := geminiBody{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.MaxTokens > 0 || req.Temperature != nil {
		body.GenerationConfig = &geminiConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}
	return wireRequest{
		URL:    desc.Endpoint + "?key=" + url.QueryEscape(credential),
		Header: http.Header{},
		Body:   body,
	}
}

func buildChat(desc provider.Descriptor, req generation.Request, credential string) wireRequest {
	return wireRequest{
		URL:    desc.Endpoint,
		Header: bearer(credential),
		Body: chatBody{
			Model:       desc.Model,
			Messages:    userMessages(req.Prompt),
			MaxTokens:   maxTokens(req),
			Temperature: temperature(req),
		},
	}
}

func buildClaude(desc provider.Descriptor, req generation.Request, credential string) wireRequest {
	h := http.Header{}
	h.Set("x-api-key", credential)
	h.Set("anthropic-version", anthropicVersion)
	return wireRequest{
		URL:    desc.Endpoint,
		Header: h,
		Body: claudeBody{
			Model:       desc.Model,
			MaxTokens:   maxTokens(req),
			Messages:    userMessages(req.Prompt),
			Temperature: req.Temperature,
		},
	}
}

func buildGrok(desc provider.Descriptor, req generation.Request, credential string) wireRequest {
	return wireRequest{
		URL:    desc.Endpoint,
		Header: bearer(credential),
		Body: grokBody{
			Messages:    userMessages(req.Prompt),
			Model:       desc.Model,
			Stream:      false,
			Temperature: temperature(req),
			MaxTokens:   req.MaxTokens,
		},
	}
}

// responsePath returns an Extractor that walks object keys and array
// indexes and requires a non-empty string at the end.
func responsePath(path ...string) Extractor {
	joined := strings.Join(path, ".")
	return func(body []byte) (string, error) {
		var node any
		if err := json.Unmarshal(body, &node); err != nil {
			return "", errMalformed("invalid json: " + err.Error())
		}
		for _, step := range path {
			switch v := node.(type) {
			case map[string]any:
				next, ok := v[step]
				if !ok {
					return "", errMalformed("missing " + joined)
				}
				node = next
			case []any:
				i, err := strconv.Atoi(step)
				if err != nil || i < 0 || i >= len(v) {
					return "", errMalformed("missing " + joined)
				}
				node = v[i]
			default:
				return "", errMalformed("missing " + joined)
			}
		}
		text, ok := node.(string)
		if !ok {
			return "", errMalformed(joined + " is not a string")
		}
		if text == "" {
			return "", errMalformed(joined + " is empty")
		}
		return text, nil
	}
}

func errMalformed(msg string) error {
	return errors.New(msg)
}
