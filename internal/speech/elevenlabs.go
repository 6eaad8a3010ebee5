package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scriptgen/internal/generation"
	"scriptgen/internal/provider"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	defaultTimeout    = 60 * time.Second
	maxAudioSize      = 64 << 20
)

var ErrEmptyText = errors.New("text is required")

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ElevenLabsOptions struct {
	BaseURL    string
	HTTPClient Doer
	// Stability and Similarity are sent only when both are set.
	Stability  float64
	Similarity float64
}

type ElevenLabs struct {
	httpClient Doer
	baseURL    string
	stability  float64
	similarity float64
}

type elevenlabsRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenlabsErrorResponse struct {
	Detail struct {
		Message string `json:"message"`
	} `json:"detail"`
}

func NewElevenLabs(opts ElevenLabsOptions) *ElevenLabs {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	return &ElevenLabs{
		httpClient: client,
		baseURL:    baseURL,
		stability:  opts.Stability,
		similarity: opts.Similarity,
	}
}

func (c *ElevenLabs) Synthesize(ctx context.Context, credential string, r Request) ([]byte, error) {
	if strings.TrimSpace(r.Text) == "" {
		return nil, ErrEmptyText
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, generation.CredentialMissing(provider.ElevenLabs, provider.ElevenLabs+"_api_key")
	}
	voiceID := r.VoiceID
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	model := r.Model
	if model == "" {
		model = DefaultModel
	}

	reqBody := elevenlabsRequest{Text: r.Text, ModelID: model}
	if c.stability > 0 && c.similarity > 0 {
		reqBody.VoiceSettings = &voiceSettings{Stability: c.stability, SimilarityBoost: c.similarity}
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, generation.Transport(provider.ElevenLabs, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize))
	if err != nil {
		return nil, generation.Transport(provider.ElevenLabs, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		var errResp elevenlabsErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Detail.Message != "" {
			msg = errResp.Detail.Message
		}
		return nil, generation.Rejected(provider.ElevenLabs, resp.StatusCode, msg)
	}

	if len(body) == 0 {
		return nil, generation.Malformed(provider.ElevenLabs, "empty audio")
	}

	return body, nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
