package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scriptgen/internal/generation"
	"scriptgen/internal/provider"
)

const (
	defaultBaseURL = "https://cloud.leonardo.ai/api/rest/v1"
	defaultModelID = "e316348f-7773-490e-9ce1-2fa6f8ad5f2b"
	defaultWidth   = 1024
	defaultHeight  = 1024
	defaultTimeout = 30 * time.Second
	maxBodySize    = 4 << 20
)

// DefaultFailureStatuses are the wire status tokens that end a job as failed.
var DefaultFailureStatuses = []string{"FAILED", "CANCELED", "ERROR"}

var errEmptyPrompt = errors.New("jobs: prompt is required")

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ImageParams are the generation parameters of one image job.
type ImageParams struct {
	Prompt  string
	Width   int
	Height  int
	ModelID string
}

type Options struct {
	ProviderID      string
	BaseURL         string
	HTTPClient      Doer
	Clock           Clock
	FailureStatuses []string
	DefaultModelID  string
	DefaultWidth    int
	DefaultHeight   int
	Timeout         time.Duration
}

// Poller speaks the Leonardo generations protocol: POST /generations returns
// a generation id, GET /generations/{id} reports status and images.
type Poller struct {
	providerID string
	baseURL    string
	httpClient Doer
	clock      Clock
	failures   map[string]struct{}
	modelID    string
	width      int
	height     int
}

type createRequest struct {
	Prompt    string `json:"prompt"`
	ModelID   string `json:"modelId"`
	NumImages int    `json:"num_images"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Public    bool   `json:"public"`
}

type createResponse struct {
	SDGenerationJob *struct {
		GenerationID string `json:"generationId"`
	} `json:"sdGenerationJob"`
	GenerationID string `json:"generationId"`
	ID           string `json:"id"`
}

func NewPoller(opts Options) *Poller {
	providerID := opts.ProviderID
	if providerID == "" {
		providerID = provider.Leonardo
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	statuses := opts.FailureStatuses
	if len(statuses) == 0 {
		statuses = DefaultFailureStatuses
	}
	failures := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		failures[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	p := &Poller{
		providerID: providerID,
		baseURL:    baseURL,
		httpClient: client,
		clock:      clock,
		failures:   failures,
		modelID:    opts.DefaultModelID,
		width:      opts.DefaultWidth,
		height:     opts.DefaultHeight,
	}
	if p.modelID == "" {
		p.modelID = defaultModelID
	}
	if p.width <= 0 {
		p.width = defaultWidth
	}
	if p.height <= 0 {
		p.height = defaultHeight
	}
	return p
}

func (p *Poller) ProviderID() string {
	return p.providerID
}

// Submit issues one POST. A rejected or unusable submission comes back
// already Failed; it never passes through Polling.
func (p *Poller) Submit(ctx context.Context, credential string, params ImageParams) Job {
	job := Job{ProviderID: p.providerID, SubmittedAt: p.clock.Now(), State: StateCreated}

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return p.fail(job, generation.CredentialMissing(p.providerID, provider.Leonardo+"_api_key"))
	}
	if strings.TrimSpace(params.Prompt) == "" {
		return p.fail(job, errEmptyPrompt)
	}

	body := createRequest{
		Prompt:    params.Prompt,
		ModelID:   firstNonEmpty(params.ModelID, p.modelID),
		NumImages: 1,
		Width:     positiveOr(params.Width, p.width),
		Height:    positiveOr(params.Height, p.height),
		Public:    false,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return p.fail(job, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/generations", bytes.NewReader(data))
	if err != nil {
		return p.fail(job, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	status, raw, err := p.do(req)
	if err != nil {
		return p.fail(job, generation.Transport(p.providerID, err))
	}
	if status < 200 || status > 299 {
		return p.fail(job, generation.Rejected(p.providerID, status, strings.TrimSpace(string(raw))))
	}

	var created createResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return p.fail(job, generation.Malformed(p.providerID, "decode submit response: "+err.Error()))
	}
	id := created.GenerationID
	if created.SDGenerationJob != nil && created.SDGenerationJob.GenerationID != "" {
		id = created.SDGenerationJob.GenerationID
	}
	id = firstNonEmpty(id, created.ID)
	if id == "" {
		return p.fail(job, generation.Malformed(p.providerID, "submit response has no generation id"))
	}

	job.ID = id
	return job
}

// Poll issues one GET for a non-terminal job. Terminal jobs are returned as
// is without a call. A transient failure leaves the state untouched and is
// reported as a TransientPollFailure error.
func (p *Poller) Poll(ctx context.Context, credential string, job Job) (Job, error) {
	if job.State.IsTerminal() {
		return job, nil
	}
	job = job.advance(StatePolling)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/generations/"+url.PathEscape(job.ID), nil)
	if err != nil {
		return job, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(credential))

	status, raw, err := p.do(req)
	if err != nil {
		return job, &generation.Error{Kind: generation.KindTransientPollFailure, ProviderID: p.providerID, Err: err}
	}
	if status < 200 || status > 299 {
		return job, &generation.Error{Kind: generation.KindTransientPollFailure, ProviderID: p.providerID, Status: fmt.Sprintf("%d", status)}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return job, &generation.Error{Kind: generation.KindTransientPollFailure, ProviderID: p.providerID, Message: "undecodable poll response"}
	}

	wireStatus, imageURL := parseGeneration(data)
	if wireStatus != "" {
		job.Status = wireStatus
	}
	if imageURL != "" {
		job.ArtifactURL = imageURL
		return job.advance(StateSucceeded), nil
	}
	if _, failed := p.failures[strings.ToUpper(wireStatus)]; failed {
		next := job.advance(StateFailed)
		next.Err = generation.JobFailed(p.providerID, wireStatus)
		return next, nil
	}
	return job, nil
}

func (p *Poller) fail(job Job, err error) Job {
	job = job.advance(StateFailed)
	job.Err = err
	return job
}

func (p *Poller) do(req *http.Request) (int, []byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// parseGeneration accepts the response layouts Leonardo has used:
// generations_by_pk, generation, or the bare object.
func parseGeneration(data map[string]any) (status, artifact string) {
	byPK := firstObject(data["generations_by_pk"], data["generation"])
	if byPK == nil {
		byPK = data
	}
	nested := asObject(byPK["generation"])

	status = firstNonEmpty(
		asString(byPK["status"]),
		asString(nested["status"]),
		asString(asObject(byPK["sdGenerationJob"])["status"]),
	)

	images := firstArray(byPK["generated_images"], byPK["images"], nested["generated_images"])
	if len(images) > 0 {
		first := asObject(images[0])
		artifact = firstNonEmpty(asString(first["url"]), asString(asObject(first["image"])["url"]))
	}
	return status, artifact
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func firstObject(vs ...any) map[string]any {
	for _, v := range vs {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func firstArray(vs ...any) []any {
	for _, v := range vs {
		if a, ok := v.([]any); ok {
			return a
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
