// Package dispatch sends one normalized generation request to a text
// provider and normalizes the reply.
package dispatch

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
	defaultTimeout  = 120 * time.Second
	maxResponseSize = 8 << 20
	maxErrorExcerpt = 300
)

var ErrEmptyPrompt = errors.New("dispatch: prompt is required")

// Doer is the subset of *http.Client the dispatcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	Registry   *provider.Registry
	HTTPClient Doer
	Shapes     map[string]Shape
	Timeout    time.Duration
}

// Dispatcher is stateless per call; the registry and shape table are
// read-only after construction.
type Dispatcher struct {
	registry   *provider.Registry
	httpClient Doer
	shapes     map[string]Shape
}

func New(opts Options) *Dispatcher {
	registry := opts.Registry
	if registry == nil {
		registry = provider.Default()
	}
	shapes := opts.Shapes
	if shapes == nil {
		shapes = DefaultShapes()
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Dispatcher{
		registry:   registry,
		httpClient: client,
		shapes:     shapes,
	}
}

// Supports reports whether providerID has both a descriptor and a wire shape.
func (d *Dispatcher) Supports(providerID string) bool {
	_, _, ok := d.lookup(providerID)
	return ok
}

func (d *Dispatcher) lookup(providerID string) (provider.Descriptor, Shape, bool) {
	desc, ok := d.registry.Lookup(providerID)
	if !ok {
		return provider.Descriptor{}, Shape{}, false
	}
	shape, ok := d.shapes[providerID]
	if !ok || shape.Build == nil || shape.Extract == nil {
		return provider.Descriptor{}, Shape{}, false
	}
	return desc, shape, true
}

// Dispatch performs exactly one outbound call. Failures are *generation.Error
// values; a non-nil result always carries non-empty text.
func (d *Dispatcher) Dispatch(ctx context.Context, providerID string, req generation.Request, credential string) (*generation.Result, error) {
	desc, shape, ok := d.lookup(providerID)
	if !ok {
		return nil, generation.Unsupported(providerID)
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, generation.CredentialMissing(providerID, desc.CredentialSlot)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	wire := shape.Build(desc, req, credential)
	data, err := encodeBody(wire.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", providerID, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, wire.URL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", providerID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, vs := range wire.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, generation.Transport(providerID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, generation.Transport(providerID, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, generation.Rejected(providerID, resp.StatusCode, excerpt(body))
	}

	text, err := shape.Extract(body)
	if err != nil {
		return nil, generation.Malformed(providerID, err.Error())
	}

	return &generation.Result{ProviderID: providerID, Text: text}, nil
}

// encodeBody marshals without HTML escaping so prompts reach the provider
// byte-for-byte.
func encodeBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt] + "..."
	}
	return s
}
