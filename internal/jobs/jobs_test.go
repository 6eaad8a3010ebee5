package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scriptgen/internal/generation"
)

// manualClock advances on every After call and fires immediately.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type leonardoStub struct {
	submitStatus int
	submitBody   string
	polls        []string
	pollStatus   []int

	submits   atomic.Int32
	pollCount atomic.Int32
	lastBody  atomic.Value
}

func (s *leonardoStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer leo-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/generations":
			s.submits.Add(1)
			data, _ := io.ReadAll(r.Body)
			s.lastBody.Store(string(data))
			w.WriteHeader(s.submitStatus)
			_, _ = w.Write([]byte(s.submitBody))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/generations/"):
			n := int(s.pollCount.Add(1)) - 1
			status := http.StatusOK
			if n < len(s.pollStatus) && s.pollStatus[n] != 0 {
				status = s.pollStatus[n]
			}
			body := `{"generations_by_pk":{"status":"PENDING","generated_images":[]}}`
			if n < len(s.polls) {
				body = s.polls[n]
			} else if len(s.polls) > 0 {
				body = s.polls[len(s.polls)-1]
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}
}

func newRunner(t *testing.T, stub *leonardoStub) (*Runner, *manualClock) {
	t.Helper()
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)

	clock := newManualClock()
	poller := NewPoller(Options{BaseURL: server.URL, HTTPClient: server.Client(), Clock: clock})
	return NewRunner(poller, 0, 0), clock
}

func TestSubmitBody(t *testing.T) {
	stub := &leonardoStub{submitStatus: http.StatusOK, submitBody: `{"sdGenerationJob":{"generationId":"gen-1"}}`}
	runner, _ := newRunner(t, stub)

	job := runner.poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "um gato astronauta"})
	if job.State != StateCreated {
		t.Fatalf("State = %s, want created", job.State)
	}
	if job.ID != "gen-1" {
		t.Errorf("ID = %q, want gen-1", job.ID)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(stub.lastBody.Load().(string)), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["prompt"] != "um gato astronauta" || body["modelId"] != defaultModelID {
		t.Errorf("unexpected body %v", body)
	}
	if body["width"] != float64(1024) || body["height"] != float64(1024) || body["num_images"] != float64(1) || body["public"] != false {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSubmitGenerationIDLocations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"sdGenerationJob", `{"sdGenerationJob":{"generationId":"a"},"id":"z"}`, "a"},
		{"topLevel", `{"generationId":"b"}`, "b"},
		{"id", `{"id":"c"}`, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &leonardoStub{submitStatus: http.StatusOK, submitBody: tt.body}
			runner, _ := newRunner(t, stub)
			job := runner.poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})
			if job.ID != tt.want {
				t.Errorf("ID = %q, want %q", job.ID, tt.want)
			}
		})
	}
}

func TestRejectedSubmitNeverPolls(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind generation.Kind
	}{
		{"forbidden", http.StatusForbidden, `{"error":"no credits"}`, generation.KindProviderRejected},
		{"missingID", http.StatusOK, `{"sdGenerationJob":{}}`, generation.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &leonardoStub{submitStatus: tt.status, submitBody: tt.body}
			runner, _ := newRunner(t, stub)

			job := runner.poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})
			if job.State != StateFailed {
				t.Fatalf("State = %s, want failed", job.State)
			}
			if generation.KindOf(job.Err) != tt.wantKind {
				t.Errorf("Err = %v, want kind %s", job.Err, tt.wantKind)
			}

			_, err := runner.Await(context.Background(), "leo-key", job)
			if err == nil {
				t.Error("expected Await to return the submit error")
			}
			if got := stub.pollCount.Load(); got != 0 {
				t.Errorf("polls = %d, want 0", got)
			}
		})
	}
}

func TestSubmitWithoutCredential(t *testing.T) {
	stub := &leonardoStub{submitStatus: http.StatusOK, submitBody: `{"id":"x"}`}
	runner, _ := newRunner(t, stub)

	job := runner.poller.Submit(context.Background(), " ", ImageParams{Prompt: "p"})
	if !errors.Is(job.Err, generation.ErrCredentialMissing) {
		t.Errorf("Err = %v, want CredentialMissing", job.Err)
	}
	if stub.submits.Load() != 0 {
		t.Error("expected no request without a credential")
	}
}

func TestGenerateSucceeds(t *testing.T) {
	stub := &leonardoStub{
		submitStatus: http.StatusOK,
		submitBody:   `{"sdGenerationJob":{"generationId":"gen-1"}}`,
		polls: []string{
			`{"generations_by_pk":{"status":"PENDING","generated_images":[]}}`,
			`{"generations_by_pk":{"status":"COMPLETE","generated_images":[{"url":"https://cdn.example/1.png"}]}}`,
		},
	}
	runner, _ := newRunner(t, stub)

	result, err := runner.Generate(context.Background(), "leo-key", ImageParams{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if result.ArtifactURL != "https://cdn.example/1.png" {
		t.Errorf("ArtifactURL = %q", result.ArtifactURL)
	}
	if got := stub.pollCount.Load(); got != 2 {
		t.Errorf("polls = %d, want 2", got)
	}
}

func TestAwaitTimesOutWithoutFurtherPolls(t *testing.T) {
	stub := &leonardoStub{submitStatus: http.StatusOK, submitBody: `{"id":"slow"}`}
	runner, _ := newRunner(t, stub)

	job := runner.poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})
	job, err := runner.Await(context.Background(), "leo-key", job)

	if !errors.Is(err, generation.ErrTimeout) {
		t.Fatalf("error = %v, want Timeout", err)
	}
	if job.State != StateTimedOut {
		t.Errorf("State = %s, want timed_out", job.State)
	}
	// Polls happen at 2s, 4s, ... 58s; the 60s tick hits the deadline.
	if got := stub.pollCount.Load(); got != 29 {
		t.Errorf("polls = %d, want 29", got)
	}

	job, _ = runner.poller.Poll(context.Background(), "leo-key", job)
	if job.State != StateTimedOut {
		t.Errorf("terminal job changed state to %s", job.State)
	}
	if got := stub.pollCount.Load(); got != 29 {
		t.Errorf("poll on a terminal job hit the network")
	}
}

func TestAwaitBoundsSlowPollByDeadline(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id":"slow"}`))
			return
		}
		polls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		_, _ = w.Write([]byte(`{"generation":{"status":"PENDING"}}`))
	}))
	defer server.Close()

	poller := NewPoller(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	runner := NewRunner(poller, 50*time.Millisecond, 300*time.Millisecond)

	start := time.Now()
	job := poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})
	job, err := runner.Await(context.Background(), "leo-key", job)
	elapsed := time.Since(start)

	if !errors.Is(err, generation.ErrTimeout) {
		t.Fatalf("error = %v, want Timeout", err)
	}
	if job.State != StateTimedOut {
		t.Errorf("State = %s, want timed_out", job.State)
	}
	if polls.Load() != 1 {
		t.Errorf("polls = %d, want 1", polls.Load())
	}
	if elapsed > time.Second {
		t.Errorf("Await() returned after %s, deadline was 300ms", elapsed)
	}
}

func TestPollEscapesGenerationID(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"generation":{"status":"PENDING"}}`))
	}))
	defer server.Close()

	poller := NewPoller(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	job := Job{ID: "a/b c?d", ProviderID: poller.ProviderID(), State: StateCreated}
	if _, err := poller.Poll(context.Background(), "leo-key", job); err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if got := path.Load(); got != "/generations/a%2Fb%20c%3Fd" {
		t.Errorf("path = %v, want /generations/a%%2Fb%%20c%%3Fd", got)
	}
}

func TestFailureStatusIsCaseInsensitive(t *testing.T) {
	for _, status := range []string{"FAILED", "failed", "Canceled", "error"} {
		t.Run(status, func(t *testing.T) {
			stub := &leonardoStub{
				submitStatus: http.StatusOK,
				submitBody:   `{"id":"x"}`,
				polls:        []string{`{"generation":{"status":"` + status + `"}}`},
			}
			runner, _ := newRunner(t, stub)

			job := runner.poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})
			job, err := runner.Await(context.Background(), "leo-key", job)
			if !errors.Is(err, generation.ErrJobFailed) {
				t.Fatalf("error = %v, want JobFailed", err)
			}
			if job.State != StateFailed || job.Status != status {
				t.Errorf("job = %+v", job)
			}
		})
	}
}

func TestTransientPollFailureKeepsPolling(t *testing.T) {
	stub := &leonardoStub{
		submitStatus: http.StatusOK,
		submitBody:   `{"id":"x"}`,
		pollStatus:   []int{http.StatusInternalServerError, http.StatusBadGateway},
		polls: []string{
			`oops`,
			`oops`,
			`{"images":[{"image":{"url":"https://cdn.example/2.png"}}]}`,
		},
	}
	runner, _ := newRunner(t, stub)

	job := runner.poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})

	next, err := runner.poller.Poll(context.Background(), "leo-key", job)
	if generation.KindOf(err) != generation.KindTransientPollFailure {
		t.Fatalf("error = %v, want transient poll failure", err)
	}
	if next.State != StatePolling {
		t.Errorf("State = %s, want polling", next.State)
	}

	next, err = runner.Await(context.Background(), "leo-key", next)
	if err != nil {
		t.Fatalf("Await() error: %v", err)
	}
	if next.ArtifactURL != "https://cdn.example/2.png" {
		t.Errorf("ArtifactURL = %q", next.ArtifactURL)
	}
}

func TestAwaitStopsOnCancel(t *testing.T) {
	stub := &leonardoStub{submitStatus: http.StatusOK, submitBody: `{"id":"x"}`}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	poller := NewPoller(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	runner := NewRunner(poller, time.Hour, 2*time.Hour)

	job := poller.Submit(context.Background(), "leo-key", ImageParams{Prompt: "p"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Await(ctx, "leo-key", job)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if stub.pollCount.Load() != 0 {
		t.Error("expected no poll after cancellation")
	}
}

func TestAdvanceOnlyMovesForward(t *testing.T) {
	job := Job{State: StatePolling}
	if got := job.advance(StateCreated).State; got != StatePolling {
		t.Errorf("advance backwards = %s", got)
	}
	done := job.advance(StateSucceeded)
	if got := done.advance(StateFailed).State; got != StateSucceeded {
		t.Errorf("terminal job moved to %s", got)
	}
}
