// Package generation holds the provider-neutral request, result and error
// types shared by the dispatcher and the job poller.
package generation

// Request is the normalized text-generation input. Zero values mean "use the
// provider's default".
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// Result is a successful generation. Text is set for text providers,
// ArtifactURL for job-based image providers.
type Result struct {
	ProviderID  string
	Text        string
	ArtifactURL string
}

// Float returns a pointer to v, for optional request parameters.
func Float(v float64) *float64 {
	return &v
}
