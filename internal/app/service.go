package app

import (
	"context"
	"errors"
	"io"

	"golang.org/x/time/rate"

	"scriptgen/internal/analysis"
	"scriptgen/internal/credentials"
	"scriptgen/internal/dispatch"
	"scriptgen/internal/generation"
	"scriptgen/internal/jobs"
	"scriptgen/internal/provider"
	"scriptgen/internal/speech"
	"scriptgen/internal/storage"
	"scriptgen/internal/youtube"
	"scriptgen/pkg/config"
	"scriptgen/pkg/prompts"
	"scriptgen/pkg/retry"
)

// TextDispatcher sends one prompt to a text provider.
type TextDispatcher interface {
	Dispatch(ctx context.Context, providerID string, req generation.Request, credential string) (*generation.Result, error)
}

// ImageGenerator submits an image job and waits for its artifact.
type ImageGenerator interface {
	Generate(ctx context.Context, credential string, params jobs.ImageParams) (*generation.Result, error)
}

type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (*youtube.Metadata, error)
}

// MetadataFactory builds a metadata client from an API key. It is used when
// no OAuth client is available.
type MetadataFactory func(ctx context.Context, apiKey string) (MetadataFetcher, error)

type Service struct {
	cfg             *config.Config
	registry        *provider.Registry
	store           credentials.Store
	dispatcher      TextDispatcher
	images          ImageGenerator
	imageProvider   string
	speech          speech.Synthesizer
	metadata        MetadataFetcher
	metadataFactory MetadataFactory
	taxonomy        *analysis.Taxonomy
	prompts         *prompts.Prompts
	exporter        storage.Exporter
	retry           retry.Policy
	limiter         *rate.Limiter
	closers         []io.Closer
}

type ServiceOptions struct {
	Config          *config.Config
	Registry        *provider.Registry
	Store           credentials.Store
	Dispatcher      TextDispatcher
	Images          ImageGenerator
	ImageProvider   string
	Speech          speech.Synthesizer
	Metadata        MetadataFetcher
	MetadataFactory MetadataFactory
	Taxonomy        *analysis.Taxonomy
	Prompts         *prompts.Prompts
	Exporter        storage.Exporter
	Retry           retry.Policy
	Limiter         *rate.Limiter
	Closers         []io.Closer
}

func NewService(opts ServiceOptions) *Service {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = provider.Default()
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = dispatch.New(dispatch.Options{Registry: registry})
	}
	imageProvider := opts.ImageProvider
	if imageProvider == "" {
		imageProvider = provider.Leonardo
	}
	taxonomy := opts.Taxonomy
	if taxonomy == nil {
		taxonomy = analysis.DefaultTaxonomy()
	}
	p := opts.Prompts
	if p == nil {
		p = prompts.Default()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Once()
	}

	return &Service{
		cfg:             cfg,
		registry:        registry,
		store:           opts.Store,
		dispatcher:      dispatcher,
		images:          opts.Images,
		imageProvider:   imageProvider,
		speech:          opts.Speech,
		metadata:        opts.Metadata,
		metadataFactory: opts.MetadataFactory,
		taxonomy:        taxonomy,
		prompts:         p,
		exporter:        opts.Exporter,
		retry:           policy,
		limiter:         limiter,
		closers:         opts.Closers,
	}
}

func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) Registry() *provider.Registry {
	return s.registry
}

func (s *Service) Store() credentials.Store {
	return s.store
}

func (s *Service) Exporter() storage.Exporter {
	return s.exporter
}

// Close releases remote clients opened by BuildService.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
