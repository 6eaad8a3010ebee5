package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"scriptgen/internal/analysis"
	"scriptgen/internal/credentials"
	"scriptgen/internal/dispatch"
	"scriptgen/internal/jobs"
	"scriptgen/internal/provider"
	"scriptgen/internal/speech"
	"scriptgen/internal/storage"
	"scriptgen/internal/youtube"
	"scriptgen/pkg/config"
	"scriptgen/pkg/prompts"
	"scriptgen/pkg/retry"
)

// BuildService wires a Service from cfg. Remote clients it opens are
// released by Service.Close.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	var closers []io.Closer
	fail := func(err error) (*Service, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	registry := BuildRegistry(cfg)

	store, closer, err := BuildStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	p, err := loadPrompts(cfg.Prompts.File)
	if err != nil {
		return fail(err)
	}

	taxonomy, err := analysis.NewTaxonomy(taxonomySpec(cfg.Taxonomy))
	if err != nil {
		return fail(fmt.Errorf("invalid taxonomy: %w", err))
	}

	exporter, closer, err := buildExporter(ctx, cfg.Export)
	if err != nil {
		return fail(err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	dispatcher := dispatch.New(dispatch.Options{
		Registry:   registry,
		HTTPClient: httpClient,
	})

	imageDesc, _ := registry.Lookup(provider.Leonardo)
	poller := jobs.NewPoller(jobs.Options{
		ProviderID:      provider.Leonardo,
		BaseURL:         imageDesc.Endpoint,
		HTTPClient:      httpClient,
		FailureStatuses: cfg.Images.FailureStatuses,
		DefaultModelID:  cfg.Images.ModelID,
		DefaultWidth:    cfg.Images.Width,
		DefaultHeight:   cfg.Images.Height,
	})
	runner := jobs.NewRunner(poller, cfg.Images.PollInterval, cfg.Images.Deadline)

	speechDesc, _ := registry.Lookup(provider.ElevenLabs)
	synthesizer := speech.NewElevenLabs(speech.ElevenLabsOptions{
		BaseURL:    speechDesc.Endpoint,
		HTTPClient: httpClient,
		Stability:  cfg.Speech.Stability,
		Similarity: cfg.Speech.Similarity,
	})

	opts := ServiceOptions{
		Config:        cfg,
		Registry:      registry,
		Store:         store,
		Dispatcher:    dispatcher,
		Images:        runner,
		ImageProvider: provider.Leonardo,
		Speech:        synthesizer,
		Taxonomy:      taxonomy,
		Prompts:       p,
		Exporter:      exporter,
		Retry:         retryPolicy(cfg.Retry),
		Limiter:       imageLimiter(cfg.Images.RequestsPerMinute),
		Closers:       closers,
	}
	opts.Metadata, opts.MetadataFactory = buildMetadata(ctx, cfg)

	return NewService(opts), nil
}

// BuildRegistry applies configured endpoint overrides to the catalogue.
func BuildRegistry(cfg *config.Config) *provider.Registry {
	registry := provider.Default()
	for id, endpoint := range cfg.Endpoints {
		if _, ok := registry.Lookup(id); !ok {
			slog.Warn("Ignoring endpoint for unknown provider", "provider", id)
			continue
		}
		registry = registry.WithEndpoint(id, endpoint)
	}
	return registry
}

// BuildStore opens the configured credential backend. The closer is nil for
// backends without a connection.
func BuildStore(ctx context.Context, cfg *config.Config) (credentials.Store, io.Closer, error) {
	var (
		store  credentials.Store
		closer io.Closer
	)

	switch cfg.Credentials.Backend {
	case config.BackendMemory:
		store = credentials.NewMemory(nil)
	case config.BackendEnv:
		return credentials.Env{}, nil, nil
	case config.BackendFile:
		store = credentials.NewFile(cfg.Credentials.File)
	case config.BackendSecretManager:
		sm, err := credentials.NewSecretManager(ctx, cfg.GCPProject, cfg.Credentials.SecretPrefix)
		if err != nil {
			return nil, nil, err
		}
		store, closer = sm, sm
	case config.BackendRedis:
		r, err := credentials.NewRedis(ctx, credentials.RedisConfig{
			Addr:     cfg.Credentials.RedisAddr,
			Password: cfg.Credentials.RedisPassword,
			DB:       cfg.Credentials.RedisDB,
			Prefix:   cfg.Credentials.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		store, closer = r, r
	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}

	if cfg.Credentials.FallbackToEnv != nil && *cfg.Credentials.FallbackToEnv {
		store = credentials.Chain{store, credentials.Env{}}
	}
	return store, closer, nil
}

func buildExporter(ctx context.Context, cfg config.ExportConfig) (storage.Exporter, io.Closer, error) {
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		return gcs, gcs, nil
	}

	local := storage.NewLocalStorage(cfg.Dir)
	if err := local.EnsureDirectories(); err != nil {
		return nil, nil, err
	}
	return local, nil, nil
}

func buildMetadata(ctx context.Context, cfg *config.Config) (MetadataFetcher, MetadataFactory) {
	factory := func(ctx context.Context, apiKey string) (MetadataFetcher, error) {
		return youtube.NewWithAPIKey(ctx, apiKey)
	}

	if cfg.YouTubeClientID == "" || cfg.YouTubeClientSecret == "" {
		return nil, factory
	}
	auth := youtube.NewAuth(cfg.YouTubeClientID, cfg.YouTubeClientSecret, cfg.YouTube.RedirectURL, cfg.YouTube.TokenPath)
	if err := auth.LoadToken(); err != nil || !auth.IsAuthenticated() {
		return nil, factory
	}
	client, err := youtube.NewWithAuth(ctx, auth)
	if err != nil {
		slog.Warn("YouTube OAuth client unavailable, falling back to API key", "error", err)
		return nil, factory
	}
	return client, factory
}

func loadPrompts(path string) (*prompts.Prompts, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return prompts.Default(), nil
	}
	return prompts.LoadFrom(path)
}

func taxonomySpec(cfg config.TaxonomyConfig) analysis.TaxonomySpec {
	spec := analysis.DefaultTaxonomySpec()
	if len(cfg.Categories) > 0 {
		spec.Categories = make([]analysis.CategorySpec, len(cfg.Categories))
		for i, c := range cfg.Categories {
			spec.Categories[i] = analysis.CategorySpec{Niche: c.Niche, Pattern: c.Pattern}
		}
	}
	if cfg.Fallback != "" {
		spec.Fallback = cfg.Fallback
	}
	if cfg.Advanced != "" {
		spec.Advanced = cfg.Advanced
	}
	if cfg.QualifiedTagCount > 0 {
		spec.QualifiedTagCount = cfg.QualifiedTagCount
	}
	return spec
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
	}
}

// imageLimiter spaces image submissions evenly over a minute.
func imageLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}
