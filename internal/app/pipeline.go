package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"scriptgen/internal/analysis"
	"scriptgen/internal/credentials"
	"scriptgen/internal/generation"
	"scriptgen/internal/jobs"
	"scriptgen/internal/provider"
	"scriptgen/internal/speech"
	"scriptgen/internal/storage"
	"scriptgen/internal/youtube"
	"scriptgen/pkg/prompts"
	"scriptgen/pkg/retry"
)

var (
	ErrNoImageGenerator = errors.New("image generation is not configured")
	ErrNoSynthesizer    = errors.New("speech synthesis is not configured")
	ErrNoMetadata       = errors.New("youtube metadata import is not configured")
	ErrNoExporter       = errors.New("export is not configured")
)

// TopicImage is one topic of a batch and the outcome of its image job.
type TopicImage struct {
	Topic analysis.Topic
	URL   string
	Err   error
}

func NewTopicImages(topics []analysis.Topic) []*TopicImage {
	items := make([]*TopicImage, len(topics))
	for i, t := range topics {
		items[i] = &TopicImage{Topic: t}
	}
	return items
}

// Import is a fetched video and its classification.
type Import struct {
	Metadata *youtube.Metadata
	Analysis analysis.ScriptAnalysis
}

// Apply pre-fills params from the imported video.
func (i *Import) Apply(params *prompts.ScriptParams, link string) {
	i.Analysis.Apply(params)
	if params.Topic == "" {
		params.Topic = i.Metadata.Title
	}
	if params.YouTubeLink == "" {
		params.YouTubeLink = link
	}
}

func (s *Service) describe(providerID string, kind provider.Kind) (provider.Descriptor, error) {
	desc, ok := s.registry.Lookup(providerID)
	if !ok || desc.Kind != kind {
		return provider.Descriptor{}, generation.Unsupported(providerID)
	}
	return desc, nil
}

// Credential resolves the stored key for providerID.
func (s *Service) Credential(ctx context.Context, providerID string) (string, error) {
	desc, ok := s.registry.Lookup(providerID)
	if !ok {
		return "", generation.Unsupported(providerID)
	}
	return credentials.Resolve(ctx, s.store, desc)
}

// SaveCredential stores secret in providerID's slot.
func (s *Service) SaveCredential(ctx context.Context, providerID, secret string) error {
	desc, ok := s.registry.Lookup(providerID)
	if !ok {
		return generation.Unsupported(providerID)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return credentials.ErrEmptySlot
	}
	if s.store == nil {
		return fmt.Errorf("no credential store configured")
	}
	if err := s.store.Set(ctx, desc.CredentialSlot, secret); err != nil {
		return fmt.Errorf("failed to save %s: %w", desc.CredentialSlot, err)
	}
	slog.Debug("Credential saved", "provider", providerID, "slot", desc.CredentialSlot)
	return nil
}

// KeyStatus reports whether a provider has a stored key.
type KeyStatus struct {
	Provider provider.Descriptor
	Present  bool
}

func (s *Service) KeyStatuses(ctx context.Context) ([]KeyStatus, error) {
	descs := s.registry.List("")
	out := make([]KeyStatus, 0, len(descs))
	for _, d := range descs {
		_, err := credentials.Resolve(ctx, s.store, d)
		switch {
		case err == nil:
			out = append(out, KeyStatus{Provider: d, Present: true})
		case errors.Is(err, generation.ErrCredentialMissing):
			out = append(out, KeyStatus{Provider: d})
		default:
			return nil, err
		}
	}
	return out, nil
}

// GenerateScript renders the script prompt for params and sends it to
// providerID. Dispatch is wrapped in the service retry policy; only
// transport failures are retried.
func (s *Service) GenerateScript(ctx context.Context, providerID string, params prompts.ScriptParams) (*generation.Result, error) {
	if providerID == "" {
		providerID = s.cfg.Script.Provider
	}
	desc, err := s.describe(providerID, provider.KindText)
	if err != nil {
		return nil, err
	}

	prompt, err := s.prompts.RenderScript(params)
	if err != nil {
		return nil, fmt.Errorf("invalid script request: %w", err)
	}

	credential, err := credentials.Resolve(ctx, s.store, desc)
	if err != nil {
		return nil, err
	}

	req := generation.Request{
		Prompt:      prompt,
		MaxTokens:   s.cfg.Script.MaxTokens,
		Temperature: s.cfg.Script.Temperature,
	}

	slog.Info("Generating script", "provider", providerID, "topic", params.Topic)
	result, err := retry.Do(ctx, s.retry, func(ctx context.Context) (*generation.Result, error) {
		return s.dispatcher.Dispatch(ctx, providerID, req, credential)
	}, generation.IsRetryable)
	if err != nil {
		return nil, err
	}

	slog.Debug("Script generated", "provider", providerID, "length", len(result.Text))
	return result, nil
}

func (s *Service) Topics(script string) []analysis.Topic {
	return analysis.ExtractTopics(script)
}

// GenerateImages runs one image job per item, in order. Items that already
// have a URL are skipped so a failed batch can be resumed. A failing item
// records its error and the batch moves on; the returned error is reserved
// for problems that stop the whole batch.
func (s *Service) GenerateImages(ctx context.Context, providerID string, items []*TopicImage) error {
	if providerID == "" {
		providerID = s.cfg.Images.Provider
	}
	desc, err := s.describe(providerID, provider.KindImage)
	if err != nil {
		return err
	}
	if providerID != s.imageProvider {
		return generation.Unsupported(providerID)
	}
	if s.images == nil {
		return ErrNoImageGenerator
	}

	credential, err := credentials.Resolve(ctx, s.store, desc)
	if err != nil {
		return err
	}

	for i, item := range items {
		if item.URL != "" {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		prompt, err := s.imagePrompt(item.Topic)
		if err != nil {
			item.Err = err
			continue
		}

		slog.Info("Generating image", "index", i+1, "total", len(items), "topic", item.Topic.Title())
		result, err := s.images.Generate(ctx, credential, jobs.ImageParams{Prompt: prompt})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			slog.Warn("Image generation failed", "topic", item.Topic.Title(), "error", err)
			item.Err = err
			continue
		}
		item.URL = result.ArtifactURL
		item.Err = nil
	}
	return nil
}

func (s *Service) imagePrompt(topic analysis.Topic) (string, error) {
	title := strings.TrimSpace(topic.Prompt)
	if title == "" {
		title = topic.Title()
	}
	return s.prompts.RenderImage(prompts.ImageParams{Title: title})
}

// Narrate turns text into MP3 audio. voice may be an id or a voice name;
// empty voice and model use the configured defaults.
func (s *Service) Narrate(ctx context.Context, text, voice, model string) ([]byte, error) {
	if s.speech == nil {
		return nil, ErrNoSynthesizer
	}
	desc, err := s.describe(provider.ElevenLabs, provider.KindSpeech)
	if err != nil {
		return nil, err
	}

	if voice == "" {
		voice = s.cfg.Speech.VoiceID
	}
	if v, ok := speech.ResolveVoice(voice); ok {
		voice = v.ID
	}
	if model == "" {
		model = s.cfg.Speech.Model
	}
	if model != "" && !speech.IsModel(model) {
		slog.Warn("Unknown speech model, sending as is", "model", model)
	}

	credential, err := credentials.Resolve(ctx, s.store, desc)
	if err != nil {
		return nil, err
	}

	slog.Info("Generating audio", "voice", voice, "characters", len(text))
	return s.speech.Synthesize(ctx, credential, speech.Request{Text: text, VoiceID: voice, Model: model})
}

// ImportMetadata fetches the video behind link and classifies it.
func (s *Service) ImportMetadata(ctx context.Context, link string) (*Import, error) {
	id, err := youtube.ParseVideoID(link)
	if err != nil {
		return nil, err
	}

	fetcher, err := s.metadataFetcher(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Importing video metadata", "video", id)
	meta, err := fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Import{
		Metadata: meta,
		Analysis: s.taxonomy.Classify(meta.ClassificationText(), meta.Tags),
	}, nil
}

func (s *Service) metadataFetcher(ctx context.Context) (MetadataFetcher, error) {
	if s.metadata != nil {
		return s.metadata, nil
	}
	if s.metadataFactory == nil {
		return nil, ErrNoMetadata
	}
	apiKey, err := s.Credential(ctx, provider.YouTube)
	if err != nil {
		return nil, err
	}
	fetcher, err := s.metadataFactory(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	s.metadata = fetcher
	return fetcher, nil
}

// ExportScript saves a generated script under run and returns its location.
func (s *Service) ExportScript(ctx context.Context, run Run, topic, providerID, text string) (string, error) {
	return s.export(ctx, run.path(storage.ScriptFileName(topic, providerID)), []byte(text))
}

func (s *Service) ExportAudio(ctx context.Context, run Run, audio []byte) (string, error) {
	return s.export(ctx, run.path("narracao.mp3"), audio)
}

// ExportImages saves a markdown list of topic titles and image URLs.
func (s *Service) ExportImages(ctx context.Context, run Run, items []*TopicImage) (string, error) {
	var b strings.Builder
	b.WriteString("# Imagens\n\n")
	for i, item := range items {
		switch {
		case item.URL != "":
			fmt.Fprintf(&b, "%d. %s\n   ![%s](%s)\n", i+1, item.Topic.Title(), item.Topic.Title(), item.URL)
		case item.Err != nil:
			fmt.Fprintf(&b, "%d. %s\n   erro: %v\n", i+1, item.Topic.Title(), item.Err)
		default:
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Topic.Title())
		}
	}
	return s.export(ctx, run.path("imagens.md"), []byte(b.String()))
}

func (s *Service) export(ctx context.Context, name string, data []byte) (string, error) {
	if s.exporter == nil {
		return "", ErrNoExporter
	}
	location, err := s.exporter.Save(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", name, err)
	}
	slog.Debug("Exported", "location", location)
	return location, nil
}
