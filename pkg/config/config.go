package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath        = "config.yaml"
	defaultScriptProvider    = "gemini"
	defaultImageProvider     = "leonardo"
	defaultImageWidth        = 1024
	defaultImageHeight       = 1024
	defaultImageModel        = "e316348f-7773-490e-9ce1-2fa6f8ad5f2b"
	defaultPollInterval      = 2 * time.Second
	defaultPollDeadline      = 60 * time.Second
	defaultRequestsPerMinute = 30
	defaultVoiceID           = "9BWtsMINqrJLrRacOk9x"
	defaultSpeechModel       = "eleven_multilingual_v2"
	defaultCredentialBackend = BackendFile
	defaultCredentialFile    = ".env"
	defaultSecretPrefix      = "scriptgen-"
	defaultRedisPrefix       = "scriptgen:keys:"
	defaultOutputDir         = "./output"
	defaultRetryAttempts     = 1
	defaultRetryDelay        = 500 * time.Millisecond
	defaultRetryMaxDelay     = 5 * time.Second
	defaultRetryMultiplier   = 2.0
	defaultHTTPTimeout       = 120 * time.Second
	defaultTokenPath         = "./youtube_token.json"
	defaultRedirectURL       = "http://localhost:8085/callback"
	defaultPromptsFile       = "prompts.yaml"
)

// Credential backends.
const (
	BackendMemory        = "memory"
	BackendEnv           = "env"
	BackendFile          = "file"
	BackendSecretManager = "secretmanager"
	BackendRedis         = "redis"
)

type Config struct {
	GCPProject          string `yaml:"-"`
	YouTubeClientID     string `yaml:"-"`
	YouTubeClientSecret string `yaml:"-"`

	Script      ScriptConfig      `yaml:"script"`
	Images      ImagesConfig      `yaml:"images"`
	Speech      SpeechConfig      `yaml:"speech"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy"`
	Export      ExportConfig      `yaml:"export"`
	Retry       RetryConfig       `yaml:"retry"`
	HTTP        HTTPConfig        `yaml:"http"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Prompts     PromptsConfig     `yaml:"prompts"`
	// Endpoints overrides provider endpoints by provider id, for gateways
	// and proxies.
	Endpoints map[string]string `yaml:"endpoints"`
}

type ScriptConfig struct {
	Provider    string   `yaml:"provider"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

type ImagesConfig struct {
	Provider          string        `yaml:"provider"`
	Width             int           `yaml:"width"`
	Height            int           `yaml:"height"`
	ModelID           string        `yaml:"model_id"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	Deadline          time.Duration `yaml:"deadline"`
	FailureStatuses   []string      `yaml:"failure_statuses"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type SpeechConfig struct {
	VoiceID    string  `yaml:"voice_id"`
	Model      string  `yaml:"model"`
	Stability  float64 `yaml:"stability"`
	Similarity float64 `yaml:"similarity"`
}

type CredentialsConfig struct {
	Backend       string `yaml:"backend"`
	File          string `yaml:"file"`
	SecretPrefix  string `yaml:"secret_prefix"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
	// FallbackToEnv also reads process environment variables when the
	// backend has no value for a slot.
	FallbackToEnv *bool `yaml:"fallback_to_env"`
}

type CategoryConfig struct {
	Niche   string `yaml:"niche"`
	Pattern string `yaml:"pattern"`
}

type TaxonomyConfig struct {
	Categories        []CategoryConfig `yaml:"categories"`
	Fallback          string           `yaml:"fallback"`
	Advanced          string           `yaml:"advanced"`
	QualifiedTagCount int              `yaml:"qualified_tag_count"`
}

type ExportConfig struct {
	Dir       string `yaml:"dir"`
	GCSBucket string `yaml:"gcs_bucket"`
	GCSPrefix string `yaml:"gcs_prefix"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type YouTubeConfig struct {
	TokenPath   string `yaml:"token_path"`
	RedirectURL string `yaml:"redirect_url"`
}

type PromptsConfig struct {
	File string `yaml:"file"`
}

// Load reads .env, then config.yaml from the working directory, then fills
// every unset field with its default. A missing config.yaml is not an error.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, defaultConfigPath)
}

func LoadFrom(_ context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GCPProject:          os.Getenv("GOOGLE_CLOUD_PROJECT"),
		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCRIPTGEN_PROVIDER"); v != "" {
		cfg.Script.Provider = v
	}
	if v := os.Getenv("SCRIPTGEN_CREDENTIALS_BACKEND"); v != "" {
		cfg.Credentials.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Credentials.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Credentials.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Credentials.RedisDB = db
		} else {
			slog.Warn("Ignoring invalid REDIS_DB", "value", v)
		}
	}
	if v := os.Getenv("GCS_BUCKET"); v != "" {
		cfg.Export.GCSBucket = v
	}
	if v := os.Getenv("YOUTUBE_TOKEN_PATH"); v != "" {
		cfg.YouTube.TokenPath = v
	}
}

func applyDefaults(cfg *Config) {
	applyScriptDefaults(cfg)
	applyImagesDefaults(cfg)
	applySpeechDefaults(cfg)
	applyCredentialsDefaults(cfg)
	applyExportDefaults(cfg)
	applyRetryDefaults(cfg)
	applyHTTPDefaults(cfg)
	applyYouTubeDefaults(cfg)
	applyPromptsDefaults(cfg)
}

func applyScriptDefaults(cfg *Config) {
	if cfg.Script.Provider == "" {
		cfg.Script.Provider = defaultScriptProvider
	}
}

func applyImagesDefaults(cfg *Config) {
	if cfg.Images.Provider == "" {
		cfg.Images.Provider = defaultImageProvider
	}
	if cfg.Images.Width == 0 {
		cfg.Images.Width = defaultImageWidth
	}
	if cfg.Images.Height == 0 {
		cfg.Images.Height = defaultImageHeight
	}
	if cfg.Images.ModelID == "" {
		cfg.Images.ModelID = defaultImageModel
	}
	if cfg.Images.PollInterval == 0 {
		cfg.Images.PollInterval = defaultPollInterval
	}
	if cfg.Images.Deadline == 0 {
		cfg.Images.Deadline = defaultPollDeadline
	}
	if len(cfg.Images.FailureStatuses) == 0 {
		cfg.Images.FailureStatuses = []string{"FAILED", "CANCELED", "ERROR"}
	}
	if cfg.Images.RequestsPerMinute == 0 {
		cfg.Images.RequestsPerMinute = defaultRequestsPerMinute
	}
}

func applySpeechDefaults(cfg *Config) {
	if cfg.Speech.VoiceID == "" {
		cfg.Speech.VoiceID = defaultVoiceID
	}
	if cfg.Speech.Model == "" {
		cfg.Speech.Model = defaultSpeechModel
	}
}

func applyCredentialsDefaults(cfg *Config) {
	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = defaultCredentialBackend
	}
	if cfg.Credentials.File == "" {
		cfg.Credentials.File = defaultCredentialFile
	}
	if cfg.Credentials.SecretPrefix == "" {
		cfg.Credentials.SecretPrefix = defaultSecretPrefix
	}
	if cfg.Credentials.RedisPrefix == "" {
		cfg.Credentials.RedisPrefix = defaultRedisPrefix
	}
	if cfg.Credentials.FallbackToEnv == nil {
		enabled := true
		cfg.Credentials.FallbackToEnv = &enabled
	}
}

func applyExportDefaults(cfg *Config) {
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = defaultOutputDir
	}
}

func applyRetryDefaults(cfg *Config) {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaultRetryAttempts
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = defaultRetryDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = defaultRetryMaxDelay
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = defaultRetryMultiplier
	}
}

func applyHTTPDefaults(cfg *Config) {
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = defaultHTTPTimeout
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if cfg.YouTube.TokenPath == "" {
		cfg.YouTube.TokenPath = defaultTokenPath
	}
	if cfg.YouTube.RedirectURL == "" {
		cfg.YouTube.RedirectURL = defaultRedirectURL
	}
}

func applyPromptsDefaults(cfg *Config) {
	if cfg.Prompts.File == "" {
		cfg.Prompts.File = defaultPromptsFile
	}
}

// Validate rejects values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Credentials.Backend {
	case BackendMemory, BackendEnv, BackendFile:
	case BackendSecretManager:
		if c.GCPProject == "" {
			return fmt.Errorf("credentials backend %q needs GOOGLE_CLOUD_PROJECT", c.Credentials.Backend)
		}
	case BackendRedis:
		if c.Credentials.RedisAddr == "" {
			return fmt.Errorf("credentials backend %q needs redis_addr or REDIS_ADDR", c.Credentials.Backend)
		}
	default:
		return fmt.Errorf("unknown credentials backend %q", c.Credentials.Backend)
	}

	if c.Images.Width < 0 || c.Images.Height < 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", c.Images.Width, c.Images.Height)
	}
	if c.Images.PollInterval < 0 || c.Images.Deadline < 0 {
		return fmt.Errorf("poll interval and deadline must be positive")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative")
	}
	return nil
}

// Save writes cfg as YAML to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func DefaultPath() string {
	return defaultConfigPath
}
