package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scriptgen/internal/app"
	"scriptgen/internal/credentials"
	"scriptgen/internal/dispatch"
	"scriptgen/internal/provider"
	"scriptgen/internal/youtube"
	"scriptgen/pkg/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var envOrder = []string{
	"GOOGLE_CLOUD_PROJECT",
	"YOUTUBE_CLIENT_ID",
	"YOUTUBE_CLIENT_SECRET",
	"REDIS_ADDR",
	"GCS_BUCKET",
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for scriptgen",
	Long:  `Choose the default provider and credential backend, store API keys and optionally connect Google Cloud and YouTube.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

type setupState struct {
	ctx context.Context
	cfg *config.Config
	env map[string]string
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 Scriptgen Setup"))

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	state := &setupState{ctx: cmd.Context(), cfg: cfg, env: make(map[string]string)}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Choosing defaults", state.chooseDefaults},
		{"Configuring credential backend", state.configureBackend},
		{"Configuring Google Cloud", state.configureGCP},
		{"Writing configuration", state.writeConfig},
		{"Storing API keys", state.configureKeys},
		{"Creating directories", state.createDirectories},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	printNextSteps()
	return nil
}

func (s *setupState) chooseDefaults() error {
	dispatcher := dispatch.New(dispatch.Options{})
	var options []huh.Option[string]
	for _, d := range provider.Default().List(provider.KindText) {
		if dispatcher.Supports(d.ID) {
			options = append(options, huh.NewOption(d.DisplayName, d.ID))
		}
	}

	return huh.NewSelect[string]().
		Title("Default script provider").
		Options(options...).
		Value(&s.cfg.Script.Provider).
		Run()
}

func (s *setupState) configureBackend() error {
	if err := huh.NewSelect[string]().
		Title("Where should API keys be stored?").
		Options(
			huh.NewOption("Local .env file", config.BackendFile),
			huh.NewOption("Environment variables only", config.BackendEnv),
			huh.NewOption("Google Cloud Secret Manager", config.BackendSecretManager),
			huh.NewOption("Redis", config.BackendRedis),
		).
		Value(&s.cfg.Credentials.Backend).
		Run(); err != nil {
		return err
	}

	if s.cfg.Credentials.Backend != config.BackendRedis {
		return nil
	}

	addr := s.cfg.Credentials.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	if err := huh.NewInput().
		Title("Redis address").
		Value(&addr).
		Validate(required("Redis address")).
		Run(); err != nil {
		return err
	}
	s.cfg.Credentials.RedisAddr = strings.TrimSpace(addr)
	s.env["REDIS_ADDR"] = s.cfg.Credentials.RedisAddr
	return nil
}

func (s *setupState) configureGCP() error {
	needsProject := s.cfg.Credentials.Backend == config.BackendSecretManager

	setupGCP := needsProject
	if !needsProject {
		if err := huh.NewConfirm().
			Title("Setup Google Cloud?").
			Description("Used for Secret Manager, Cloud Storage exports and YouTube OAuth").
			Value(&setupGCP).
			Run(); err != nil {
			return err
		}
	}
	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		if needsProject {
			return s.enterProjectManually()
		}
		return nil
	}

	project, err := getOrCreateGCPProject()
	if err != nil {
		if needsProject {
			return err
		}
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}
	s.cfg.GCPProject = project
	s.env["GOOGLE_CLOUD_PROJECT"] = project

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	if err := s.configureBucket(); err != nil {
		return err
	}

	if err := s.setupYouTubeOAuth(); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("YouTube OAuth skipped: %v", err)))
	}
	return nil
}

func (s *setupState) enterProjectManually() error {
	var projectID string
	if err := huh.NewInput().
		Title("Google Cloud project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}
	s.cfg.GCPProject = strings.TrimSpace(projectID)
	s.env["GOOGLE_CLOUD_PROJECT"] = s.cfg.GCPProject
	return nil
}

func (s *setupState) configureBucket() error {
	bucket := s.cfg.Export.GCSBucket
	if err := huh.NewInput().
		Title("Cloud Storage bucket for exports").
		Description("Leave empty to export to " + s.cfg.Export.Dir).
		Value(&bucket).
		Run(); err != nil {
		return err
	}
	bucket = strings.TrimSpace(bucket)
	s.cfg.Export.GCSBucket = bucket
	if bucket != "" {
		s.env["GCS_BUCKET"] = bucket
	}
	return nil
}

func getOrCreateGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Create new project", "new"),
	}

	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	options = append(options, huh.NewOption("Enter project ID manually", "manual"))

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	switch choice {
	case "new":
		return createGCPProject()
	case "manual":
		var projectID string
		if err := huh.NewInput().
			Title("Project ID").
			Value(&projectID).
			Run(); err != nil {
			return "", err
		}
		return strings.TrimSpace(projectID), nil
	default:
		return choice, nil
	}
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func createGCPProject() (string, error) {
	var projectID string
	if err := huh.NewInput().
		Title("New Project ID").
		Description("Must be globally unique, 6-30 chars, lowercase letters, digits, hyphens").
		Placeholder("scriptgen-12345").
		Value(&projectID).
		Validate(func(s string) error {
			if len(s) < 6 || len(s) > 30 {
				return fmt.Errorf("must be 6-30 characters")
			}
			return nil
		}).
		Run(); err != nil {
		return "", err
	}

	err := runWithSpinner("Creating project", func() error {
		return runSetupCmd("gcloud", "projects", "create", projectID)
	})
	if err != nil {
		return "", err
	}

	_ = runSetupCmd("gcloud", "config", "set", "project", projectID)

	return projectID, nil
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func (s *setupState) setupYouTubeOAuth() error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup YouTube OAuth?").
		Description("Reads video metadata without a YouTube API key").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Copy the Client ID and Client Secret
`))

	var clientID, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("YouTube Client ID").
				Value(&clientID),
			huh.NewInput().
				Title("YouTube Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)

	if clientID != "" {
		s.env["YOUTUBE_CLIENT_ID"] = clientID
	}
	if clientSecret != "" {
		s.env["YOUTUBE_CLIENT_SECRET"] = clientSecret
	}

	if clientID == "" || clientSecret == "" {
		return nil
	}

	var authenticate bool
	if err := huh.NewConfirm().
		Title("Authenticate with YouTube now?").
		Description("Opens browser to complete OAuth flow").
		Value(&authenticate).
		Run(); err != nil {
		return err
	}

	if authenticate {
		auth := youtube.NewAuth(clientID, clientSecret, s.cfg.YouTube.RedirectURL, s.cfg.YouTube.TokenPath)
		if err := runYouTubeAuth(s.ctx, auth, s.cfg.YouTube.RedirectURL); err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
			fmt.Println(infoStyle.Render("You can retry later with: scriptgen auth youtube"))
		}
	}
	return nil
}

func (s *setupState) writeConfig() error {
	if err := writeEnvFile(s.env); err != nil {
		return err
	}

	path := config.DefaultPath()
	if _, err := os.Stat(path); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing " + path).
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing " + path))
			return nil
		}
	}

	if err := config.Save(s.cfg, path); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Wrote " + path))
	return nil
}

func (s *setupState) configureKeys() error {
	store, closer, err := app.BuildStore(s.ctx, s.cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	registry := provider.Default()
	selected := []string{s.cfg.Script.Provider, provider.Leonardo, provider.ElevenLabs}

	var options []huh.Option[string]
	for _, d := range registry.List("") {
		if d.Endpoint == "" {
			continue
		}
		present := ""
		if _, err := credentials.Resolve(s.ctx, store, d); err == nil {
			present = " ✓"
		}
		options = append(options, huh.NewOption(d.DisplayName+present, d.ID))
	}

	if err := huh.NewMultiSelect[string]().
		Title("Which API keys do you want to enter now?").
		Options(options...).
		Value(&selected).
		Run(); err != nil {
		return err
	}

	for _, id := range selected {
		d, _ := registry.Lookup(id)
		var secret string
		if err := huh.NewInput().
			Title(d.DisplayName + " API Key").
			Description(d.KeyURL + " (leave empty to skip)").
			EchoMode(huh.EchoModePassword).
			Value(&secret).
			Run(); err != nil {
			return err
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			continue
		}
		if err := store.Set(s.ctx, d.CredentialSlot, secret); err != nil {
			return fmt.Errorf("failed to save %s: %w", d.CredentialSlot, err)
		}
		fmt.Println(successStyle.Render("✓ Saved " + d.CredentialSlot))
	}
	return nil
}

func (s *setupState) createDirectories() error {
	if s.cfg.Export.GCSBucket != "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.Export.Dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", s.cfg.Export.Dir, err)
	}
	fmt.Println(successStyle.Render("✓ Created " + s.cfg.Export.Dir))
	return nil
}

// writeEnvFile merges env into .env, keeping keys already there.
func writeEnvFile(env map[string]string) error {
	if len(env) == 0 {
		return nil
	}

	values := map[string]string{}
	if _, err := os.Stat(".env"); err == nil {
		existing, err := godotenv.Read(".env")
		if err != nil {
			return fmt.Errorf("read .env: %w", err)
		}
		values = existing
	}

	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			values[key] = val
		}
	}

	if err := godotenv.Write(values, ".env"); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}
	if err := os.Chmod(".env", 0600); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Updated .env file"))
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check your keys: scriptgen keys status")
	fmt.Println("  2. Write a script: scriptgen script -t \"your topic\" -d 10 -s Educativo -o roteiro.txt")
	fmt.Println("  3. Illustrate it:  scriptgen images roteiro.txt")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, successStyle.Render("✓ "+title))
	return nil
}
