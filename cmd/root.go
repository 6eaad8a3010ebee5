package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"scriptgen/internal/app"
	"scriptgen/internal/generation"
	"scriptgen/pkg/config"
)

var (
	verbose bool
	noInput bool
)

var rootCmd = &cobra.Command{
	Use:   "scriptgen",
	Short: "Generate YouTube scripts, topic images and narration",
	Long: `Scriptgen writes YouTube video scripts with the text model of your choice,
extracts the script's topics, generates one image per topic and narrates the
result. Reference videos can pre-fill the request from their YouTube metadata.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Never prompt; fail when a key is missing")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadService(ctx context.Context) (*app.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.BuildService(ctx, cfg)
}

// withCredentialPrompt runs fn and, when it fails for lack of a key, asks
// for the key, saves it and runs fn once more.
func withCredentialPrompt(ctx context.Context, svc *app.Service, fn func() error) error {
	err := fn()
	var genErr *generation.Error
	if noInput || !errors.As(err, &genErr) || genErr.Kind != generation.KindCredentialMissing {
		return err
	}

	desc, ok := svc.Registry().Lookup(genErr.ProviderID)
	if !ok {
		return err
	}
	fmt.Println(warnStyle.Render(fmt.Sprintf("No %s key found.", desc.DisplayName)))

	secret, promptErr := promptSecret(desc.DisplayName+" API Key", desc.KeyURL)
	if promptErr != nil {
		if errors.Is(promptErr, huh.ErrUserAborted) {
			return err
		}
		return promptErr
	}
	if err := svc.SaveCredential(ctx, desc.ID, secret); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Saved " + desc.CredentialSlot))

	return fn()
}
