package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"scriptgen/internal/generation"
)

var keyValue string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys",
	Long:  `Store, inspect and obtain the API keys of every provider in the configured credential backend.`,
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Save a provider API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysSet,
}

var keysStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have a key",
	Args:  cobra.NoArgs,
	RunE:  runKeysStatus,
}

var keysOpenCmd = &cobra.Command{
	Use:   "open <provider>",
	Short: "Open the page where a provider issues API keys",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysOpen,
}

func init() {
	keysSetCmd.Flags().StringVar(&keyValue, "value", "", "Key to store (prompted when empty)")
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysStatusCmd)
	keysCmd.AddCommand(keysOpenCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	desc, ok := svc.Registry().Lookup(args[0])
	if !ok {
		return generation.Unsupported(args[0])
	}

	secret := keyValue
	if secret == "" {
		if noInput {
			return fmt.Errorf("--value is required with --no-input")
		}
		secret, err = promptSecret(desc.DisplayName+" API Key", desc.KeyURL)
		if err != nil {
			return err
		}
	}

	if err := svc.SaveCredential(ctx, desc.ID, secret); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Saved " + desc.CredentialSlot))
	return nil
}

func runKeysStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	statuses, err := svc.KeyStatuses(ctx)
	if err != nil {
		return err
	}

	fmt.Println(authInfoStyle.Render(fmt.Sprintf("\nKeys (%s backend):\n", svc.Config().Credentials.Backend)))
	for _, s := range statuses {
		if s.Present {
			fmt.Println(authSuccessStyle.Render(fmt.Sprintf("✓ %-12s %s", s.Provider.ID, s.Provider.DisplayName)))
		} else {
			fmt.Println(authErrorStyle.Render(fmt.Sprintf("✗ %-12s missing %s", s.Provider.ID, s.Provider.CredentialSlot)))
		}
	}
	fmt.Println()
	return nil
}

func runKeysOpen(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	desc, ok := svc.Registry().Lookup(args[0])
	if !ok {
		return generation.Unsupported(args[0])
	}
	if desc.KeyURL == "" {
		return fmt.Errorf("%s has no key page", desc.ID)
	}

	fmt.Println(infoStyle.Render("Opening " + desc.KeyURL))
	if err := browser.OpenURL(desc.KeyURL); err != nil {
		fmt.Println(warnStyle.Render("Could not open a browser, visit the link above."))
	}
	return nil
}

func promptSecret(title, keyURL string) (string, error) {
	var secret string
	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Validate(required(title))
	if keyURL != "" {
		input = input.Description(keyURL)
	}
	if err := input.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(secret), nil
}
