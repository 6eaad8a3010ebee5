package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"scriptgen/internal/dispatch"
	"scriptgen/internal/provider"
)

var (
	kindStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	idStyle   = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("39"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var providerKinds = []struct {
	kind  provider.Kind
	title string
}{
	{provider.KindText, "Script (text)"},
	{provider.KindImage, "Images"},
	{provider.KindSpeech, "Narration"},
	{provider.KindMetadata, "Video metadata"},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the known providers",
	Args:  cobra.NoArgs,
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	registry := svc.Registry()
	dispatcher := dispatch.New(dispatch.Options{Registry: registry})

	for _, k := range providerKinds {
		fmt.Println(kindStyle.Render(k.title))
		for _, d := range registry.List(k.kind) {
			line := idStyle.Render(d.ID) + d.DisplayName
			if !providerAvailable(d, dispatcher) {
				line += dimStyle.Render("  (not supported yet)")
			}
			fmt.Println("  " + line)
		}
		fmt.Println()
	}
	return nil
}

func providerAvailable(d provider.Descriptor, dispatcher *dispatch.Dispatcher) bool {
	switch d.Kind {
	case provider.KindText:
		return dispatcher.Supports(d.ID)
	case provider.KindImage:
		return d.ID == provider.Leonardo
	default:
		return true
	}
}
