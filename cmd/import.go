package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scriptgen/internal/app"
)

var importCmd = &cobra.Command{
	Use:   "import <youtube-link>",
	Short: "Classify a YouTube video for script pre-filling",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var imp *app.Import
	err = withCredentialPrompt(ctx, svc, func() error {
		return runWithSpinner("Importing video metadata", func() (err error) {
			imp, err = svc.ImportMetadata(ctx, args[0])
			return err
		})
	})
	if err != nil {
		return err
	}

	m, a := imp.Metadata, imp.Analysis
	fmt.Println(titleStyle.Render(m.Title))
	printField("Channel", m.ChannelTitle)
	printField("Duration", m.Duration)
	printField("Views", fmt.Sprint(m.ViewCount))
	printField("Tags", strings.Join(m.Tags, ", "))
	fmt.Println()
	printField("Niche", a.Niche)
	printField("Sub-niche", a.Subniche)
	printField("Micro-niche", a.Microniche)
	printField("Nano-niche", a.Nanoniche)
	printField("Qualified", fmt.Sprint(a.Qualified))
	return nil
}

func printField(name, value string) {
	if value == "" {
		value = dimStyle.Render("-")
	}
	fmt.Println(idStyle.Render(name) + value)
}
