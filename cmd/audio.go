package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scriptgen/internal/app"
	"scriptgen/internal/speech"
)

var (
	audioVoice  string
	audioModel  string
	audioOut    string
	audioExport bool
	audioList   bool
)

var audioCmd = &cobra.Command{
	Use:   "audio [script-file]",
	Short: "Narrate a script",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAudio,
}

func init() {
	audioCmd.Flags().StringVar(&audioVoice, "voice", "", "Voice id or name")
	audioCmd.Flags().StringVar(&audioModel, "model", "", "Speech model id")
	audioCmd.Flags().StringVarP(&audioOut, "out", "o", "narracao.mp3", "Output MP3 file")
	audioCmd.Flags().BoolVar(&audioExport, "export", false, "Save the audio to the configured export location")
	audioCmd.Flags().BoolVar(&audioList, "list-voices", false, "List voices and models")
	rootCmd.AddCommand(audioCmd)
}

func runAudio(cmd *cobra.Command, args []string) error {
	if audioList {
		printVoices()
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("a script file is required")
	}

	ctx := cmd.Context()
	script, err := readScript(args[0])
	if err != nil {
		return err
	}

	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var audio []byte
	err = withCredentialPrompt(ctx, svc, func() error {
		return runWithSpinner("Generating audio", func() (err error) {
			audio, err = svc.Narrate(ctx, script, audioVoice, audioModel)
			return err
		})
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(audioOut, audio, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", audioOut, err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ %s (%.0fs)", audioOut, speech.EstimateAudioDuration(audio))))

	if audioExport {
		location, err := svc.ExportAudio(ctx, app.NewRun(""), audio)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Exported to " + location))
	}
	return nil
}

func printVoices() {
	fmt.Println(kindStyle.Render("Voices"))
	for _, v := range speech.Voices {
		fmt.Println("  " + idStyle.Render(v.Name) + dimStyle.Render(v.ID))
	}
	fmt.Println()
	fmt.Println(kindStyle.Render("Models"))
	for _, m := range speech.Models {
		fmt.Println("  " + m.ID + dimStyle.Render("  "+m.Name))
	}
}
