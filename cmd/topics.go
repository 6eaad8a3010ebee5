package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"scriptgen/internal/analysis"
)

var topicsCmd = &cobra.Command{
	Use:   "topics <script-file>",
	Short: "List the topics found in a script",
	Long:  `Extract the section titles of a script, as used for image generation. Use "-" to read stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	script, err := readScript(args[0])
	if err != nil {
		return err
	}

	topics := analysis.ExtractTopics(script)
	if len(topics) == 0 {
		fmt.Println(warnStyle.Render("No topics found"))
		return nil
	}
	for i, t := range topics {
		fmt.Printf("%2d. %s\n", i+1, t.Title())
	}
	return nil
}

func readScript(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}
