package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scriptgen/internal/analysis"
	"scriptgen/internal/app"
)

var (
	imagesProvider string
	imagesLimit    int
	imagesExport   bool
	imagesPrompts  []string
	imagesOnly     []int
)

var imagesCmd = &cobra.Command{
	Use:   "images <script-file>",
	Short: "Generate one image per script topic",
	Long: `Extract the topics of a script and generate an image for each, one job at a
time. A failed topic does not stop the batch.

Topics are numbered from 1 as printed by "scriptgen topics". Use --prompt to
replace the prompt of a topic and --only to regenerate selected topics:

  scriptgen images roteiro.md --only 3 --prompt "3=um farol ao entardecer"`,
	Args: cobra.ExactArgs(1),
	RunE: runImages,
}

func init() {
	imagesCmd.Flags().StringVarP(&imagesProvider, "provider", "p", "", "Image provider")
	imagesCmd.Flags().IntVarP(&imagesLimit, "limit", "n", 0, "Only the first n topics")
	imagesCmd.Flags().BoolVar(&imagesExport, "export", false, "Save the image list to the configured export location")
	imagesCmd.Flags().StringArrayVar(&imagesPrompts, "prompt", nil, "Replace a topic prompt, as N=text (repeatable)")
	imagesCmd.Flags().IntSliceVar(&imagesOnly, "only", nil, "Only generate the given topic numbers")
	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
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

	topics := svc.Topics(script)
	if imagesLimit > 0 && imagesLimit < len(topics) {
		topics = topics[:imagesLimit]
	}
	topics, numbers, err := selectTopics(topics, imagesOnly, imagesPrompts)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		fmt.Println(warnStyle.Render("No topics found"))
		return nil
	}

	items := app.NewTopicImages(topics)
	err = withCredentialPrompt(ctx, svc, func() error {
		return runWithSpinner(fmt.Sprintf("Generating %d images", len(items)), func() error {
			return svc.GenerateImages(ctx, imagesProvider, items)
		})
	})
	if err != nil {
		return err
	}

	failed := 0
	for i, item := range items {
		if item.Err != nil {
			failed++
			fmt.Println(authErrorStyle.Render(fmt.Sprintf("✗ %2d. %s: %v", numbers[i], item.Topic.Title(), item.Err)))
			continue
		}
		fmt.Println(authSuccessStyle.Render(fmt.Sprintf("✓ %2d. %s", numbers[i], item.Topic.Title())))
		fmt.Println("      " + item.URL)
	}

	if imagesExport {
		location, err := svc.ExportImages(ctx, app.NewRun(items[0].Topic.Title()), items)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Exported to " + location))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(items))
	}
	return nil
}

// selectTopics applies N=text prompt overrides and keeps only the topics
// numbered in only, when set. It returns the 1-based number of each kept
// topic alongside it.
func selectTopics(topics []analysis.Topic, only []int, overrides []string) ([]analysis.Topic, []int, error) {
	for _, o := range overrides {
		key, text, ok := strings.Cut(o, "=")
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if !ok || err != nil {
			return nil, nil, fmt.Errorf("invalid --prompt %q, want N=text", o)
		}
		if n < 1 || n > len(topics) {
			return nil, nil, fmt.Errorf("--prompt topic %d out of range 1-%d", n, len(topics))
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil, fmt.Errorf("--prompt for topic %d is empty", n)
		}
		topics[n-1].Prompt = text
	}

	if len(only) == 0 {
		numbers := make([]int, len(topics))
		for i := range topics {
			numbers[i] = i + 1
		}
		return topics, numbers, nil
	}

	var selected []analysis.Topic
	var numbers []int
	seen := make(map[int]bool, len(only))
	for _, n := range only {
		if n < 1 || n > len(topics) {
			return nil, nil, fmt.Errorf("--only topic %d out of range 1-%d", n, len(topics))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		selected = append(selected, topics[n-1])
		numbers = append(numbers, n)
	}
	return selected, numbers, nil
}
