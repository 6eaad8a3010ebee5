package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"scriptgen/internal/app"
	"scriptgen/internal/generation"
	"scriptgen/pkg/prompts"
)

var (
	scriptProvider    string
	scriptFromYouTube string
	scriptOut         string
	scriptExport      bool
	scriptParams      prompts.ScriptParams
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Generate a video script",
	Long: `Generate a YouTube video script with a text provider. A reference video given
with --from-youtube fills the topic, link and niche fields from its metadata;
flags given explicitly take precedence.`,
	Args: cobra.NoArgs,
	RunE: runScript,
}

func init() {
	f := scriptCmd.Flags()
	f.StringVarP(&scriptProvider, "provider", "p", "", "Text provider (see: scriptgen providers)")
	f.StringVar(&scriptFromYouTube, "from-youtube", "", "Pre-fill from a YouTube video link")
	f.StringVarP(&scriptOut, "out", "o", "", "Write the script to this file")
	f.BoolVar(&scriptExport, "export", false, "Save the script to the configured export location")

	f.StringVarP(&scriptParams.Topic, "topic", "t", "", "Video topic")
	f.StringVarP(&scriptParams.Duration, "duration", "d", "", "Duration in minutes")
	f.StringVarP(&scriptParams.Style, "style", "s", "", "Narration style")
	f.StringVar(&scriptParams.StyleKeywords, "keywords", "", "Style keywords")
	f.StringVarP(&scriptParams.Language, "language", "l", "pt-br", "Script language code or name")
	f.StringVar(&scriptParams.Niche, "niche", "", "Niche")
	f.StringVar(&scriptParams.Subniche, "subniche", "", "Sub-niche")
	f.StringVar(&scriptParams.Microniche, "microniche", "", "Micro-niche")
	f.StringVar(&scriptParams.Nanoniche, "nanoniche", "", "Nano-niche")
	f.StringVar(&scriptParams.Audience, "audience", "", "Target audience")
	f.StringVar(&scriptParams.AdditionalInfo, "info", "", "Additional information")
	f.StringVar(&scriptParams.YouTubeLink, "link", "", "Reference YouTube link")
	f.BoolVar(&scriptParams.Qualified, "qualified", false, "Audience already knows the subject")

	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	params := scriptParams
	if scriptFromYouTube != "" {
		var imp *app.Import
		err := withCredentialPrompt(ctx, svc, func() error {
			return runWithSpinner("Importing video metadata", func() (err error) {
				imp, err = svc.ImportMetadata(ctx, scriptFromYouTube)
				return err
			})
		})
		if err != nil {
			return err
		}
		params = mergeImport(cmd, imp, scriptFromYouTube)
		printImport(imp)
	}

	if err := completeParams(&params); err != nil {
		return err
	}

	providerID := scriptProvider
	if providerID == "" {
		providerID = svc.Config().Script.Provider
	}

	var result *generation.Result
	err = withCredentialPrompt(ctx, svc, func() error {
		return runWithSpinner("Generating script with "+providerID, func() (err error) {
			result, err = svc.GenerateScript(ctx, providerID, params)
			return err
		})
	})
	if err != nil {
		return err
	}

	if scriptOut != "" {
		if err := os.WriteFile(scriptOut, []byte(result.Text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", scriptOut, err)
		}
		fmt.Println(successStyle.Render("✓ Script written to " + scriptOut))
	}

	if scriptExport {
		location, err := svc.ExportScript(ctx, app.NewRun(params.Topic), params.Topic, providerID, result.Text)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Exported to " + location))
	}

	if scriptOut == "" {
		fmt.Println(result.Text)
	}
	return nil
}

// mergeImport applies the imported metadata, then puts back every field the
// user set explicitly.
func mergeImport(cmd *cobra.Command, imp *app.Import, link string) prompts.ScriptParams {
	params := scriptParams
	params.Niche, params.Subniche, params.Microniche, params.Nanoniche = "", "", "", ""
	imp.Apply(&params, link)

	flags := cmd.Flags()
	keep := map[string]*string{
		"niche":      &params.Niche,
		"subniche":   &params.Subniche,
		"microniche": &params.Microniche,
		"nanoniche":  &params.Nanoniche,
	}
	explicit := map[string]string{
		"niche":      scriptParams.Niche,
		"subniche":   scriptParams.Subniche,
		"microniche": scriptParams.Microniche,
		"nanoniche":  scriptParams.Nanoniche,
	}
	for name, field := range keep {
		if flags.Changed(name) {
			*field = explicit[name]
		}
	}
	if flags.Changed("qualified") {
		params.Qualified = scriptParams.Qualified
	}
	return params
}

func printImport(imp *app.Import) {
	a := imp.Analysis
	fmt.Println(infoStyle.Render(fmt.Sprintf("Video: %s", imp.Metadata.Title)))
	slog.Debug("Imported classification",
		"niche", a.Niche,
		"subniche", a.Subniche,
		"microniche", a.Microniche,
		"nanoniche", a.Nanoniche,
		"qualified", a.Qualified,
	)
}

// completeParams asks for the required fields that are still empty.
func completeParams(params *prompts.ScriptParams) error {
	err := prompts.Validate(*params)
	if err == nil || noInput {
		return err
	}

	var fields []huh.Field
	if strings.TrimSpace(params.Topic) == "" {
		fields = append(fields, huh.NewInput().Title("Topic").Value(&params.Topic).Validate(required("Topic")))
	}
	if strings.TrimSpace(params.Duration) == "" {
		fields = append(fields, huh.NewInput().Title("Duration (minutes)").Placeholder("10").Value(&params.Duration).Validate(required("Duration")))
	}
	if strings.TrimSpace(params.Style) == "" {
		fields = append(fields, huh.NewInput().Title("Style").Placeholder("Educativo").Value(&params.Style).Validate(required("Style")))
	}

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}
