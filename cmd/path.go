package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/pathfinder/internal/learningpath"
)

func newPathCmd(opts *rootOptions) *cobra.Command {
	var startDate string
	var endDate string
	var format string
	var quiz bool
	var provider string

	cmd := &cobra.Command{
		Use:   "path <file>",
		Short: "Generate a learning path from a syllabus file",
		Long: `Runs OCR on a local syllabus and prints the generated learning path.

The file is copied into the uploads directory first; the original is left untouched.`,
		Example: `  # Thirty day plan starting today
  pathfinder path syllabus.pdf

  # Explicit dates, YAML output, no quizzes
  pathfinder path syllabus.pdf --start 2024-01-01 --end 2024-03-01 --format yaml --quiz=false

  # Try the pipeline without calling a chat model
  pathfinder path syllabus.pdf --provider mock`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (use json or yaml)", format)
			}

			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer log.Sync()
			// keep gin's debug banner out of the command output
			gin.SetMode(gin.ReleaseMode)

			if provider != "" {
				cfg.AI.Provider = strings.ToLower(provider)
			}
			if cmd.Flags().Changed("quiz") {
				cfg.AI.IncludeQuiz = quiz
			}

			now := time.Now()
			if startDate == "" {
				startDate = learningpath.FormatISO(now)
			}
			if endDate == "" {
				endDate = learningpath.FormatISO(now.Add(30 * 24 * time.Hour))
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			staged, err := stageFile(args[0], cfg.Server.UploadsDir)
			if err != nil {
				return err
			}

			extracted, err := a.OCR.ProcessFile(cmd.Context(), staged)
			if err != nil {
				return err
			}

			pathJSON, err := a.Generator.Generate(cmd.Context(), cfg.AI.DefaultUserID, extracted.Text, startDate, endDate)
			if err != nil {
				return err
			}

			out, err := renderPath(pathJSON, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Course start date (default now)")
	cmd.Flags().StringVar(&endDate, "end", "", "Course end date (default start + 30 days)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&quiz, "quiz", true, "Include module quizzes (overrides AI_INCLUDE_QUIZ)")
	cmd.Flags().StringVar(&provider, "provider", "", "Chat provider: chatapi, openai, ollama, gemini or mock")

	return cmd
}

// renderPath formats learning path JSON for the terminal
func renderPath(pathJSON, format string) ([]byte, error) {
	if format == "yaml" {
		// generic decode keeps whatever field types the model chose
		var path any
		if err := json.Unmarshal([]byte(pathJSON), &path); err != nil {
			return nil, fmt.Errorf("failed to decode learning path: %w", err)
		}
		out, err := yaml.Marshal(path)
		if err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return out, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(pathJSON), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format json: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
