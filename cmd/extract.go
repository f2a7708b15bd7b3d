package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract <file>",
		Short:   "Extract text from a syllabus with Document AI",
		Example: `  pathfinder extract syllabus.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer log.Sync()
			// keep gin's debug banner out of the command output
			gin.SetMode(gin.ReleaseMode)

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

			fmt.Fprintln(cmd.OutOrStdout(), extracted.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "\nSaved %d page(s) to %s\n", extracted.Pages, extracted.SavedPath)
			return nil
		},
	}

	return cmd
}
