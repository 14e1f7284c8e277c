package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/isopage"
)

func renderCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render a demo page to stdout",
		Long: `Render a demo page the way a plain GET request would and print the
document to stdout.

Examples:
  isopage render /
  isopage render /articles/2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			app, err := isopage.New(cfg, isopage.WithLogger(newLogger(cfg.Debug)))
			if err != nil {
				return err
			}
			defer app.Close()
			registerDemo(app)

			status, markup, err := app.Render(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), markup)
			if status >= 400 {
				return fmt.Errorf("%s rendered with status %d", args[0], status)
			}
			return nil
		},
	}
	return cmd
}
