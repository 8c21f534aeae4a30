package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rapidphoto/internal/api"
	"rapidphoto/internal/logging"
	"rapidphoto/internal/photocache"
)

func newPhotosCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "photos",
		Short: "List photo records from completed uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cache := photocache.NewCache(cfg.PhotoCachePath(), logging.NewNop())
			photos := api.FromPhotos(cache.List())

			if jsonOutput {
				return writeJSON(cmd, map[string]any{"photos": photos})
			}
			if len(photos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached photos")
				return nil
			}
			rows := make([][]string, 0, len(photos))
			for _, photo := range photos {
				dimensions := ""
				if photo.Width > 0 && photo.Height > 0 {
					dimensions = fmt.Sprintf("%dx%d", photo.Width, photo.Height)
				}
				rows = append(rows, []string{
					photo.ID,
					photo.FileName,
					photo.Status,
					dimensions,
					photo.CreatedAt,
				})
			}
			table := renderTable(
				[]string{"ID", "File", "Status", "Dimensions", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}
