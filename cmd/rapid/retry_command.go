package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rapidphoto/internal/queue"
	"rapidphoto/internal/scheduler"
)

// newRetryCommand re-uploads failed items. File content is never persisted,
// so each failed item is re-read from its recorded source path and submitted
// as a fresh batch.
func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Re-upload failed items from their source files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			failed, err := store.List(cmd.Context(), queue.StatusFailed)
			if err != nil {
				store.Close()
				return err
			}
			if len(failed) == 0 {
				store.Close()
				fmt.Fprintln(cmd.OutOrStdout(), "No failed items to retry")
				return nil
			}

			out := cmd.OutOrStdout()
			files := make([]scheduler.FileInput, 0, len(failed))
			for _, item := range failed {
				if item.SourcePath == "" {
					fmt.Fprintf(out, "Skipping %s: no source path recorded\n", item.FileName)
					continue
				}
				data, err := os.ReadFile(item.SourcePath)
				if err != nil {
					fmt.Fprintf(out, "Skipping %s: %v\n", item.FileName, err)
					continue
				}
				if _, err := store.Remove(cmd.Context(), item.ID); err != nil {
					store.Close()
					return err
				}
				files = append(files, scheduler.FileInput{
					FileName:   item.FileName,
					MimeType:   item.MimeType,
					SourcePath: item.SourcePath,
					Data:       data,
				})
			}
			store.Close()

			if len(files) == 0 {
				fmt.Fprintln(out, "No failed items could be re-read")
				return nil
			}
			return runUpload(cmd, cfg, files)
		},
	}
}
