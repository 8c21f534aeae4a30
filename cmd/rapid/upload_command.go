package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"rapidphoto/internal/config"
	"rapidphoto/internal/daemon"
	"rapidphoto/internal/logging"
	"rapidphoto/internal/notifications"
	"rapidphoto/internal/photocache"
	"rapidphoto/internal/queue"
	"rapidphoto/internal/scheduler"
	"rapidphoto/internal/transfer"
)

const watchInterval = 300 * time.Millisecond

func newUploadCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files and wait for the batch to settle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			files, err := collectFiles(args, cfg.Uploads.MaxBatchFiles)
			if err != nil {
				return err
			}
			return runUpload(cmd, cfg, files)
		},
	}
	return cmd
}

// collectFiles reads each path into memory and prepares the batch. The batch
// cap is enforced here so oversized invocations fail before any I/O.
func collectFiles(args []string, limit int) ([]scheduler.FileInput, error) {
	if limit > 0 && len(args) > limit {
		return nil, fmt.Errorf("%d files requested; at most %d can be uploaded per batch", len(args), limit)
	}

	files := make([]scheduler.FileInput, 0, len(args))
	for _, arg := range args {
		path, err := config.ExpandPath(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", arg, err)
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", arg, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", absPath, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%q is a directory", absPath)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", absPath, err)
		}
		files = append(files, scheduler.FileInput{
			FileName:   info.Name(),
			MimeType:   detectMimeType(info.Name()),
			SourcePath: absPath,
			Data:       data,
		})
	}
	return files, nil
}

func detectMimeType(fileName string) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func runUpload(cmd *cobra.Command, cfg *config.Config, files []scheduler.FileInput) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}

	client := transfer.NewHTTPClient(cfg)
	cache := photocache.NewCache(cfg.PhotoCachePath(), logger)
	notifier := notifications.NewService(cfg)
	sched := scheduler.New(cfg, store, client, cache, notifier, logger)

	d, err := daemon.New(cfg, store, sched, notifier, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Start(runCtx); err != nil {
		return err
	}

	items, err := sched.AddFiles(runCtx, files)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploading %d files\n", len(items))

	if err := watchBatch(runCtx, cmd, sched); err != nil {
		return err
	}
	return printBatchSummary(cmd, sched, items)
}

// watchBatch blocks until every item in the queue reaches a terminal state
// or the context is canceled.
func watchBatch(ctx context.Context, cmd *cobra.Command, sched *scheduler.Manager) error {
	out := cmd.OutOrStdout()
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	var lastLine string
	for {
		select {
		case <-ctx.Done():
			if interactive && lastLine != "" {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, "Interrupted; unfinished uploads were dropped")
			return ctx.Err()
		case <-ticker.C:
		}

		stats, err := sched.Stats(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return err
		}

		// Paused items count as unsettled; an external resume returns them
		// to queued, and the wake below lets the scheduler pick them up.
		remaining := stats.Queued + stats.Uploading + stats.Confirming + stats.Paused
		if stats.Queued > 0 {
			sched.Wake()
		}
		line := fmt.Sprintf("active %d  queued %d  paused %d  complete %d  failed %d",
			stats.Uploading+stats.Confirming, stats.Queued, stats.Paused, stats.Complete, stats.Failed)
		if interactive {
			fmt.Fprintf(out, "\r%-60s", line)
			lastLine = line
		} else if line != lastLine {
			fmt.Fprintln(out, line)
			lastLine = line
		}

		if remaining == 0 {
			if interactive {
				fmt.Fprintln(out)
			}
			return nil
		}
	}
}

func printBatchSummary(cmd *cobra.Command, sched *scheduler.Manager, batch []*queue.Item) error {
	all, err := sched.List(cmd.Context())
	if err != nil {
		return err
	}
	batchIDs := make(map[string]struct{}, len(batch))
	for _, item := range batch {
		batchIDs[item.ID] = struct{}{}
	}
	items := make([]*queue.Item, 0, len(batch))
	for _, item := range all {
		if _, ok := batchIDs[item.ID]; ok {
			items = append(items, item)
		}
	}

	rows := make([][]string, 0, len(items))
	failed := 0
	for _, item := range items {
		detail := item.PhotoID
		if item.Status == queue.StatusFailed {
			failed++
			detail = item.ErrorMessage
		}
		rows = append(rows, []string{
			item.FileName,
			humanize.Bytes(uint64(item.FileSize)),
			string(item.Status),
			fmt.Sprintf("%d", item.RetryCount),
			detail,
		})
	}
	table := renderTable(
		[]string{"File", "Size", "Status", "Attempts", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	)
	fmt.Fprintln(cmd.OutOrStdout(), table)

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(items))
	}
	return nil
}
