package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/yockii/ai_report/internal/backend"
	"github.com/yockii/ai_report/internal/generation"
	"github.com/yockii/ai_report/internal/model"
	"github.com/yockii/ai_report/pkg/config"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Stream a report from the backend and export it",
		Long: `Streams the report for --period from the generation backend, printing
the markdown as it arrives. When generation completes the selected formats
are written to --out. Ctrl-C aborts without writing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGenerate(ctx, cmd, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().String("backend", "", "Generation backend URL (default from backend.url)")
	cmd.Flags().Int("timeout", 0, "Hard generation timeout in seconds (default from backend.timeout)")
	return cmd
}

func runGenerate(ctx context.Context, cmd *cobra.Command, out, log io.Writer) error {
	if f := cmd.Flags().Lookup("backend"); f != nil && f.Changed {
		if err := config.BindPFlag("backend.url", f); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
		if err := config.BindPFlag("backend.timeout", f); err != nil {
			return err
		}
	}

	opts, err := readExportOptions(cmd)
	if err != nil {
		return err
	}

	session := generation.NewSession(context.Background(), uuid.New().String(), opts.periodID, opts.language,
		backend.NewClient(config.GetString("backend.url")),
		generation.Options{Timeout: config.GetSeconds("backend.timeout")},
	)
	defer session.Close()

	session.Subscribe(func(e generation.Event) {
		if e.Type == generation.EventChunk {
			_, _ = io.WriteString(out, e.Chunk)
		}
	})

	if _, err = session.Generate(); err != nil {
		return err
	}

	status, err := session.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		session.Close()
		fmt.Fprintln(log, "\naborted")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	if status != model.StatusDone {
		return session.Err()
	}

	markdown, err := session.Finished()
	if err != nil {
		return err
	}
	_, err = writeArtifacts(opts, markdown, log)
	return err
}
