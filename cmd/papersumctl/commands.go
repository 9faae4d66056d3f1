package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"papersum/internal/api"
	"papersum/internal/app"
	"papersum/internal/config"
	"papersum/internal/logging"
	"papersum/internal/pipeline"
	"papersum/internal/util"
)

func buildApp(ctx context.Context, cfg config.Config) (*app.App, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}

func optionalUser(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func newSummarizeCmd(cfg *config.Config) *cobra.Command {
	var (
		text, file, url, out string
		provider             string
		user                 int64
		asJSON               bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize pasted text, a local .pdf/.txt file or a PDF URL",
		Long: `Summarize one document and print the Markdown result.

Examples:
  papersumctl summarize --file paper.pdf
  papersumctl summarize --url https://arxiv.org/pdf/2401.00001 --user 7
  papersumctl summarize --text "$(cat notes.txt)" --json -o result.json
  papersumctl summarize --file paper.pdf --provider anthropic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if provider != "" {
				if err := a.LLM.Pin(provider); err != nil {
					return err
				}
			}

			req := pipeline.Request{Text: text, URL: url, UserID: optionalUser(user)}
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				req.Upload = &pipeline.Upload{Filename: filepath.Base(file), Reader: f}
			}

			res, err := a.Pipeline.Run(ctx, req)
			if err != nil {
				return errors.New(util.UserMessage(err))
			}
			if res.PersistErr != nil {
				a.Logger.Warn("summary not saved", zap.Error(res.PersistErr))
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", util.UserMessage(res.PersistErr))
			}
			switch {
			case out != "" && asJSON:
				return util.WriteJSONAtomic(out, res)
			case out != "":
				return util.WriteTextAtomic(out, res.Markdown)
			case asJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), res.Markdown)
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "document text")
	cmd.Flags().StringVar(&file, "file", "", "path to a .pdf or .txt file")
	cmd.Flags().StringVar(&url, "url", "", "URL of a PDF")
	cmd.Flags().Int64Var(&user, "user", 0, "owner of the saved summary (0 for guest)")
	cmd.Flags().StringVar(&provider, "provider", "", "use only this configured LLM provider, without failover")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result to this file instead of stdout")
	cmd.MarkFlagsOneRequired("text", "file", "url")
	return cmd
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var (
		user  int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a user's saved summaries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.OpenStore(ctx, *cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(ctx); err != nil {
				return err
			}

			rows, err := store.ListByUser(ctx, optionalUser(user), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No summaries found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tTITLE")
			for _, h := range rows {
				src := "-"
				if h.OriginalURL != nil {
					src = *h.OriginalURL
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", h.ID, h.CreatedAt.Local().Format(time.DateTime), util.DisplaySnippet(src, 40), util.DisplaySnippet(util.MarkdownTitle(h.Summary), 50))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "user id")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the summary history schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.OpenStore(ctx, *cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "history schema is up to date (%s)\n", cfg.StoreDriver)
			return nil
		},
	}
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var (
		user int64
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = time.Duration(cfg.TokenExpireHours) * time.Hour
			}
			tok, exp, err := api.GenerateToken(user, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to the configured expiry)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
