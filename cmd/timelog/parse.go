package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/mapping"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/parser"
)

// offlineUser owns every category and mapping loaded from files.
var offlineUser = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type parseOptions struct {
	date           string
	categoriesPath string
	mappingsPath   string
	now            func() time.Time
}

func parseCmd() *cobra.Command {
	opts := parseOptions{now: time.Now}
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a free-text time log and print entries with category suggestions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runParse(cmd.Context(), in, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.date, "date", "", "default date for lines without one (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.categoriesPath, "categories", "", "JSON file with the category tree")
	cmd.Flags().StringVar(&opts.mappingsPath, "mappings", "", "JSON file with learned mappings")
	return cmd
}

func runParse(ctx context.Context, in io.Reader, out, errOut io.Writer, opts parseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	date := strings.TrimSpace(opts.date)
	if date != "" && !parser.ValidDate(date) {
		return fmt.Errorf("--date must be YYYY-MM-DD, got %q", opts.date)
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	var categories []*tracking.Category
	if err := readJSON(opts.categoriesPath, &categories); err != nil {
		return err
	}
	var mappings []*tracking.CategoryMapping
	if err := readJSON(opts.mappingsPath, &mappings); err != nil {
		return err
	}
	for _, c := range categories {
		if c != nil {
			c.UserID = offlineUser
			c.IsActive = true
		}
	}
	for _, m := range mappings {
		if m != nil {
			m.UserID = offlineUser
		}
	}

	valid, dropped := tracking.ValidTree(categories)
	for _, err := range dropped {
		fmt.Fprintf(errOut, "skipping category: %v\n", err)
	}

	entries := parser.ParseTextLog(string(text), date, opts.now)
	resolver := mapping.NewResolver(mapping.NewMemoryStoreFrom(mappings))
	if err := resolver.ResolveAll(ctx, offlineUser, entries, mapping.NewTree(valid)); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"entries": entries, "total": len(entries)})
}

func readJSON(path string, dst any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
