// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package faqcmd implements the "supportdesk faq" commands.
package faqcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/cli"
	"github.com/bureau-foundation/supportdesk/faq"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

// Command returns the "faq" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "faq",
		Summary: "Manage and search the FAQ catalog",
		Subcommands: []*cli.Command{
			seedCommand(),
			searchCommand(),
			listCommand(),
		},
	}
}

type seedParams struct {
	cli.JSONOutput
	Config cli.ConfigParams
	File   string `flag:"file,f" desc:"JSON-with-comments file of FAQ entries (default: faq.seed_file, else the built-in set)"`
}

func seedCommand() *cli.Command {
	var params seedParams
	return &cli.Command{
		Name:    "seed",
		Summary: "Add FAQ entries that are not in the store yet",
		Description: `Write FAQ entries to the store. Entries whose id already exists are
left unchanged, so seeding is safe to repeat.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("seed", &params)
		},
		Examples: []cli.Example{
			{Description: "Seed the built-in FAQs", Command: "supportdesk faq seed"},
			{Description: "Seed from a file", Command: "supportdesk faq seed --file faqs.jsonc"},
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			cfg, err := params.Config.Load()
			if err != nil {
				return err
			}
			path := params.File
			if path == "" {
				path = cfg.FAQ.SeedFile
			}
			entries, source, err := seedEntries(path)
			if err != nil {
				return err
			}

			runtime, err := cli.OpenRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			result, err := faq.Seed(ctx, runtime.Store, entries)
			if err != nil {
				return err
			}
			logger.Info("faq seed complete", "source", source, "added", result.Added, "skipped", result.Skipped)
			if done, err := params.EmitJSON(os.Stdout, result); done {
				return err
			}
			fmt.Printf("Seeded %d of %d FAQs from %s (%d already present).\n",
				result.Added, result.Total, source, result.Skipped)
			return nil
		},
	}
}

// seedEntries loads entries from path, or the built-in set when path
// is empty, and names the source.
func seedEntries(path string) ([]faq.FAQ, string, error) {
	if path == "" {
		return faq.Defaults(), "the built-in set", nil
	}
	entries, err := faq.LoadSeedFile(path)
	if err != nil {
		return nil, "", err
	}
	return entries, path, nil
}

type searchParams struct {
	cli.JSONOutput
	Config cli.ConfigParams
}

func searchCommand() *cli.Command {
	var params searchParams
	return &cli.Command{
		Name:    "search",
		Summary: "Find the FAQs that best match a question",
		Usage:   "supportdesk faq search <question...> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("search", &params)
		},
		Examples: []cli.Example{
			{Command: "supportdesk faq search how do I reset my password"},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("a question is required")
			}
			return withCatalog(ctx, params.Config, logger, func(catalog *faq.Catalog) error {
				return printEntries(os.Stdout, &params.JSONOutput, catalog.Search(ctx, question))
			})
		},
	}
}

type listParams struct {
	cli.JSONOutput
	Config cli.ConfigParams
}

func listCommand() *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "list",
		Summary: "List every FAQ",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			return withCatalog(ctx, params.Config, logger, func(catalog *faq.Catalog) error {
				return printEntries(os.Stdout, &params.JSONOutput, catalog.All(ctx))
			})
		},
	}
}

func withCatalog(ctx context.Context, configParams cli.ConfigParams, logger *slog.Logger, fn func(*faq.Catalog) error) error {
	cfg, err := configParams.Load()
	if err != nil {
		return err
	}
	runtime, err := cli.OpenRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer runtime.Close()
	return fn(faq.NewCatalog(runtime.Store, logger))
}

// printEntries writes entries as JSON or as rendered markdown. An empty
// catalog prints a hint and exits 1.
func printEntries(w io.Writer, output *cli.JSONOutput, entries []faq.FAQ) error {
	if done, err := output.EmitJSON(w, entries); done {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No FAQs found. Run 'supportdesk faq seed' to add the built-in set.")
		return &cli.ExitError{Code: 1}
	}
	width := 80
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if columns, _, err := term.GetSize(int(file.Fd())); err == nil {
			width = columns
		}
	}
	for index, entry := range entries {
		if index > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  [%s]\n", entry.Question, entry.ID)
		fmt.Fprintln(w, tui.RenderMarkdown(entry.Answer, tui.DarkTheme, width))
	}
	return nil
}
