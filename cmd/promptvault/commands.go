// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"promptvault/internal/client"
	"promptvault/internal/database"
	"promptvault/internal/export"
	"promptvault/internal/models"
	"promptvault/internal/store"
)

func migrateCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			if seed {
				if err := database.Seed(cmd.Context(), db); err != nil {
					return err
				}
			}
			fmt.Println("Database is up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert example prompts into an empty database")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export unexported prompts to the spreadsheet webhook",
		Long: `Runs one export directly against the database, the same way the
POST /api/prompts/export-to-sheets endpoint does.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := newWorkflow(store.NewPromptStore(db)).Run(ctx)
			if errors.Is(err, export.ErrNotConfigured) {
				return fmt.Errorf("%w\n%s", err, export.SetupInstructions)
			}
			if err != nil {
				return err
			}

			fmt.Println(res.Message)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var (
		server   string
		query    string
		category string
		status   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = "http://localhost:" + cfg.Port
			}

			s := client.NewSession(client.New(server, nil))
			if err := s.Refresh(cmd.Context()); err != nil {
				return err
			}

			prompts := s.Filtered(query, category, models.Status(status))
			printPrompts(prompts)
			fmt.Printf("\n%d of %d prompts\n", len(prompts), s.Cache.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "API base URL (default http://localhost:<APP_PORT>)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "text to find in title, prompt text or tags")
	cmd.Flags().StringVar(&category, "category", "", "exact category")
	cmd.Flags().StringVar(&status, "status", "", "exact status (draft, active, archived, testing)")
	return cmd
}

func printPrompts(prompts []models.Prompt) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRIORITY\tSTATUS\tEXPORTED")
	for _, p := range prompts {
		exported := "no"
		if p.ExportedToSheets {
			exported = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 40), p.Category, p.Priority, p.Status, exported)
	}
	w.Flush()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
