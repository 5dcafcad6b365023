package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"immitrack/internal/app"
	"immitrack/internal/board"
	"immitrack/internal/calendar"
	"immitrack/internal/config"
	"immitrack/internal/models"
	"immitrack/internal/pdf"
	"immitrack/internal/repositories"
	"immitrack/internal/seed"
	"immitrack/internal/services"
)

func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tasks table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.DB == nil {
				fmt.Println("memory driver: nothing to migrate")
				return nil
			}
			if err := repositories.Migrate(cmd.Context(), a.DB); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the initial checklist (existing ids are left alone)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := seed.Load(file)
			if err != nil {
				return err
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.DB != nil {
				if err := repositories.Migrate(cmd.Context(), a.DB); err != nil {
					return err
				}
			}
			n, err := a.Seeder.BulkInsert(cmd.Context(), tasks)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Printf("inserted %d of %d tasks\n", n, len(tasks))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (default: built-in checklist)")
	return cmd
}

func boardCmd() *cobra.Command {
	var (
		query  string
		status string
		view   string
		order  string
		width  int
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the dashboard in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.FilterStatus(status)
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			if order != "" && !models.SortOrder(order).Valid() {
				return fmt.Errorf("unknown sort %q", order)
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.State.Load(cmd.Context()); err != nil {
				return err
			}

			r := board.Renderer{Now: time.Now(), Width: width, FundsTaskID: a.State.FundsTaskID()}
			fmt.Println(r.Stats(a.State.Stats()))
			switch view {
			case "kanban":
				fmt.Println(r.Kanban(a.State.Board(query, st)))
			case "list":
				fmt.Println(r.List(a.State.Filtered(query, st, models.SortOrder(order))))
			default:
				return fmt.Errorf("unknown view %q (list or kanban)", view)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search in title and description")
	cmd.Flags().StringVarP(&status, "status", "s", "all", "all, critical, incomplete or complete")
	cmd.Flags().StringVar(&view, "view", "list", "list or kanban")
	cmd.Flags().StringVar(&order, "sort", "", "sort list by deadline: asc or desc")
	cmd.Flags().IntVar(&width, "width", 120, "terminal width for the kanban view")
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		name   string
		query  string
		status string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the PDF checklist report under files.root_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.FilterStatus(status)
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.State.Load(cmd.Context()); err != nil {
				return err
			}
			path, err := saveReport(a, name, query, st, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "o", "", "file name (default dossier_<date>.pdf)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search in title and description")
	cmd.Flags().StringVarP(&status, "status", "s", "all", "all, critical, incomplete or complete")
	return cmd
}

func saveReport(a *app.App, name, query string, status models.FilterStatus, now time.Time) (string, error) {
	path, err := a.PDF.SaveSummary(pdf.SummaryData{
		GeneratedAt: now,
		Stats:       a.State.Stats(),
		Board:       a.State.Board(query, status),
		FundsTaskID: a.State.FundsTaskID(),
		Filename:    name,
	})
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return path, nil
}

func digestCmd() *cobra.Command {
	var (
		days   int
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send late and upcoming deadlines through the configured notifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.State.Load(cmd.Context()); err != nil {
				return err
			}
			if days <= 0 {
				days = a.Config.Digest.HorizonDays
			}
			if dryRun || a.Notifier == nil {
				if !dryRun {
					fmt.Println("no notifier configured, printing instead")
				}
				d := services.BuildDigest(a.State.Tasks(), time.Now(), days, a.State.FundsTaskID())
				r := board.Renderer{Now: time.Now(), FundsTaskID: a.State.FundsTaskID()}
				fmt.Printf("En retard (%d)\n%s\n\nDans les %d jours (%d)\n%s\n",
					len(d.Late), r.List(digestTasks(d.Late)), days, len(d.Upcoming), r.List(digestTasks(d.Upcoming)))
				return nil
			}
			_, err = services.SendDigest(cmd.Context(), a.State, a.Notifier, days, time.Now())
			return err
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "horizon in days (default digest.horizon_days)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print instead of sending")
	return cmd
}

func digestTasks(items []services.DigestItem) []models.Task {
	out := make([]models.Task, 0, len(items))
	for _, it := range items {
		t := it.Task
		t.Expanded = false
		out = append(out, t)
	}
	return out
}

func calsyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calsync",
		Short: "Mirror task deadlines into Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Config.Calendar.CredentialsFile == "" {
				return errors.New("calendar.credentials_file is not set")
			}
			if err := a.State.Load(cmd.Context()); err != nil {
				return err
			}
			syncer, err := calendar.NewSyncer(cmd.Context(), a.Config.Calendar.CredentialsFile, a.Config.Calendar.CalendarID, a.Config.Calendar.TimeZone)
			if err != nil {
				return err
			}
			res, err := syncer.Sync(cmd.Context(), a.State.Tasks())
			fmt.Printf("created %d, updated %d, unchanged %d, skipped %d\n", res.Created, res.Updated, res.Unchanged, res.Skipped)
			return err
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password on stdin and print its bcrypt hash for auth.accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			hash, err := services.HashPassword(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
