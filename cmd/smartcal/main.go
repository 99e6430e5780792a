package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"smartcal/internal/capture"
	"smartcal/internal/config"
	appLog "smartcal/internal/log"
	"smartcal/internal/metrics"
	"smartcal/internal/store"
	"smartcal/internal/view"
	"smartcal/internal/web"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
)

func main() {
	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env loaded", "reason", err.Error())
	}

	defaultConfig := os.Getenv("SMARTCAL_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "smartcal.yaml"
	}

	rootCmd := &cobra.Command{
		Use:           "smartcal",
		Short:         "Calendar event store with month, week, day and agenda views",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR); overrides config")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(agendaCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(captureCmd())

	if err := rootCmd.Execute(); err != nil {
		appLog.Error("smartcal failed", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies env and flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// newStore builds the event store from cfg and loads the seed events.
// Invalid seeds are logged and skipped.
func newStore(cfg *config.Config, obs store.Observer) *store.Store {
	loc := cfg.Location()
	st := store.New(store.Options{
		Categories:      cfg.Categories,
		DefaultCategory: cfg.DefaultCategory,
		LeaveColor:      cfg.LeaveColor,
		Location:        loc,
		Observer:        obs,
	})
	for _, seed := range cfg.SeedEvents {
		d, err := seed.Draft(loc)
		if err != nil {
			appLog.Warn("skipping seed event", "title", seed.Title, "error", err)
			continue
		}
		if _, err := st.CreateEvent(d); err != nil {
			appLog.Warn("skipping seed event", "title", seed.Title, "error", err)
		}
	}
	appLog.Info("store ready", "events", st.Len(), "categories", len(cfg.Categories))
	return st
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API, the calendar page and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			appLog.Info("smartcal starting", "version", version)
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"default_category", cfg.DefaultCategory,
				"categories", len(cfg.Categories),
				"seed_events", len(cfg.SeedEvents),
				"stats_refresh", cfg.StatsRefresh,
				"basic_auth", cfg.BasicAuth != nil,
			)

			collector := metrics.Default()
			st := newStore(cfg, collector)

			cr, err := collector.Schedule(cfg.StatsRefresh, st, func() time.Time { return time.Now().In(cfg.Location()) })
			if err != nil {
				return fmt.Errorf("schedule stats refresh: %w", err)
			}
			defer cr.Stop()

			ctx, cancel := signalContext()
			defer cancel()

			srv := web.NewServer(cfg, st, web.Options{Registerer: prometheus.DefaultRegisterer})
			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			appLog.Info("smartcal exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func agendaCmd() *cobra.Command {
	var (
		rangeName string
		category  string
		query     string
		date      string
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the agenda of the configured events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			loc := cfg.Location()
			now := time.Now().In(loc)
			if date != "" {
				if now, err = time.ParseInLocation("2006-01-02", date, loc); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}

			st := newStore(cfg, nil)
			st.SetSelectedCategory(category)
			st.SetSearchQuery(query)

			printAgenda(cmd.OutOrStdout(), view.BuildAgenda(st, view.ParseAgendaRange(rangeName), now))
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeName, "range", "week", "agenda range: week, month or all")
	cmd.Flags().StringVar(&category, "category", "all", "category id to show")
	cmd.Flags().StringVar(&query, "q", "", "search text (title or description)")
	cmd.Flags().StringVar(&date, "date", "", "anchor date YYYY-MM-DD (default today)")
	return cmd
}

func printAgenda(w io.Writer, a view.Agenda) {
	fmt.Fprintf(w, "%d events, %d leave\n", a.Regular, a.Leave)
	if a.Empty != "" {
		fmt.Fprintf(w, "\n%s\n", a.Empty)
		return
	}
	for _, g := range a.Groups {
		fmt.Fprintf(w, "\n%s\n", g.Label)
		for _, it := range g.Items {
			if it.Event.IsLeave() {
				fmt.Fprintf(w, "  %-21s  %s (leave)\n", "all day", it.Event.Title)
				continue
			}
			fmt.Fprintf(w, "  %-21s  %s [%s] %s\n", it.Time, it.Event.Title, it.Event.Category, it.Duration)
		}
	}
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the configured categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cfg.Categories {
				marker := " "
				if c.ID == cfg.DefaultCategory {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-12s %-16s %s\n", marker, c.ID, c.Name, c.Color)
			}
			fmt.Fprintf(out, "  %-12s %-16s %s\n", "(leave)", "Leave", cfg.LeaveColor)
			return nil
		},
	}
}

func captureCmd() *cobra.Command {
	var (
		viewName string
		date     string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot the rendered calendar page to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st := newStore(cfg, nil)

			// The capture server only listens on loopback for the lifetime of
			// this command, so it runs without basic auth.
			local := *cfg
			local.BasicAuth = nil

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			srv := web.NewServer(&local, st, web.Options{Metrics: http.NotFoundHandler()})
			served := make(chan error, 1)
			go func() { served <- srv.Serve(ctx, ln) }()

			target, err := capture.CalendarURL("http://"+ln.Addr().String(), viewName, date)
			if err != nil {
				cancel()
				return errors.Join(err, <-served)
			}
			capErr := capture.CaptureCalendarPNG(ctx, capture.CaptureOptions{
				URL:        target,
				OutputPath: out,
				Width:      cfg.Capture.Width,
				Height:     cfg.Capture.Height,
				Timeout:    cfg.Capture.Timeout(),
			})
			cancel()
			if err := errors.Join(capErr, <-served); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&viewName, "view", "month", "view to capture: month, week, day or agenda")
	cmd.Flags().StringVar(&date, "date", "", "anchor date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&out, "out", "calendar.png", "output PNG path")
	return cmd
}
