package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/dinesim/internal/arrivals"
	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/chrisdamba/dinesim/internal/output"
	"github.com/chrisdamba/dinesim/internal/repositories/postgres"
	"github.com/chrisdamba/dinesim/internal/simulator"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one restaurant session from an arrivals file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSession(ctx, cfg)
	},
}

func init() {
	f := runCmd.Flags()
	f.Int("max-tables", 10, "Number of tables")
	f.Int("num-waiters", 5, "Number of waiters")
	f.Int("num-cooks", 2, "Number of cooks")
	f.Int64("close-at", 180, "Closing time in simulated minutes")
	f.Duration("minute-scale", 100*time.Millisecond, "Wall-clock duration of one simulated minute")
	f.Bool("progress", false, "Show a progress bar of the simulated clock")
	f.String("output-format", "console", "Event output format (console, json, csv, parquet)")
	f.String("output-path", "", "Base directory for file outputs")
	f.Bool("kafka-enabled", false, "Publish events to Kafka")
	f.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	bindFlags(f)
	rootCmd.AddCommand(runCmd)
}

func runSession(ctx context.Context, c *models.Config) error {
	src, err := arrivals.Open(c.ArrivalsFile)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := output.New(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := dest.Close(); err != nil {
			log.WithError(err).Warn("closing event output")
		}
	}()

	session, err := simulator.NewSession(c, simulator.WithDestination(dest))
	if err != nil {
		return err
	}

	done := make(chan struct{})
	if c.Progress {
		go showProgress(session, c.CloseAt, done)
	}
	report, runErr := session.Run(ctx, src)
	close(done)

	logReport(report)
	if c.Database.URL != "" {
		if err := persistReport(context.Background(), c.Database.URL, report); err != nil {
			log.WithError(err).Error("Failed to store session report")
			if runErr == nil {
				runErr = err
			}
		}
	}
	return runErr
}

func showProgress(session *simulator.Session, closeAt int64, done <-chan struct{}) {
	bar := progressbar.NewOptions64(closeAt,
		progressbar.OptionSetDescription("simulated minutes"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			_ = bar.Finish()
			return
		case <-ticker.C:
			now, err := session.Now()
			if err != nil {
				return
			}
			_ = bar.Set64(min(now, closeAt))
		}
	}
}

func logReport(r *models.Report) {
	if r == nil {
		return
	}
	log.WithFields(log.Fields{
		"session":           r.SessionID,
		"clock":             r.Clock,
		"tables":            r.Tables,
		"departed":          r.Departed,
		"rejected_closed":   r.RejectedClosed,
		"rejected_no_table": r.RejectedNoTable,
		"abandoned":         r.Abandoned,
		"lost_dishes":       len(r.LostDishes),
		"dropped_events":    r.DroppedEvents,
		"closing_cook":      r.ClosingCook,
	}).Info("Final state")
	for _, w := range r.Waiters {
		log.Printf("Waiter %s: front=%d rear=%d foodReady=%d pending=%d", w.Name, w.Front, w.Rear, w.FoodReady, w.PendingOrders)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		if doc, err := json.MarshalIndent(r, "", "  "); err == nil {
			log.Debug(string(doc))
		}
	}
}

func persistReport(ctx context.Context, url string, r *models.Report) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	pool, err := postgres.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewSessionRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := repo.Create(ctx, r); err != nil {
		return err
	}
	log.Printf("Stored report of session %s", r.SessionID)
	return nil
}
