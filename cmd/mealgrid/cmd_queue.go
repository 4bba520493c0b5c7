package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mealgrid/mealgrid/app/jobs"
	"github.com/mealgrid/mealgrid/app/repositories"
	"github.com/mealgrid/mealgrid/config"
	"github.com/mealgrid/mealgrid/database"
	"github.com/mealgrid/mealgrid/pkg/cache"
	"github.com/mealgrid/mealgrid/pkg/queue"
)

var queueWorkersFlag int

// mealgrid queue:work — run queue workers outside the HTTP server, so
// reconciliation jobs drain even while the API is down.
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := bootDB(cmd)
		if err != nil {
			return err
		}
		defer database.Disconnect(cmd.Context(), db) //nolint:errcheck

		queue.UseDB(db.Collection("failed_jobs"))
		jobs.Configure(repositories.NewOrderRepository(db))

		if config.QueueDriver() == "redis" {
			c, err := cache.Connect(config.RedisAddr(), config.RedisPassword())
			if err != nil {
				return fmt.Errorf("queue:work: %w", err)
			}
			queue.SetDriver(queue.NewRedisDriver(c.Client()))
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 2
		}

		fmt.Printf("Queue workers started (%d). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers)

		<-ctx.Done()

		if failed := queue.FailedJobs(); len(failed) > 0 {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FAILED AT\tATTEMPTS\tERROR")
			for _, f := range failed {
				fmt.Fprintf(w, "%s\t%d\t%v\n", f.FailedAt.Format("15:04:05"), f.Attempts, f.Err)
			}
			w.Flush() //nolint:errcheck
		}

		fmt.Println("Queue workers stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 2, "Number of concurrent workers")
}
