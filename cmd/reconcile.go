package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/pulse"
	"github.com/smazurov/audionode/internal/reconciler"
	"github.com/spf13/cobra"
)

// CreateReconcileCmd creates the reconcile command. This is the entry point
// udev rules and systemd units invoke on card hotplug; it runs exactly one
// reconciliation pass and exits non-zero on fatal failure.
func CreateReconcileCmd() *cobra.Command {
	var configFile string
	var retries int
	var retryInterval time.Duration
	var settleDelay time.Duration
	var combinedName string
	var logJSON bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one sink reconciliation pass",
		Long: `Enumerates output sinks on the sound server, tears down any previous combined sink, ` +
			`and rebuilds it as the default output when two or more real sinks are present. ` +
			`Exits non-zero if the pass fails.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(oneShotLoggingConfig(configFile, logJSON, logFile))
			logger := logging.GetLogger("reconcile")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			policy := reconciler.DefaultRetryPolicy()
			policy.MaxAttempts = retries
			policy.RetryInterval = retryInterval
			policy.SettleDelay = settleDelay

			rec := reconciler.New(pulse.NewClient(),
				reconciler.WithPolicy(policy),
				reconciler.WithCombinedName(combinedName))

			res, err := rec.Run(ctx)
			if err != nil {
				logger.Error("Reconciliation failed", "error", err)
				os.Exit(1)
			}

			switch {
			case res.Combined:
				fmt.Printf("Combined sink %s created from %s\n", combinedName, strings.Join(res.Members, ", "))
			case len(res.Members) == 1:
				fmt.Printf("Single output %s, no combined sink needed\n", res.Members[0])
			case res.Stale:
				fmt.Println("Pass superseded by a newer topology change, nothing done")
			default:
				fmt.Println("No real outputs found")
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().IntVar(&retries, "retries", reconciler.DefaultRetryPolicy().MaxAttempts, "Extra enumeration attempts when no sinks are found")
	cmd.Flags().DurationVar(&retryInterval, "retry-interval", reconciler.DefaultRetryPolicy().RetryInterval, "Delay between enumeration attempts")
	cmd.Flags().DurationVar(&settleDelay, "settle-delay", reconciler.DefaultRetryPolicy().SettleDelay, "Boot settle delay applied when only the fallback sink is present")
	cmd.Flags().StringVar(&combinedName, "combined-name", reconciler.CombinedSinkName, "Name for the combined sink")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append diagnostic log to this file")

	return cmd
}
