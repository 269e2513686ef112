package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/mixer"
	"github.com/smazurov/audionode/internal/volume"
	"github.com/spf13/cobra"
)

// CreateUSBVolumeCmd creates the usb-volume command.
func CreateUSBVolumeCmd() *cobra.Command {
	var configFile string
	var percent int
	var logJSON bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "usb-volume",
		Short: "Set USB sound card volumes",
		Long:  `Finds USB-attached sound cards and sets every mixer control to the given level, unmuted.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(oneShotLoggingConfig(configFile, logJSON, logFile))
			logger := logging.GetLogger("usb-volume")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			adjuster := volume.New(mixer.NewClient(), volume.WithPercent(percent))
			if err := adjuster.Run(ctx); err != nil {
				logger.Error("Volume adjustment failed", "error", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().IntVarP(&percent, "percent", "v", volume.DefaultPercent, "Volume level to set (0-100)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append diagnostic log to this file")

	return cmd
}
