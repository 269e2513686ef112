package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/audionode/internal/logging"
	"github.com/smazurov/audionode/internal/updater"
	"github.com/spf13/cobra"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var repository string
	var prerelease bool
	var checkOnly bool
	var devBuild bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the binary from GitHub releases",
		Long:  `Checks GitHub releases for a newer version and replaces the running binary, keeping a backup for rollback.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logger := logging.GetLogger("update")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := updater.NewService(&updater.Options{
				Repository: repository,
				Prerelease: prerelease,
			})
			if err != nil {
				logger.Error("Failed to create update service", "error", err)
				os.Exit(1)
			}
			if !svc.IsEnabled() {
				logger.Error("Update service disabled", "reason", svc.DisabledReason())
				os.Exit(1)
			}

			if devBuild {
				if err := svc.ApplyDevBuild(ctx); err != nil {
					logger.Error("Dev build update failed", "error", err)
					os.Exit(1)
				}
				fmt.Println("Dev build applied")
				return
			}

			info, err := svc.CheckForUpdate(ctx)
			if err != nil {
				logger.Error("Update check failed", "error", err)
				os.Exit(1)
			}

			if !info.UpdateAvailable {
				fmt.Printf("Already up to date (%s)\n", info.CurrentVersion)
				return
			}

			fmt.Printf("Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			if checkOnly {
				return
			}

			if err := svc.ApplyUpdate(ctx); err != nil {
				logger.Error("Update failed", "error", err)
				os.Exit(1)
			}
			fmt.Printf("Updated to %s\n", info.LatestVersion)
		},
	}

	cmd.Flags().StringVar(&repository, "repository", "smazurov/audionode", "GitHub repository slug to update from")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prerelease versions")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for an update, do not apply it")
	cmd.Flags().BoolVar(&devBuild, "dev", false, "Apply the latest rolling dev release build instead of a tagged release")

	return cmd
}
