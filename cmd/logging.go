package cmd

import (
	"github.com/smazurov/audionode/internal/config"
	"github.com/smazurov/audionode/internal/logging"
)

// oneShotLoggingConfig builds the logging setup for one-shot commands.
// The shared config file supplies the diagnostic log file and levels so a
// udev/systemd-triggered pass appends to the same log as the daemon; flags
// override the file settings.
func oneShotLoggingConfig(configFile string, logJSON bool, logFile string) logging.Config {
	cfg := config.LoadLoggingConfig(configFile)
	if logJSON {
		cfg.Format = "json"
	}
	if logFile != "" {
		cfg.File = logFile
	}
	return cfg
}
