// Command fraudgate runs the fraud-scoring submission endpoint.
package main

import (
	"flag"
	"os"

	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/server"
	"github.com/caasmo/fraudgate/setup"
)

func main() {
	tomlPath := os.Getenv("FRAUDGATE_CONFIG")
	dbFile := flag.String("dbfile", "", "SQLite database file path, overrides the config file")
	ageKeyPath := os.Getenv("FRAUDGATE_AGE_KEY")
	flag.Parse()

	bootstrapLogger := setup.NewTextLogger()

	var secureConfig config.SecureConfig
	if ageKeyPath != "" {
		secureConfig = config.NewSecureConfigAge(os.Getenv("FRAUDGATE_SECRETS_DIR"), ageKeyPath, bootstrapLogger)
	}

	loadConfig := func() (*config.Config, error) {
		return config.Load(tomlPath, *dbFile, secureConfig, bootstrapLogger)
	}

	cfg, err := loadConfig()
	if err != nil {
		bootstrapLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setup.NewLogger(cfg.Server.Environment)

	app, database, blocklistStore, err := setup.SetupApp(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	scheduler := setup.SetupScheduler(cfg, database, blocklistStore, logger)

	srv := server.NewServer(app.ConfigProvider(), app.Router(), logger, loadConfig)
	srv.AddDaemon(scheduler)

	srv.Run()
}
