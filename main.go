package main

import (
	"github.com/wfunc/basta/config"
	"github.com/wfunc/basta/logger"
	"github.com/wfunc/basta/monitor"
	"github.com/wfunc/basta/persistence"
	"github.com/wfunc/basta/server"
	"github.com/wfunc/basta/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.Init(cfg.Server.Development)
	defer logger.Sync()

	// Initialize Database (optional; games are playable without one)
	var db persistence.Database
	if cfg.Database.Enabled {
		db, err = persistence.NewGormPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Database connection successful.")
		defer db.Close()
	} else {
		logger.Log.Info("Database disabled; game records will not be saved.")
	}

	recordService := services.NewRecordService(db)

	// Metrics endpoint
	mon := monitor.NewMonitor("basta")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, recordService, mon)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
