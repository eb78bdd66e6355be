// cmd/migrate/main.go
package main

import (
	"budget-tracker/internal/config"
	"budget-tracker/internal/logging"
	"budget-tracker/internal/storage/postgres"
	"context"
	"flag"
	"os"
)

// go run ./cmd/migrate [-config file.yaml] [up|down|status|redo|reset|version] [args]
func main() {
	// сам путь читает config.MustLoad, здесь флаг только объявлен
	flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad()
	log := logging.Setup(cfg.Env)

	command, args := "up", []string(nil)
	if flag.NArg() > 0 {
		command, args = flag.Arg(0), flag.Args()[1:]
	}

	log.Info("running migrations", "command", command)
	if err := postgres.Migrate(context.Background(), cfg.DBConn, command, args...); err != nil {
		log.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
	log.Info("✅ migrations done", "command", command)
}
