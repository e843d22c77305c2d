// Development seeder. Executes the SQL files under seed/ in lexical order
// against the configured database.
package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"github.com/mailramp/mailramp-backend/internal/config"
	"github.com/mailramp/mailramp-backend/internal/db"
	"github.com/mailramp/mailramp-backend/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).WithComponent("seeder")

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	files, err := filepath.Glob("seed/*.sql")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list seed files")
	}
	sort.Strings(files)

	for _, file := range files {
		contents, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}
		if _, err := database.Exec(string(contents)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to apply seed file")
		}
		log.Info().Str("file", file).Msg("seed applied")
	}

	log.Info().Int("files", len(files)).Msg("seeding complete")
}
