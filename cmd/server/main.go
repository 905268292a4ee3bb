package main

import (
	"flag"
	"log"

	"github.com/caarlos0/env/v11"

	"setmatch/pkg/setmatch"
)

// ServerConfig is populated from the environment first, then overridden by
// flags.
type ServerConfig struct {
	Port           int      `env:"SETMATCH_PORT" envDefault:"8080"`
	DBPath         string   `env:"SETMATCH_DB_PATH" envDefault:"setmatch.sqlite3"`
	SampleLimit    int      `env:"SETMATCH_SAMPLE_LIMIT" envDefault:"200"`
	AllowedOrigins []string `env:"SETMATCH_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

func main() {
	var config ServerConfig
	if err := env.Parse(&config); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	flag.IntVar(&config.Port, "port", config.Port, "HTTP server port")
	flag.StringVar(&config.DBPath, "db", config.DBPath, "Path to SQLite database")
	flag.IntVar(&config.SampleLimit, "sample", config.SampleLimit, "Catalog rows scanned by the similarity stage")
	flag.Parse()

	service, err := setmatch.NewService(
		setmatch.WithDBPath(config.DBPath),
		setmatch.WithSampleLimit(config.SampleLimit),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
