package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultDataFile is the depository file used when nothing else is configured.
const DefaultDataFile = "books_depo.json"

// Config holds the settings of one run.
type Config struct {
	DataFile string
	LogDir   string
	Debug    bool
}

// Load reads an optional .env file and then the LIBRARY_* environment.
// Variables already set in the environment win over the .env file.
func Load() (Config, error) {
	// A missing .env is fine: variables may come straight from the shell.
	_ = godotenv.Load()

	debug := false
	if raw := strings.TrimSpace(os.Getenv("LIBRARY_DEBUG")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("LIBRARY_DEBUG: %w", err)
		}
		debug = v
	}

	return Config{
		DataFile: withDefault(os.Getenv("LIBRARY_DATA_FILE"), DefaultDataFile),
		LogDir:   strings.TrimSpace(os.Getenv("LIBRARY_LOG_DIR")),
		Debug:    debug,
	}, nil
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
