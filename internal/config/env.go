package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvLocalBuild switches the generator to the locally installed binary.
const EnvLocalBuild = "MANTREE_LOCAL_BUILD"

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the first readable .env file. Existing process
// environment variables are never overridden.
func loadEnvFiles() {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "file", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", p)
		return
	}
}

func applyEnvOverrides(cfg *Config) {
	// Only the literal "True" enables it, as with the Sphinx switch it replaces.
	if v := strings.TrimSpace(os.Getenv(EnvLocalBuild)); v != "" {
		cfg.Generator.LocalBuild = v == "True"
	}
}
