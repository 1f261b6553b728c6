package env

import (
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first readable file wins.
var envFiles = []string{
	".env",          // Current directory
	"../../.env",    // From cmd/trackstore to project root
	"../../../.env", // Fallback for deeper nesting
}

// SetupEnvFile loads the first .env file found into the process environment.
// Variables already set in the environment are not overridden. It returns the
// path that was loaded, or "" when no file exists (Docker, CI).
func SetupEnvFile() string {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err == nil {
			return envFile
		}
	}
	return ""
}
