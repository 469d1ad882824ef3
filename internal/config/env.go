package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvConfig = "KEYSTONE_CONFIG"
	EnvData   = "KEYSTONE_DATA"
)

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// DataPathFromEnv returns the blob path set in the environment, if any.
func DataPathFromEnv() (string, bool) {
	v := os.Getenv(EnvData)
	return v, v != ""
}
