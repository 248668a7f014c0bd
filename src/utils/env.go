package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const DEV_ENV_FILENAME = ".env.development"
const PROD_ENV_FILENAME = ".env.production"

// InitEnvironmentVariables loads .env.<goEnv> from dir. A missing file is
// only an error outside production, where variables come from the host.
func InitEnvironmentVariables(dir, goEnv string) error {
	envFile := filepath.Join(dir, DEV_ENV_FILENAME)
	if goEnv == "production" {
		envFile = filepath.Join(dir, PROD_ENV_FILENAME)
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		if goEnv == "production" {
			log.Infof("no %s file, using host environment", envFile)
			return nil
		}

		return fmt.Errorf("InitEnvironmentVariables: %s not found", envFile)
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("InitEnvironmentVariables: failed to load %s file: %w", envFile, err)
	}

	return nil
}

func GetEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("GetEnv: %s not set", key)
	}

	return value, nil
}

func GetEnvOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return def
}
