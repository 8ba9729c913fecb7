package app

import (
	"time"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/utils"
)

type Config struct {
	Environment     string
	Version         string
	ExperimentFile  string
	StrategyTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	environment := utils.GetEnv("APP_ENV", "development", log)
	version := utils.GetEnv("APP_VERSION", "dev", log)
	experimentFile := utils.GetEnv("EXPERIMENT_FILE", "", log)
	strategyTimeoutSeconds := utils.GetEnvAsInt("REC_STRATEGY_TIMEOUT_SECONDS", 10, log)
	return Config{
		Environment:     environment,
		Version:         version,
		ExperimentFile:  experimentFile,
		StrategyTimeout: time.Duration(strategyTimeoutSeconds) * time.Second,
	}
}
