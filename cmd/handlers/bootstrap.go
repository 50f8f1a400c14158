package handlers

import (
	"fmt"

	"ceres/internal/config"
	"ceres/internal/embedclient"
	"ceres/internal/repository"
)

// loadConfig loads configuration on first use and returns it, wrapping the
// error with enough context for a CLI user to act on.
func loadConfig() (*config.Config, error) {
	if _, err := config.Load(""); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config.Get(), nil
}

// openRepository loads configuration and connects to the dataset store.
func openRepository() (*repository.PostgresRepository, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	repo, err := repository.Open(cfg.Database.ConnectionString, cfg.Database.MaxConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repo, nil
}

func newEmbeddingClient(cfg *config.Config) *embedclient.Client {
	return embedclient.New(cfg.Embedding.APIKey)
}
