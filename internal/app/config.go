package app

import (
	"github.com/vestire/server/internal/shared/config"
)

// LoadConfig loads application configuration.
func LoadConfig() (*config.Config, error) {
	return config.Load()
}
