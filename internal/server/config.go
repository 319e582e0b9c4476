package server

import (
	"github.com/raysh454/owaspscan/internal/config"
	"github.com/raysh454/owaspscan/internal/logging"
)

type Config struct {
	// AppConfig holds every component's settings; nil selects
	// config.DefaultConfig().
	AppConfig *config.Config

	Logger logging.Logger
}
