package global

import (
	"compliance-feed/backend/config"

	"github.com/rs/zerolog"
)

var (
	Config *config.Config
	Logger zerolog.Logger
)
