package server

import (
	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address; defaults to App.Config.Server.ListenAddr.
	ListenAddr string

	// App supplies the assessor, orchestrator, metrics and settings.
	App *app.Application

	Logger logging.Logger
}
