// Package modkit provides module wiring and core deps
package modkit

import (
	"harvester/internal/adapters/folio"
	"harvester/internal/platform/config"
	"harvester/internal/platform/logger"
)

// Deps holds the core dependencies handed to modules at bootstrap.
// Wiring only, no new abstractions
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Folio *folio.Client
}
