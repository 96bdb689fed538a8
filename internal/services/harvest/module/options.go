package module

import (
	"time"

	"harvester/internal/platform/config"
	"harvester/internal/services/harvest/service"
)

// Options carries the tunables of the harvest module
type Options struct {
	Workers   int
	Timeout   time.Duration
	UserAgent string
}

// OptionsFromConfig reads HARVESTER_* settings
func OptionsFromConfig(cfg config.Conf) Options {
	hc := cfg.Prefix("HARVESTER_")
	return Options{
		Workers:   hc.MayInt("WORKERS", service.DefaultWorkers),
		Timeout:   hc.MayDuration("TIMEOUT", 10*time.Second),
		UserAgent: hc.MayString("USER_AGENT", "erm-usage-harvester"),
	}
}
