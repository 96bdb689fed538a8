// Package module defines the minimal contract for a modkit module
package module

// Module is what every service module exposes to the composition root.
// Ports returns the module's public port bundle for cross-module wiring
type Module interface {
	Ports() any
	Name() string
}
