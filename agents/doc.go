// Package agents exposes the external user directory of field agents.
package agents
