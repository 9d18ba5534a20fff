// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Environment variables override the backend, Redis and places settings so
// deployments can keep secrets out of the file.
package config
