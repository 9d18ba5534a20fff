// Package pings models the raw location readings produced by field
// agents' devices and the read-side access to them: the backend REST
// store and an optional Redis cache for the latest position per agent.
package pings
