// Package geo provides great-circle distance math over WGS84 coordinate
// pairs on a fixed-radius sphere.
package geo
