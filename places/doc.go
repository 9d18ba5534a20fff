// Package places wraps the external place-autocomplete/geocoding service.
package places
