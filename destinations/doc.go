// Package destinations maintains the prioritized, date-scoped list of
// stops assigned to a field agent: add/edit/remove, authoritative
// priority renumbering on reorder, temporal display filtering, and the
// atomic batch save back to the backend.
package destinations
