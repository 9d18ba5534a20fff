// Package visits reconstructs where an agent has been from their raw ping
// stream, collapsing consecutive readings at the same place into visit
// intervals.
package visits
