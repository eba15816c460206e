// Package scale contains core domain types for the deployment scale controller.
//
// It defines the Scale tier order, the alarm events that drive transitions,
// the transition rule Table, the Outcome of handling an event, the
// ChangeRecord published after a transition, and the typed Error returned on
// failures.
package scale
