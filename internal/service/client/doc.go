// Package client implements the scalectl operations: printing the current
// scale, firing an alarm by hand and listing the transition table.
package client
