// Package controller implements the deployment scale controller.
//
// The Controller decodes an alarm event, reads the current scale from a
// parameter store, applies the transition table, writes the new scale and
// publishes a change record. The write is the durable fact; the notification
// is best effort and never rolls the write back.
package controller
