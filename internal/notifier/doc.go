// Package notifier publishes scale change records.
//
// Publishers are fire-and-forget: a returned error means the message was not
// accepted by the sink, nothing more. SNS is the production sink; redis
// streams and the log sink serve development setups.
package notifier
