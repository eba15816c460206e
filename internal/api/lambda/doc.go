// Package lambda adapts the scale controller to the AWS Lambda runtime.
//
// The Handler accepts the raw invocation payload, delegates to the
// controller and renders the outcome as a {statusCode, body} response.
package lambda
