// Package scale implements the gRPC transport for the scale controller.
//
// It converts domain types to protobuf Struct messages and exposes a server
// that calls into a provided business-service interface. The same codec is
// used by the client to decode responses.
package scale
