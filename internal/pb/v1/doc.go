// Package pb declares the scale.v1.ScaleService gRPC API.
//
// Messages are protobuf well-known types: requests without arguments use
// emptypb.Empty and every other request and response is a structpb.Struct
// whose field names are listed next to each method.
package pb
