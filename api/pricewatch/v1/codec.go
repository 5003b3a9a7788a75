// Package pricewatchv1 declares the pricewatch.v1 gRPC services. Requests and
// responses are google.protobuf.Struct values carrying the JSON form of the
// service DTOs.
package pricewatchv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts v to a Struct through its JSON form. v must encode as a
// JSON object.
func Encode(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return s, nil
}

// Decode fills dst from s. A nil Struct decodes as an empty object.
func Decode(s *structpb.Struct, dst interface{}) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
