package tokenbookpb

import (
	"github.com/goccy/go-json"
)

// CodecName is the content subtype of tokenbook gRPC messages
const CodecName = "json"

// Codec encodes gRPC messages as JSON. Servers install it with
// grpc.ForceServerCodec and clients with grpc.ForceCodec.
type Codec struct{}

// Marshal implements encoding.Codec.Marshal
func (Codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements encoding.Codec.Unmarshal
func (Codec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Name implements encoding.Codec.Name
func (Codec) Name() string {
	return CodecName
}
