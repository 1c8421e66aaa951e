package service

import "encoding/json"

// jsonCodec lets Connect carry the plain Go messages of this package.
// It replaces Connect's default "json" codec, which only accepts protobuf
// messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
