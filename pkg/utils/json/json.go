// Package json is the JSON codec used by AstraMed. It runs on sonic where
// sonic has a JIT (amd64, arm64) and on encoding/json elsewhere; both accept
// the same struct tags and produce equivalent output.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// Encoder writes JSON values to a stream.
type Encoder interface {
	Encode(v any) error
}

// Decoder reads JSON values from a stream.
type Decoder interface {
	Decode(v any) error
}

type codec struct {
	marshal       func(v any) ([]byte, error)
	marshalIndent func(v any, prefix, indent string) ([]byte, error)
	unmarshal     func(data []byte, v any) error
	encoder       func(w io.Writer) Encoder
	decoder       func(r io.Reader) Decoder
	name          string
}

var active = selectCodec(runtime.GOARCH)

func selectCodec(arch string) codec {
	switch arch {
	case "amd64", "arm64":
		api := sonic.ConfigStd
		return codec{
			marshal:       api.Marshal,
			marshalIndent: api.MarshalIndent,
			unmarshal:     api.Unmarshal,
			encoder:       func(w io.Writer) Encoder { return api.NewEncoder(w) },
			decoder:       func(r io.Reader) Decoder { return api.NewDecoder(r) },
			name:          "sonic",
		}
	}
	return codec{
		marshal:       stdjson.Marshal,
		marshalIndent: stdjson.MarshalIndent,
		unmarshal:     stdjson.Unmarshal,
		encoder:       func(w io.Writer) Encoder { return stdjson.NewEncoder(w) },
		decoder:       func(r io.Reader) Decoder { return stdjson.NewDecoder(r) },
		name:          "encoding/json",
	}
}

// Marshal encodes v.
func Marshal(v any) ([]byte, error) { return active.marshal(v) }

// MarshalIndent encodes v with indentation, as for report files.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return active.marshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return active.unmarshal(data, v) }

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) Encoder { return active.encoder(w) }

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) Decoder { return active.decoder(r) }

// Backend names the codec in use ("sonic" or "encoding/json").
func Backend() string { return active.name }
