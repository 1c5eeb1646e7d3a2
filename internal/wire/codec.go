package wire

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Codec names accepted by NewCodec.
const (
	CodecList = "list"
	CodecCBOR = "cbor"
)

// Message is one frame's worth of data handed to a codec. The list codec
// only carries Coords; the CBOR codec carries every field.
type Message struct {
	Session string `cbor:"1,keyasint,omitempty" json:"session,omitempty"`
	Seq     uint64 `cbor:"2,keyasint,omitempty" json:"seq,omitempty"`
	Height  int    `cbor:"3,keyasint,omitempty" json:"height,omitempty"`
	Coords  Packet `cbor:"4,keyasint" json:"coords"`
}

// Codec converts messages to and from datagram payloads.
type Codec interface {
	Name() string
	Encode(m Message) ([]byte, error)
	Decode(data []byte) (Message, error)
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecList:
		return ListCodec{}, nil
	case CodecCBOR:
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// maxCoord bounds decoded values to the 32-bit range receivers parse into.
const maxCoord = math.MaxInt32

// ListCodec renders coordinates as a bracketed, comma-space separated list
// of numbers, e.g. "[100, 670, 0, 110, 660, -5]". This is the format game
// engine receivers parse by stripping the brackets and splitting on commas.
type ListCodec struct{}

// Name returns "list".
func (ListCodec) Name() string { return CodecList }

// Encode renders m.Coords.
func (ListCodec) Encode(m Message) ([]byte, error) {
	buf := make([]byte, 0, 2+len(m.Coords)*6)
	buf = append(buf, '[')
	for i, v := range m.Coords {
		if i > 0 {
			buf = append(buf, ',', ' ')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	buf = append(buf, ']')
	return buf, nil
}

// Decode parses a list payload. Fractional values are truncated toward zero;
// values outside the 32-bit integer range are malformed.
func (ListCodec) Decode(data []byte) (Message, error) {
	text := strings.TrimSpace(string(data))
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return Message{}, fmt.Errorf("%w: missing brackets", ErrMalformed)
	}

	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return Message{}, nil
	}

	fields := strings.Split(body, ",")
	if len(fields)%3 != 0 {
		return Message{}, fmt.Errorf("%w: %d values is not a multiple of 3", ErrMalformed, len(fields))
	}

	coords := make(Packet, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		fv, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(fv) || math.Abs(fv) > maxCoord {
			return Message{}, fmt.Errorf("%w: value %d %q", ErrMalformed, i, f)
		}
		coords[i] = int(fv)
	}

	return Message{Coords: coords}, nil
}

// CBORCodec encodes the whole Message as a CBOR map with integer keys.
type CBORCodec struct{}

// Name returns "cbor".
func (CBORCodec) Name() string { return CodecCBOR }

// Encode marshals m.
func (CBORCodec) Encode(m Message) ([]byte, error) {
	data, err := cbor.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode cbor: %w", err)
	}
	return data, nil
}

// Decode unmarshals a CBOR message and checks the coordinate count.
func (CBORCodec) Decode(data []byte) (Message, error) {
	var m Message
	if err := cbor.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(m.Coords)%3 != 0 {
		return Message{}, fmt.Errorf("%w: %d values is not a multiple of 3", ErrMalformed, len(m.Coords))
	}
	return m, nil
}

// Sniff picks the codec for a received payload: list payloads start with
// '[' after optional whitespace, anything else is treated as CBOR.
func Sniff(data []byte) Codec {
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '[' {
		return ListCodec{}
	}
	return CBORCodec{}
}
