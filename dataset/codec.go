package dataset

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
)

// Durable record layout: one format byte, then the payload.
const (
	formatTombstone byte = 0x00
	formatPlain     byte = 0x01
	// lz4 block prefixed by the 4-byte big-endian uncompressed size.
	formatLZ4 byte = 0x02
)

// compressMin is the smallest encoded graph worth compressing.
const compressMin = 128

// lz4MaxRatio bounds how far an lz4 block can expand. A header claiming
// more is corrupt and must not drive the allocation.
const lz4MaxRatio = 255

func encodeTombstone() []byte {
	return []byte{formatTombstone}
}

func encodeGraph(g *graph.Graph) ([]byte, error) {
	raw, err := g.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(raw) >= compressMin {
		buf := make([]byte, 1+4+lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf[5:], nil)
		if err == nil && n > 0 && n < len(raw) {
			buf[0] = formatLZ4
			binary.BigEndian.PutUint32(buf[1:5], uint32(len(raw)))
			return buf[:5+n], nil
		}
	}
	out := make([]byte, 1+len(raw))
	out[0] = formatPlain
	copy(out[1:], raw)
	return out, nil
}

// decodeRecord returns the stored graph, or nil for a tombstone.
func decodeRecord(data []byte) (*graph.Graph, error) {
	if len(data) == 0 {
		return nil, corrupt("empty record")
	}
	payload := data[1:]
	switch data[0] {
	case formatTombstone:
		return nil, nil
	case formatPlain:
	case formatLZ4:
		if len(payload) < 4 {
			return nil, corrupt("short lz4 header")
		}
		size := binary.BigEndian.Uint32(payload)
		if block := len(payload) - 4; uint64(size) > uint64(block)*lz4MaxRatio {
			return nil, corrupt("lz4: %d bytes cannot expand to %d", block, size)
		}
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(payload[4:], buf)
		if err != nil {
			return nil, corrupt("lz4: %v", err)
		}
		if n != int(size) {
			return nil, corrupt("lz4: got %d bytes, want %d", n, size)
		}
		payload = buf
	default:
		return nil, corrupt("unknown record format 0x%02x", data[0])
	}

	g := graph.New()
	if err := g.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return g, nil
}

func corrupt(format string, args ...any) error {
	return errors.Invalidf(errors.ErrDataCorrupted, "dataset", "decodeRecord", format, args...)
}
