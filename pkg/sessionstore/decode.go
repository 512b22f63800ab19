package sessionstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const (
	// Magic is the 8-byte signature at the start of every container.
	Magic = "mozLz40\x00"

	// HeaderSize is the magic plus the little-endian decompressed size.
	HeaderSize = len(Magic) + 4

	// DefaultMaxSize caps the declared decompressed size. A torn header can
	// declare up to 4 GiB; real session stores are a few megabytes.
	DefaultMaxSize = 256 << 20

	// maxBlockRatio is the largest expansion an LZ4 block can encode per
	// input byte.
	maxBlockRatio = 255
)

// Decoder unpacks session-store containers.
type Decoder struct {
	// MaxSize is the largest declared decompressed size accepted.
	// Zero means DefaultMaxSize.
	MaxSize int
}

// Decode unpacks raw with the default limits.
func Decode(raw []byte) ([]byte, error) {
	var d Decoder
	return d.Decode(raw)
}

// Decode validates the container header and decompresses the payload. The
// returned slice holds exactly the bytes the decompressor produced, which may
// be fewer than the declared size.
func (d *Decoder) Decode(raw []byte) ([]byte, error) {
	if len(raw) < HeaderSize {
		return nil, &DecodeError{
			Kind:    KindTooShort,
			Message: fmt.Sprintf("got %d bytes, need at least %d", len(raw), HeaderSize),
		}
	}

	if !bytes.Equal(raw[:len(Magic)], []byte(Magic)) {
		return nil, &DecodeError{
			Kind:    KindBadMagic,
			Message: fmt.Sprintf("got signature %q", raw[:len(Magic)]),
		}
	}

	declared := binary.LittleEndian.Uint32(raw[len(Magic):HeaderSize])
	if uint64(declared) > uint64(d.maxSize()) {
		return nil, &DecodeError{
			Kind:    KindOversized,
			Message: fmt.Sprintf("declared size %d exceeds limit %d", declared, d.maxSize()),
		}
	}

	payload := raw[HeaderSize:]
	if len(payload) == 0 {
		return []byte{}, nil
	}

	dst := make([]byte, declared)
	n, err := lz4.UncompressBlock(payload, dst)
	if err != nil {
		return nil, d.classify(payload, int(declared), err)
	}

	return dst[:n], nil
}

// classify tells an undersized destination apart from a corrupt payload by
// decompressing once more into the largest buffer the payload could fill.
func (d *Decoder) classify(payload []byte, declared int, cause error) error {
	probeSize := len(payload) * maxBlockRatio
	if probeSize > d.maxSize() {
		probeSize = d.maxSize()
	}

	if probeSize > declared {
		probe := make([]byte, probeSize)
		if n, err := lz4.UncompressBlock(payload, probe); err == nil {
			return &DecodeError{
				Kind:    KindDestinationTooSmall,
				Message: fmt.Sprintf("payload expands to %d bytes, header declares %d", n, declared),
				Err:     cause,
			}
		}
	}

	return &DecodeError{
		Kind:    KindCorrupt,
		Message: fmt.Sprintf("%d byte payload does not decompress", len(payload)),
		Err:     cause,
	}
}

func (d *Decoder) maxSize() int {
	if d == nil || d.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return d.MaxSize
}
