// Package snapshot implements the versioned binary memory-image loader and
// the guest-to-host address mapping that feeds the DUT's backing store.
package snapshot

import (
	"encoding/binary"
	"fmt"

	"github.com/LinxISA/LinxCore/internal/constants"
)

// headerSize is the fixed 16-byte header preceding the range table.
const headerSize = 16

// Header is the fixed 16-byte preamble of a snapshot file.
type Header struct {
	Magic      [8]byte
	Version    uint32
	RangeCount uint32
}

// RangeEntry is one 24-byte row of the range table.
type RangeEntry struct {
	GuestBase  uint64
	Size       uint64
	FileOffset uint64
}

// ErrInsufficientData indicates a buffer too short to contain the structure
// being decoded.
type ErrInsufficientData struct {
	Want, Got int
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("snapshot: insufficient data: want %d bytes, got %d", e.Want, e.Got)
}

// unmarshalHeader decodes a Header from the first headerSize bytes of buf.
func unmarshalHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < headerSize {
		return h, &ErrInsufficientData{Want: headerSize, Got: len(buf)}
	}
	copy(h.Magic[:], buf[0:8])
	h.Version = binary.LittleEndian.Uint32(buf[8:12])
	h.RangeCount = binary.LittleEndian.Uint32(buf[12:16])
	return h, nil
}

// validMagic reports whether h carries the expected file magic.
func (h Header) validMagic() bool {
	return string(h.Magic[:]) == constants.SnapshotMagic
}

// unmarshalRangeEntry decodes one RangeEntry from exactly
// constants.RangeEntrySize bytes.
func unmarshalRangeEntry(buf []byte) (RangeEntry, error) {
	var e RangeEntry
	if len(buf) < constants.RangeEntrySize {
		return e, &ErrInsufficientData{Want: constants.RangeEntrySize, Got: len(buf)}
	}
	e.GuestBase = binary.LittleEndian.Uint64(buf[0:8])
	e.Size = binary.LittleEndian.Uint64(buf[8:16])
	e.FileOffset = binary.LittleEndian.Uint64(buf[16:24])
	return e, nil
}

// marshalHeader encodes h for round-trip testing and snapshot authoring
// tools; the loader itself only ever decodes.
func marshalHeader(h Header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], h.Version)
	binary.LittleEndian.PutUint32(buf[12:16], h.RangeCount)
	return buf
}

func marshalRangeEntry(e RangeEntry) []byte {
	buf := make([]byte, constants.RangeEntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], e.GuestBase)
	binary.LittleEndian.PutUint64(buf[8:16], e.Size)
	binary.LittleEndian.PutUint64(buf[16:24], e.FileOffset)
	return buf
}
