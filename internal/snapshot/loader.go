package snapshot

import (
	"os"

	"github.com/LinxISA/LinxCore/internal/lxerr"
)

// Range describes one guest address range materialized from the snapshot
// file, without retaining its own payload copy (the bytes live in Image.Mem,
// folded through Image.Mapper).
type Range struct {
	GuestBase uint64
	Size      uint64
}

// Image is the fully loaded, mapped snapshot: a set of guest ranges backed
// by one flat host memory region.
type Image struct {
	Ranges []Range
	Mem    *Memory
	Mapper *Mapper
}

// Load reads a snapshot file from path and materializes it into a backing
// store of the given depth (a power of two). The loader does not interpret
// payload content; it only validates structure and detects aliasing.
func Load(path string, depth uint64) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, lxerr.WrapError("snapshot.Load", lxerr.KindSnapshotError, err)
	}
	return LoadBytes(raw, depth)
}

// LoadBytes parses an already-read snapshot image. It is split out from Load
// so tests can exercise the format without touching the filesystem.
func LoadBytes(raw []byte, depth uint64) (*Image, error) {
	hdr, err := unmarshalHeader(raw)
	if err != nil {
		return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, err.Error())
	}
	if !hdr.validMagic() {
		return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, "bad magic")
	}
	if hdr.Version != 1 {
		return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, "unsupported version")
	}

	tableStart := headerSize
	tableEnd := tableStart + int(hdr.RangeCount)*24
	if len(raw) < tableEnd {
		return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, "short read: range table truncated")
	}

	mapper := NewMapper(depth)
	mem, err := NewMemory(depth)
	if err != nil {
		return nil, lxerr.WrapError("snapshot.Load", lxerr.KindSnapshotError, err)
	}

	occupied := make([]bool, depth)
	ranges := make([]Range, 0, hdr.RangeCount)

	for i := uint32(0); i < hdr.RangeCount; i++ {
		entryOff := tableStart + int(i)*24
		entry, err := unmarshalRangeEntry(raw[entryOff : entryOff+24])
		if err != nil {
			return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, err.Error())
		}

		if entry.Size > depth {
			return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, "range size exceeds DUT memory depth")
		}

		payloadEnd := entry.FileOffset + entry.Size
		if uint64(len(raw)) < payloadEnd {
			return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, "short read: payload truncated")
		}

		for b := uint64(0); b < entry.Size; b++ {
			hostOff := mapper.Map(entry.GuestBase + b)
			if occupied[hostOff] {
				return nil, lxerr.NewError("snapshot.Load", lxerr.KindSnapshotError, "aliasing: range collides with prior byte")
			}
			occupied[hostOff] = true
		}

		payload := raw[entry.FileOffset:payloadEnd]
		if err := pokeRange(mem, mapper, entry.GuestBase, payload); err != nil {
			return nil, lxerr.WrapError("snapshot.Load", lxerr.KindSnapshotError, err)
		}

		ranges = append(ranges, Range{GuestBase: entry.GuestBase, Size: entry.Size})
	}

	return &Image{Ranges: ranges, Mem: mem, Mapper: mapper}, nil
}

// pokeRange writes payload into mem byte-by-byte through mapper, since a
// range may straddle the stack-window fold boundary and lose host-side
// contiguity partway through.
func pokeRange(mem *Memory, mapper *Mapper, guestBase uint64, payload []byte) error {
	for i, b := range payload {
		hostOff := mapper.Map(guestBase + uint64(i))
		if err := mem.PokeAt([]byte{b}, hostOff); err != nil {
			return err
		}
	}
	return nil
}
