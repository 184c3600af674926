package layout

import (
	"encoding/binary"
	"fmt"

	fserrors "github.com/dargueta/fat16vol/errors"
)

// BootSectorSize is the size, in bytes, of the portion of the boot sector the
// engine models as individual fields (through FilesystemType). The sector
// itself is 512 bytes on disk; everything past this point (boot code,
// padding, the 0x55AA signature) is preserved verbatim in raw.
const BootSectorSize = 62

// BootSector holds the fields of a FAT16 boot sector that the engine reads
// or computes offsets from. raw retains the original bytes read by ParseBoot
// so Encode can reproduce the sector byte-for-byte, including regions (boot
// code, trailing signature) this package doesn't model as individual fields.
type BootSector struct {
	Jump               [3]byte
	OEMName            [8]byte
	SectorSize         uint16
	SectorsPerCluster  uint8
	ReservedSectors    uint16
	NumFATs            uint8
	RootDirEntries     uint16
	TotalSectorsShort  uint16
	MediaDescriptor    byte
	FATSizeSectors     uint16
	SectorsPerTrack    uint16
	Heads              uint16
	HiddenSectors      uint32
	TotalSectorsLong   uint32
	DriveNumber        byte
	Flags              byte
	BootSignature      byte
	VolumeID           uint32
	VolumeLabel        [11]byte
	FilesystemType     [8]byte

	raw []byte
}

// ParseBoot decodes the fields of a FAT16 boot sector from a full sector
// buffer (conventionally 512 bytes, but any size at least BootSectorSize is
// accepted). It validates that SectorSize is a positive power of two and
// that SectorsPerCluster is at least 1, returning InvalidLayout otherwise.
func ParseBoot(sector []byte) (*BootSector, error) {
	if len(sector) < BootSectorSize {
		return nil, fserrors.NewInvalidLayout(
			fmt.Sprintf("boot sector buffer too short: got %d bytes, need at least %d", len(sector), BootSectorSize))
	}

	bs := &BootSector{raw: append([]byte(nil), sector...)}
	copy(bs.Jump[:], sector[0:3])
	copy(bs.OEMName[:], sector[3:11])
	bs.SectorSize = binary.LittleEndian.Uint16(sector[11:13])
	bs.SectorsPerCluster = sector[13]
	bs.ReservedSectors = binary.LittleEndian.Uint16(sector[14:16])
	bs.NumFATs = sector[16]
	bs.RootDirEntries = binary.LittleEndian.Uint16(sector[17:19])
	bs.TotalSectorsShort = binary.LittleEndian.Uint16(sector[19:21])
	bs.MediaDescriptor = sector[21]
	bs.FATSizeSectors = binary.LittleEndian.Uint16(sector[22:24])
	bs.SectorsPerTrack = binary.LittleEndian.Uint16(sector[24:26])
	bs.Heads = binary.LittleEndian.Uint16(sector[26:28])
	bs.HiddenSectors = binary.LittleEndian.Uint32(sector[28:32])
	bs.TotalSectorsLong = binary.LittleEndian.Uint32(sector[32:36])
	bs.DriveNumber = sector[36]
	bs.Flags = sector[37]
	bs.BootSignature = sector[38]
	bs.VolumeID = binary.LittleEndian.Uint32(sector[39:43])
	copy(bs.VolumeLabel[:], sector[43:54])
	copy(bs.FilesystemType[:], sector[54:62])

	if err := bs.sanityCheck(); err != nil {
		return nil, err
	}
	return bs, nil
}

func (bs *BootSector) sanityCheck() error {
	if bs.SectorSize == 0 || bs.SectorSize&(bs.SectorSize-1) != 0 {
		return fserrors.NewInvalidLayout(
			fmt.Sprintf("sector size must be a positive power of two, got %d", bs.SectorSize))
	}
	if bs.SectorsPerCluster < 1 {
		return fserrors.NewInvalidLayout(
			fmt.Sprintf("sectors per cluster must be at least 1, got %d", bs.SectorsPerCluster))
	}

	// Fixed-disk media descriptors (and any descriptor missing from the
	// catalog) carry no meaningful sectors-per-track/heads, so only a
	// catalog hit with both fields populated is worth comparing against.
	if g, ok := DescribeMedia(bs.MediaDescriptor); ok && g.SectorsPerTrack != 0 && g.Heads != 0 {
		if uint(bs.SectorsPerTrack) != g.SectorsPerTrack || uint(bs.Heads) != g.Heads {
			return fserrors.NewInvalidLayout(fmt.Sprintf(
				"media descriptor 0x%02X (%s) implies %d heads x %d sectors/track, but boot sector declares %d heads x %d sectors/track",
				bs.MediaDescriptor, g.Name, g.Heads, g.SectorsPerTrack, bs.Heads, bs.SectorsPerTrack))
		}
	}
	return nil
}

// Encode returns the boot sector's on-disk representation. If ParseBoot
// produced this value, Encode reproduces the original bytes exactly,
// including any boot code or padding beyond the modeled fields; fields are
// re-serialized over a copy of that original buffer so an unmodified
// round-trip is always byte-identical.
func (bs *BootSector) Encode() []byte {
	out := append([]byte(nil), bs.raw...)
	if len(out) < BootSectorSize {
		out = append(out, make([]byte, BootSectorSize-len(out))...)
	}

	copy(out[0:3], bs.Jump[:])
	copy(out[3:11], bs.OEMName[:])
	binary.LittleEndian.PutUint16(out[11:13], bs.SectorSize)
	out[13] = bs.SectorsPerCluster
	binary.LittleEndian.PutUint16(out[14:16], bs.ReservedSectors)
	out[16] = bs.NumFATs
	binary.LittleEndian.PutUint16(out[17:19], bs.RootDirEntries)
	binary.LittleEndian.PutUint16(out[19:21], bs.TotalSectorsShort)
	out[21] = bs.MediaDescriptor
	binary.LittleEndian.PutUint16(out[22:24], bs.FATSizeSectors)
	binary.LittleEndian.PutUint16(out[24:26], bs.SectorsPerTrack)
	binary.LittleEndian.PutUint16(out[26:28], bs.Heads)
	binary.LittleEndian.PutUint32(out[28:32], bs.HiddenSectors)
	binary.LittleEndian.PutUint32(out[32:36], bs.TotalSectorsLong)
	out[36] = bs.DriveNumber
	out[37] = bs.Flags
	out[38] = bs.BootSignature
	binary.LittleEndian.PutUint32(out[39:43], bs.VolumeID)
	copy(out[43:54], bs.VolumeLabel[:])
	copy(out[54:62], bs.FilesystemType[:])

	return out
}

// TotalSectors returns the volume's total sector count, preferring the
// 32-bit field when the 16-bit one is zero (the usual convention for
// volumes too large to fit in 16 bits).
func (bs *BootSector) TotalSectors() uint32 {
	if bs.TotalSectorsShort != 0 {
		return uint32(bs.TotalSectorsShort)
	}
	return bs.TotalSectorsLong
}
