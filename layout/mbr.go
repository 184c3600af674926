// Package layout decodes and encodes the on-disk structures that describe
// where a FAT16 volume lives: the MBR partition table and the FAT16 boot
// sector, plus the derived byte offsets of the FAT, root directory, and data
// regions.
package layout

import (
	"encoding/binary"

	fserrors "github.com/dargueta/fat16vol/errors"
)

// PartitionTableOffset is the fixed byte offset of the partition table within
// the first sector of the image.
const PartitionTableOffset = 0x1BE

// PartitionEntrySize is the size, in bytes, of a single MBR partition entry.
const PartitionEntrySize = 16

// PartitionCount is the number of partition entries in an MBR.
const PartitionCount = 4

// Partition is one 16-byte entry from the MBR partition table.
type Partition struct {
	BootIndicator  byte
	StartCHS       [3]byte
	PartitionType  byte
	EndCHS         [3]byte
	StartSectorLBA uint32
	LengthSectors  uint32
}

// ParseMBR decodes the four partition entries from a 512-byte MBR sector.
func ParseMBR(sector []byte) ([PartitionCount]Partition, error) {
	var partitions [PartitionCount]Partition

	if len(sector) < PartitionTableOffset+PartitionCount*PartitionEntrySize {
		return partitions, fserrors.NewInvalidLayout("MBR sector too short to contain a partition table")
	}

	for i := 0; i < PartitionCount; i++ {
		offset := PartitionTableOffset + i*PartitionEntrySize
		entry := sector[offset : offset+PartitionEntrySize]

		partitions[i] = Partition{
			BootIndicator:  entry[0],
			StartCHS:       [3]byte{entry[1], entry[2], entry[3]},
			PartitionType:  entry[4],
			EndCHS:         [3]byte{entry[5], entry[6], entry[7]},
			StartSectorLBA: binary.LittleEndian.Uint32(entry[8:12]),
			LengthSectors:  binary.LittleEndian.Uint32(entry[12:16]),
		}
	}

	return partitions, nil
}

// Encode writes the partition entry back into its packed 16-byte form, the
// mirror image of ParseMBR's per-entry decode.
func (p Partition) Encode() []byte {
	buf := make([]byte, PartitionEntrySize)
	buf[0] = p.BootIndicator
	copy(buf[1:4], p.StartCHS[:])
	buf[4] = p.PartitionType
	copy(buf[5:8], p.EndCHS[:])
	binary.LittleEndian.PutUint32(buf[8:12], p.StartSectorLBA)
	binary.LittleEndian.PutUint32(buf[12:16], p.LengthSectors)
	return buf
}

// EncodeMBR is the mirror image of ParseMBR: it writes the four partition
// entries back into a 512-byte sector buffer (the caller's zero value for
// bytes outside the partition table, e.g. boot code, is left untouched).
func EncodeMBR(sector []byte, partitions [PartitionCount]Partition) {
	for i, p := range partitions {
		offset := PartitionTableOffset + i*PartitionEntrySize
		copy(sector[offset:offset+PartitionEntrySize], p.Encode())
	}
}
