// Package directory implements the FAT16 directory manager: 32-byte entry
// formatting/packing/comparison, date/time codecs, iteration over the root
// directory or a subdirectory's cluster chain, and entry mutation (free-slot
// lookup, write, tombstone).
package directory

import (
	"encoding/binary"
	"strings"

	"github.com/noxer/bytewriter"
)

// EntrySize is the size, in bytes, of one directory entry.
const EntrySize = 32

// Attribute bits, per the FAT16 on-disk format.
const (
	AttrReadOnly  byte = 0x01
	AttrHidden    byte = 0x02
	AttrSystem    byte = 0x04
	AttrVolumeID  byte = 0x08
	AttrDirectory byte = 0x10
	AttrArchive   byte = 0x20
)

// Sentinel values for the first byte of a directory entry's filename field.
const (
	SentinelNeverUsed byte = 0x00
	SentinelDeleted   byte = 0xE5
)

// Entry is one 32-byte FAT16 directory record.
type Entry struct {
	Name            [8]byte
	Ext             [3]byte
	Attributes      byte
	Reserved        [10]byte
	ModifyTime      uint16
	ModifyDate      uint16
	StartingCluster uint16
	FileSize        uint32
}

// Decode parses a 32-byte buffer into an Entry. buf must be exactly
// EntrySize bytes.
func Decode(buf []byte) Entry {
	var e Entry
	copy(e.Name[:], buf[0:8])
	copy(e.Ext[:], buf[8:11])
	e.Attributes = buf[11]
	copy(e.Reserved[:], buf[12:22])
	e.ModifyTime = binary.LittleEndian.Uint16(buf[22:24])
	e.ModifyDate = binary.LittleEndian.Uint16(buf[24:26])
	e.StartingCluster = binary.LittleEndian.Uint16(buf[26:28])
	e.FileSize = binary.LittleEndian.Uint32(buf[28:32])
	return e
}

// Encode serializes the entry back into its packed 32-byte on-disk form,
// writing sequentially through a bytewriter instead of indexing a slice by
// hand.
func (e Entry) Encode() []byte {
	buf := make([]byte, EntrySize)
	w := bytewriter.New(buf)

	w.Write(e.Name[:])
	w.Write(e.Ext[:])
	w.Write([]byte{e.Attributes})
	w.Write(e.Reserved[:])
	binary.Write(w, binary.LittleEndian, e.ModifyTime)
	binary.Write(w, binary.LittleEndian, e.ModifyDate)
	binary.Write(w, binary.LittleEndian, e.StartingCluster)
	binary.Write(w, binary.LittleEndian, e.FileSize)

	return buf
}

// IsNeverUsed reports whether this slot terminates the directory scan.
func (e Entry) IsNeverUsed() bool {
	return e.Name[0] == SentinelNeverUsed
}

// IsDeleted reports whether this slot is tombstoned and should be skipped.
func (e Entry) IsDeleted() bool {
	return e.Name[0] == SentinelDeleted
}

// IsDirectory reports whether the entry's attributes mark it a subdirectory.
func (e Entry) IsDirectory() bool {
	return e.Attributes&AttrDirectory != 0
}

// IsVolumeLabel reports whether the entry's attributes mark it a volume
// label.
func (e Entry) IsVolumeLabel() bool {
	return e.Attributes&AttrVolumeID != 0
}

// IsSelfReference reports whether this entry is the "." or ".." entry
// synthesized at the head of every subdirectory.
func (e Entry) IsSelfReference() bool {
	return e.Name[0] == '.'
}

// Format renders the entry's 8.3 name as "NAME.EXT", or just "NAME" if the
// extension is empty. Trailing spaces are trimmed from both fields; the
// result is always uppercase because the on-disk name already is.
func Format(e Entry) string {
	name := strings.TrimRight(string(e.Name[:]), " ")
	ext := strings.TrimRight(string(e.Ext[:]), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// Compare reports whether query (case-insensitively) names the same file as
// entry, by uppercasing query and comparing it against entry's formatted
// name.
func Compare(query string, e Entry) bool {
	return strings.ToUpper(query) == Format(e)
}

// Pack splits name at its last '.' into an 8-byte base and 3-byte
// extension, left-justified, space-padded, uppercased, and truncated to
// fit.
func Pack(name string) (base [8]byte, ext [3]byte) {
	upper := strings.ToUpper(name)

	baseStr := upper
	extStr := ""
	if dot := strings.LastIndex(upper, "."); dot >= 0 {
		baseStr = upper[:dot]
		extStr = upper[dot+1:]
	}

	for i := range base {
		base[i] = ' '
	}
	for i := range ext {
		ext[i] = ' '
	}

	copy(base[:], truncate(baseStr, 8))
	copy(ext[:], truncate(extStr, 3))
	return base, ext
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
