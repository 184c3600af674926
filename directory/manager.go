package directory

import (
	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/dargueta/fat16vol/fattable"
	"github.com/dargueta/fat16vol/image"
	"github.com/dargueta/fat16vol/layout"
)

// Location identifies where a directory's entries live: either the
// fixed-size root directory region, or a subdirectory's cluster chain
// headed at Cluster. The root directory is Location{Cluster: 0}.
type Location struct {
	Cluster layout.Cluster
}

// IsRoot reports whether this location is the root directory.
func (l Location) IsRoot() bool {
	return l.Cluster == 0
}

// Slot is one live directory-entry slot: its absolute byte offset in the
// image and the decoded entry itself.
type Slot struct {
	Offset int64
	Entry  Entry
}

// Manager implements directory iteration and mutation over either the root
// directory or a subdirectory's cluster chain. Every caller (read, write,
// delete, cd, tree) goes through the same capacity computation here, so a
// subdirectory scan is never bounded by the root directory's entry count.
type Manager struct {
	img *image.Image
	vol *layout.Volume
	fat *fattable.Table
}

// New creates a directory Manager bound to the given image, volume layout,
// and FAT table.
func New(img *image.Image, vol *layout.Volume, fat *fattable.Table) *Manager {
	return &Manager{img: img, vol: vol, fat: fat}
}

// offsets returns the absolute byte offsets of every entry slot in loc, in
// scan order. For the root directory this is exactly RootDirEntries slots;
// for a subdirectory it's EntriesPerCluster slots per cluster in the chain.
func (m *Manager) offsets(loc Location) ([]int64, error) {
	if loc.IsRoot() {
		offsets := make([]int64, m.vol.Boot.RootDirEntries)
		base := m.vol.RootDirOffset()
		for i := range offsets {
			offsets[i] = base + int64(i)*EntrySize
		}
		return offsets, nil
	}

	// A subdirectory scan has to walk the FAT chain, so this is one of the
	// lazy acquisition points for the FAT buffer. Load is idempotent.
	if err := m.fat.Load(); err != nil {
		return nil, err
	}

	chain, err := m.fat.Walk(loc.Cluster)
	if err != nil {
		return nil, err
	}

	perCluster := m.vol.EntriesPerCluster()
	offsets := make([]int64, 0, len(chain)*perCluster)
	for _, cluster := range chain {
		base := m.vol.ClusterOffset(cluster)
		for i := 0; i < perCluster; i++ {
			offsets = append(offsets, base+int64(i)*EntrySize)
		}
	}
	return offsets, nil
}

// readEntry decodes the entry at the given absolute byte offset.
func (m *Manager) readEntry(offset int64) (Entry, error) {
	buf := make([]byte, EntrySize)
	if err := m.img.ReadAt(offset, buf); err != nil {
		return Entry{}, err
	}
	return Decode(buf), nil
}

// List returns every live (not deleted) entry in loc, stopping at the first
// never-used slot.
func (m *Manager) List(loc Location) ([]Slot, error) {
	offsets, err := m.offsets(loc)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, offset := range offsets {
		entry, err := m.readEntry(offset)
		if err != nil {
			return nil, err
		}
		if entry.IsNeverUsed() {
			break
		}
		if entry.IsDeleted() {
			continue
		}
		slots = append(slots, Slot{Offset: offset, Entry: entry})
	}
	return slots, nil
}

// Find scans loc for a live entry whose formatted name matches query,
// optionally restricted by a filter. filter may be nil to accept any entry.
func (m *Manager) Find(loc Location, query string, filter func(Entry) bool) (Slot, bool, error) {
	slots, err := m.List(loc)
	if err != nil {
		return Slot{}, false, err
	}
	for _, slot := range slots {
		if !Compare(query, slot.Entry) {
			continue
		}
		if filter != nil && !filter(slot.Entry) {
			continue
		}
		return slot, true, nil
	}
	return Slot{}, false, nil
}

// FindFreeSlot returns the offset of the first never-used or deleted slot in
// loc, or DirectoryFull if the directory's capacity is exhausted.
func (m *Manager) FindFreeSlot(loc Location) (int64, error) {
	offsets, err := m.offsets(loc)
	if err != nil {
		return 0, err
	}
	for _, offset := range offsets {
		entry, err := m.readEntry(offset)
		if err != nil {
			return 0, err
		}
		if entry.IsNeverUsed() || entry.IsDeleted() {
			return offset, nil
		}
	}
	return 0, fserrors.NewDirectoryFull()
}

// WriteEntry overwrites the 32 bytes at offset with entry's packed form.
func (m *Manager) WriteEntry(offset int64, entry Entry) error {
	return m.img.WriteAt(offset, entry.Encode())
}

// Tombstone overwrites the first byte of the entry at offset with the
// "deleted" sentinel, without reclaiming the slot.
func (m *Manager) Tombstone(offset int64) error {
	return m.img.WriteAt(offset, []byte{SentinelDeleted})
}
