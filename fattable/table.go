// Package fattable manages the in-memory FAT16 allocation table: loading it
// from the image, getting/setting chain links, allocating and freeing
// clusters, walking chains with cycle detection, and mirroring writes back
// to every FAT copy on disk.
package fattable

import (
	"encoding/binary"
	"fmt"

	"github.com/boljen/go-bitmap"
	multierror "github.com/hashicorp/go-multierror"

	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/dargueta/fat16vol/image"
	"github.com/dargueta/fat16vol/layout"
)

// Link values, per the FAT16 convention.
const (
	LinkFree       uint16 = 0x0000
	LinkMinNext    uint16 = 0x0002
	LinkMaxNext    uint16 = 0xFFEF
	LinkReservedLo uint16 = 0xFFF0
	LinkBad        uint16 = 0xFFF7
	LinkEOC        uint16 = 0xFFFF
)

// Table is the in-memory FAT: a byte buffer addressable both as raw bytes
// (for flush to disk) and as 16-bit little-endian slots (for Get/Set). A
// bitmap tracks free/used clusters in lockstep with the buffer so NoSpace
// detection and leak audits don't need to rescan the raw bytes; it is an
// accelerator only, never a second source of truth.
type Table struct {
	img    *image.Image
	vol    *layout.Volume
	buf    []byte
	used   bitmap.Bitmap
	loaded bool
}

// New creates a Table bound to the given image and volume layout. The FAT
// isn't read from disk until Load is called.
func New(img *image.Image, vol *layout.Volume) *Table {
	return &Table{img: img, vol: vol}
}

// Load reads the primary FAT (copy 0) into memory. It's idempotent: a
// second call is a no-op.
func (t *Table) Load() error {
	if t.loaded {
		return nil
	}

	t.buf = make([]byte, t.vol.FATBytes)
	if err := t.img.ReadAt(t.vol.FATCopyOffset(0), t.buf); err != nil {
		return err
	}

	bound := t.clusterBound()
	t.used = bitmap.New(bound)
	for c := 2; c < bound; c++ {
		if t.rawGet(layout.Cluster(c)) != LinkFree {
			t.used.Set(c, true)
		}
	}

	t.loaded = true
	return nil
}

// clusterBound returns the exclusive upper bound on addressable cluster
// numbers: the volume's cluster count, capped by how many 16-bit slots the
// FAT buffer actually holds, so a boot sector declaring more clusters than
// its FAT can map never indexes past the buffer.
func (t *Table) clusterBound() int {
	bound := int(t.vol.TotalClusters()) + 2
	if slots := len(t.buf) / 2; bound > slots {
		bound = slots
	}
	if bound < 0 {
		bound = 0
	}
	return bound
}

func (t *Table) rawGet(cluster layout.Cluster) uint16 {
	offset := int(cluster) * 2
	return binary.LittleEndian.Uint16(t.buf[offset : offset+2])
}

func (t *Table) rawSet(cluster layout.Cluster, value uint16) {
	offset := int(cluster) * 2
	binary.LittleEndian.PutUint16(t.buf[offset:offset+2], value)
}

// Get returns the link value stored for the given cluster.
func (t *Table) Get(cluster layout.Cluster) (uint16, error) {
	if err := t.checkLoaded(); err != nil {
		return 0, err
	}
	if err := t.checkRange(cluster); err != nil {
		return 0, err
	}
	return t.rawGet(cluster), nil
}

// Set writes a link value for the given cluster in memory. Callers must
// call Flush to persist the change.
func (t *Table) Set(cluster layout.Cluster, value uint16) error {
	if err := t.checkLoaded(); err != nil {
		return err
	}
	if err := t.checkRange(cluster); err != nil {
		return err
	}

	t.rawSet(cluster, value)
	t.used.Set(int(cluster), value != LinkFree)
	return nil
}

func (t *Table) checkLoaded() error {
	if !t.loaded {
		return fmt.Errorf("FAT not loaded: call Load first")
	}
	return nil
}

func (t *Table) checkRange(cluster layout.Cluster) error {
	bound := t.clusterBound()
	if int(cluster) < 2 || int(cluster) >= bound {
		return fmt.Errorf("cluster %d out of range [2, %d)", cluster, bound)
	}
	return nil
}

// AllocateFree scans clusters starting at 2 for the first slot whose value
// is free, tentatively marks it end-of-chain, and returns it. Returns
// NoSpace if none is free.
func (t *Table) AllocateFree() (layout.Cluster, error) {
	if err := t.checkLoaded(); err != nil {
		return 0, err
	}

	bound := t.clusterBound()
	for c := 2; c < bound; c++ {
		if !t.used.Get(c) {
			cluster := layout.Cluster(c)
			t.rawSet(cluster, LinkEOC)
			t.used.Set(c, true)
			return cluster, nil
		}
	}
	return 0, fserrors.NewNoSpace()
}

// Walk returns the sequence of clusters in the chain starting at head:
// head itself, then each successor while the link is in
// [LinkMinNext, LinkMaxNext]. The walk is bounded by the total cluster
// count; exceeding it means the chain loops, reported as CycleDetected.
func (t *Table) Walk(head layout.Cluster) ([]layout.Cluster, error) {
	if err := t.checkLoaded(); err != nil {
		return nil, err
	}

	maxSteps := t.clusterBound()
	chain := make([]layout.Cluster, 0, 8)
	cluster := head

	for step := 0; ; step++ {
		if step > maxSteps {
			return nil, fserrors.NewCycleDetected(uint16(head))
		}
		chain = append(chain, cluster)

		link, err := t.Get(cluster)
		if err != nil {
			return nil, err
		}
		if link < LinkMinNext || link > LinkMaxNext {
			break
		}
		cluster = layout.Cluster(link)
	}
	return chain, nil
}

// FreeChain walks the chain starting at head and sets every link to free.
func (t *Table) FreeChain(head layout.Cluster) error {
	chain, err := t.Walk(head)
	if err != nil {
		return err
	}
	for _, c := range chain {
		if err := t.Set(c, LinkFree); err != nil {
			return err
		}
	}
	return nil
}

// LinkNext sets cluster's link to point at next and marks next as the new
// end of chain. Used by the file writer when extending a chain.
func (t *Table) LinkNext(cluster, next layout.Cluster) error {
	if err := t.Set(cluster, uint16(next)); err != nil {
		return err
	}
	return t.Set(next, LinkEOC)
}

// Flush writes the in-memory FAT to every FAT copy on the image. Every copy
// is attempted even if an earlier one fails, and all failures are reported
// together so the caller learns about every divergent copy instead of just
// the first.
func (t *Table) Flush() error {
	if err := t.checkLoaded(); err != nil {
		return err
	}

	var result *multierror.Error
	for i := 0; i < int(t.vol.Boot.NumFATs); i++ {
		if err := t.img.WriteAt(t.vol.FATCopyOffset(i), t.buf); err != nil {
			result = multierror.Append(result, fmt.Errorf("FAT copy %d: %w", i, err))
		}
	}
	return result.ErrorOrNil()
}

// FreeClusterCount returns the number of clusters currently marked free,
// used by the no-leak invariant checks and by diagnostics.
func (t *Table) FreeClusterCount() int {
	bound := t.clusterBound()
	free := 0
	for c := 2; c < bound; c++ {
		if !t.used.Get(c) {
			free++
		}
	}
	return free
}
