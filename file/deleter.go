package file

import (
	"github.com/dargueta/fat16vol/directory"
	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/dargueta/fat16vol/fattable"
	"github.com/dargueta/fat16vol/layout"
)

// Delete locates name in loc, frees its cluster chain, and tombstones its
// directory entry. It fails with NotFound if no live entry matches and
// NotAFile if the match is a directory or volume label.
func Delete(fat *fattable.Table, mgr *directory.Manager, loc directory.Location, name string) error {
	slot, ok, err := mgr.Find(loc, name, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fserrors.NewNotFound(name)
	}
	if !isFile(slot.Entry) {
		return fserrors.NewNotAFile(name)
	}

	if err := fat.Load(); err != nil {
		return err
	}

	if slot.Entry.StartingCluster != 0 {
		if err := fat.FreeChain(layout.Cluster(slot.Entry.StartingCluster)); err != nil {
			return err
		}
	}

	if err := mgr.Tombstone(slot.Offset); err != nil {
		return err
	}
	return fat.Flush()
}
