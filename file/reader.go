// Package file implements whole-file read, write, and delete against a
// directory location, driven by the directory manager and FAT table.
package file

import (
	"github.com/dargueta/fat16vol/directory"
	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/dargueta/fat16vol/fattable"
	"github.com/dargueta/fat16vol/image"
	"github.com/dargueta/fat16vol/layout"
)

// isFile rejects volume labels, subdirectories, and system entries, accepting
// anything else.
func isFile(e directory.Entry) bool {
	return !e.IsDirectory() && !e.IsVolumeLabel() && e.Attributes&directory.AttrSystem == 0
}

// Read locates name in loc, walks its cluster chain, and returns exactly
// FileSize bytes of content. It fails with NotFound if no live entry matches,
// NotAFile if the match is a directory or volume label, and TruncatedChain
// if the chain runs out of clusters before FileSize bytes are satisfied.
func Read(img *image.Image, vol *layout.Volume, fat *fattable.Table, mgr *directory.Manager, loc directory.Location, name string) ([]byte, error) {
	slot, ok, err := mgr.Find(loc, name, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fserrors.NewNotFound(name)
	}
	if !isFile(slot.Entry) {
		return nil, fserrors.NewNotAFile(name)
	}

	entry := slot.Entry
	if entry.FileSize == 0 {
		return []byte{}, nil
	}

	if err := fat.Load(); err != nil {
		return nil, err
	}

	chain, err := fat.Walk(layout.Cluster(entry.StartingCluster))
	if err != nil {
		return nil, err
	}

	clusterSize := vol.BytesPerCluster()
	out := make([]byte, 0, entry.FileSize)
	remaining := int64(entry.FileSize)

	for _, cluster := range chain {
		if remaining <= 0 {
			break
		}
		want := clusterSize
		if remaining < want {
			want = remaining
		}

		buf := make([]byte, want)
		if err := img.ReadAt(vol.ClusterOffset(cluster), buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
		remaining -= want
	}

	if remaining > 0 {
		return nil, fserrors.NewTruncatedChain(name)
	}
	return out, nil
}
