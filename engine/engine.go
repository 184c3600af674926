// Package engine implements the volume engine's command surface: opening an
// image, navigating its directory tree, and reading, writing, and deleting
// files, by composing the image, layout, fattable, directory, session, file,
// and tree packages.
package engine

import (
	"io"
	"os"
	"strings"

	"github.com/dargueta/fat16vol/directory"
	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/dargueta/fat16vol/fattable"
	"github.com/dargueta/fat16vol/file"
	"github.com/dargueta/fat16vol/image"
	"github.com/dargueta/fat16vol/layout"
	"github.com/dargueta/fat16vol/session"
	"github.com/dargueta/fat16vol/tree"
)

// Engine is the root object a caller builds once per opened image. It owns
// the image handle and must be closed when the caller is done with it.
type Engine struct {
	img     *image.Image
	vol     *layout.Volume
	fat     *fattable.Table
	dirs    *directory.Manager
	session *session.Session
}

// Open parses the MBR and the chosen partition's boot sector from stream,
// builds the volume layout, and returns a ready-to-use Engine positioned at
// the root directory. partitionIndex selects which of the four MBR entries
// describes the FAT16 volume.
func Open(stream io.ReadWriteSeeker, partitionIndex int) (*Engine, error) {
	img := image.New(stream)

	mbrSector := make([]byte, layout.PartitionTableOffset+layout.PartitionCount*layout.PartitionEntrySize)
	if err := img.ReadAt(0, mbrSector); err != nil {
		return nil, err
	}

	partitions, err := layout.ParseMBR(mbrSector)
	if err != nil {
		return nil, err
	}
	if partitionIndex < 0 || partitionIndex >= layout.PartitionCount {
		return nil, fserrors.NewInvalidLayout("partition index out of range")
	}
	partition := partitions[partitionIndex]

	bootSector := make([]byte, 512)
	if err := img.ReadAt(int64(partition.StartSectorLBA)*512, bootSector); err != nil {
		return nil, err
	}
	boot, err := layout.ParseBoot(bootSector)
	if err != nil {
		return nil, err
	}

	vol, err := layout.NewVolume(partition, boot)
	if err != nil {
		return nil, err
	}

	fat := fattable.New(img, vol)
	dirs := directory.New(img, vol, fat)

	return &Engine{
		img:     img,
		vol:     vol,
		fat:     fat,
		dirs:    dirs,
		session: session.New(session.RootToken),
	}, nil
}

// OpenFile is a convenience wrapper around Open that reads the image from a
// file on the host filesystem.
func OpenFile(path string, partitionIndex int) (*Engine, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fserrors.NewIOError(err.Error())
	}

	eng, err := Open(f, partitionIndex)
	if err != nil {
		f.Close()
		return nil, err
	}
	return eng, nil
}

// Close releases the underlying image handle.
func (e *Engine) Close() error {
	return e.img.Close()
}

// Path returns the current working directory's display path.
func (e *Engine) Path() string {
	return e.session.CurrentPath()
}

// location is the directory.Location for the session's current directory.
func (e *Engine) location() directory.Location {
	return directory.Location{Cluster: e.session.CurrentCluster()}
}

// List returns every live entry in the current directory.
func (e *Engine) List() ([]directory.Slot, error) {
	return e.dirs.List(e.location())
}

// Tree returns the recursive directory tree of the whole volume, starting at
// the root directory regardless of where the session has navigated to.
func (e *Engine) Tree() ([]tree.Node, error) {
	return tree.Walk(e.dirs, 0)
}

// Cd changes into the subdirectory named by path, a "/"-separated sequence
// of subdirectory names each resolved relative to the directory the
// previous component left us in. It fails with NotFound if any component
// doesn't match a live entry and NotADirectory if it matches a non-
// directory entry. Cd never special-cases "." or ".." components; hosts
// dispatch those to CdSelf and CdUp instead.
func (e *Engine) Cd(path string) error {
	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		if err := e.cdOneComponent(component); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cdOneComponent(name string) error {
	slot, ok, err := e.dirs.Find(e.location(), name, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fserrors.NewNotFound(name)
	}
	if !slot.Entry.IsDirectory() {
		return fserrors.NewNotADirectory(name)
	}

	e.session.Descend(directory.Format(slot.Entry), layout.Cluster(slot.Entry.StartingCluster))
	return nil
}

// CdUp moves to the parent of the current directory. It's a no-op at the
// root.
func (e *Engine) CdUp() {
	e.session.Ascend()
}

// CdSelf is a no-op: "cd ." always stays in the current directory. It exists
// so callers can dispatch "." the same way as any other path component
// without special-casing it.
func (e *Engine) CdSelf() {}

// Read returns the full contents of the named file in the current directory.
func (e *Engine) Read(name string) ([]byte, error) {
	return file.Read(e.img, e.vol, e.fat, e.dirs, e.location(), name)
}

// Write copies the contents of sourcePath on the host filesystem into a new
// file named destName in the current directory.
func (e *Engine) Write(destName, sourcePath string) error {
	return file.Write(e.img, e.vol, e.fat, e.dirs, e.location(), destName, sourcePath)
}

// Delete removes the named file from the current directory, freeing its
// cluster chain.
func (e *Engine) Delete(name string) error {
	return file.Delete(e.fat, e.dirs, e.location(), name)
}
