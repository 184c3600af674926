package file

import (
	"io"
	"os"

	"github.com/dargueta/fat16vol/directory"
	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/dargueta/fat16vol/fattable"
	"github.com/dargueta/fat16vol/image"
	"github.com/dargueta/fat16vol/layout"
)

// Write copies the contents of sourcePath into a new file named destName in
// loc. The source is opened read-only and its size read via Stat rather than
// seeking the destination image, since the source lives outside the volume
// entirely. A live entry already named destName is rejected with Exists.
//
// If the FAT runs out of space partway through, every cluster allocated for
// this write is freed again and no directory entry is published, so a failed
// write never leaks clusters or a half-filled name.
func Write(img *image.Image, vol *layout.Volume, fat *fattable.Table, mgr *directory.Manager, loc directory.Location, destName, sourcePath string) error {
	if _, ok, err := mgr.Find(loc, destName, nil); err != nil {
		return err
	} else if ok {
		return fserrors.NewExists(destName)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fserrors.NewIOError(err.Error())
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fserrors.NewIOError(err.Error())
	}
	size := info.Size()

	if err := fat.Load(); err != nil {
		return err
	}

	freeSlot, err := mgr.FindFreeSlot(loc)
	if err != nil {
		return err
	}

	chain, err := writeClusters(img, vol, fat, src, size)
	if err != nil {
		rollback(fat, chain)
		return err
	}

	var head layout.Cluster
	if len(chain) > 0 {
		head = chain[0]
	}

	base, ext := directory.Pack(destName)
	date, timeOfDay := directory.Now()
	entry := directory.Entry{
		Name:            base,
		Ext:             ext,
		Attributes:      directory.AttrArchive,
		ModifyDate:      date,
		ModifyTime:      timeOfDay,
		StartingCluster: uint16(head),
		FileSize:        uint32(size),
	}

	if err := mgr.WriteEntry(freeSlot, entry); err != nil {
		rollback(fat, chain)
		return err
	}

	if err := fat.Flush(); err != nil {
		return err
	}
	return nil
}

// writeClusters allocates and fills clusters for size bytes read from src,
// linking each to the next and terminating the last with end-of-chain. It
// returns the clusters allocated so far even on error, so the caller can
// roll them back.
func writeClusters(img *image.Image, vol *layout.Volume, fat *fattable.Table, src io.Reader, size int64) ([]layout.Cluster, error) {
	var chain []layout.Cluster
	if size == 0 {
		return chain, nil
	}

	clusterSize := vol.BytesPerCluster()
	remaining := size
	var prev layout.Cluster

	for remaining > 0 {
		cluster, err := fat.AllocateFree()
		if err != nil {
			return chain, err
		}
		chain = append(chain, cluster)

		if prev != 0 {
			if err := fat.LinkNext(prev, cluster); err != nil {
				return chain, err
			}
		}
		prev = cluster

		want := clusterSize
		if remaining < want {
			want = remaining
		}

		buf := make([]byte, clusterSize)
		n, err := io.ReadFull(src, buf[:want])
		if err != nil && err != io.ErrUnexpectedEOF {
			return chain, fserrors.NewIOError(err.Error())
		}
		if int64(n) != want {
			return chain, fserrors.NewIOError("source file shrank while being copied")
		}

		if err := img.WriteAt(vol.ClusterOffset(cluster), buf); err != nil {
			return chain, err
		}
		remaining -= want
	}

	return chain, nil
}

// rollback frees every cluster in chain, best-effort, so a write that fails
// partway through doesn't leak clusters.
func rollback(fat *fattable.Table, chain []layout.Cluster) {
	for _, cluster := range chain {
		_ = fat.Set(cluster, fattable.LinkFree)
	}
}
