package fattable_test

import (
	"encoding/binary"
	"testing"

	"github.com/dargueta/fat16vol/fattable"
	"github.com/dargueta/fat16vol/image"
	"github.com/dargueta/fat16vol/layout"
	fserrors "github.com/dargueta/fat16vol/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// buildVolume creates a minimal two-FAT volume backed by an in-memory image,
// large enough for a handful of test clusters.
func buildVolume(t *testing.T) (*image.Image, *layout.Volume) {
	t.Helper()

	const sectorSize = 512
	const fatSizeSectors = 1 // 512 bytes = 256 FAT slots, plenty for tests
	const reservedSectors = 1
	const numFATs = 2
	const rootDirEntries = 16
	const sectorsPerCluster = 1
	const dataSectors = 32

	totalSectors := reservedSectors + numFATs*fatSizeSectors + (rootDirEntries*32)/sectorSize + dataSectors
	raw := make([]byte, totalSectors*sectorSize)
	raw[11], raw[12] = sectorSize&0xff, sectorSize>>8
	raw[13] = sectorsPerCluster
	raw[14], raw[15] = reservedSectors, 0
	raw[16] = numFATs
	raw[17], raw[18] = rootDirEntries, 0
	raw[22], raw[23] = fatSizeSectors, 0
	binary.LittleEndian.PutUint32(raw[32:36], uint32(totalSectors))

	boot, err := layout.ParseBoot(raw[:512])
	require.NoError(t, err)

	vol, err := layout.NewVolume(layout.Partition{StartSectorLBA: 0}, boot)
	require.NoError(t, err)

	img := image.New(bytesextra.NewReadWriteSeeker(raw))
	return img, vol
}

func TestLoadIsIdempotent(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)

	require.NoError(t, table.Load())
	require.NoError(t, table.Load())
}

func TestAllocateFreeScansFromTwo(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	c1, err := table.AllocateFree()
	require.NoError(t, err)
	assert.EqualValues(t, 2, c1)

	link, err := table.Get(c1)
	require.NoError(t, err)
	assert.Equal(t, fattable.LinkEOC, link)

	c2, err := table.AllocateFree()
	require.NoError(t, err)
	assert.EqualValues(t, 3, c2)
}

func TestWalkSingleCluster(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	c, err := table.AllocateFree()
	require.NoError(t, err)

	chain, err := table.Walk(c)
	require.NoError(t, err)
	assert.Equal(t, []layout.Cluster{c}, chain)
}

func TestWalkMultiClusterChain(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	c1, _ := table.AllocateFree()
	c2, _ := table.AllocateFree()
	c3, _ := table.AllocateFree()
	require.NoError(t, table.LinkNext(c1, c2))
	require.NoError(t, table.LinkNext(c2, c3))

	chain, err := table.Walk(c1)
	require.NoError(t, err)
	assert.Equal(t, []layout.Cluster{c1, c2, c3}, chain)
}

func TestWalkDetectsCycle(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	c1, _ := table.AllocateFree()
	c2, _ := table.AllocateFree()
	require.NoError(t, table.Set(c1, uint16(c2)))
	require.NoError(t, table.Set(c2, uint16(c1))) // loop back to c1

	_, err := table.Walk(c1)
	require.Error(t, err)
	assert.True(t, fserrors.Is(err, fserrors.KindCycleDetected))
}

func TestFreeChainMarksEveryClusterFree(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	c1, _ := table.AllocateFree()
	c2, _ := table.AllocateFree()
	require.NoError(t, table.LinkNext(c1, c2))

	require.NoError(t, table.FreeChain(c1))

	for _, c := range []layout.Cluster{c1, c2} {
		link, err := table.Get(c)
		require.NoError(t, err)
		assert.Equal(t, fattable.LinkFree, link)
	}
}

func TestFlushWritesEveryFATCopyIdentically(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	c, err := table.AllocateFree()
	require.NoError(t, err)
	require.NoError(t, table.Flush())

	copy0 := make([]byte, vol.FATBytes)
	copy1 := make([]byte, vol.FATBytes)
	require.NoError(t, img.ReadAt(vol.FATCopyOffset(0), copy0))
	require.NoError(t, img.ReadAt(vol.FATCopyOffset(1), copy1))
	assert.Equal(t, copy0, copy1, "all FAT copies must be byte-identical after a flush")

	link, err := table.Get(c)
	require.NoError(t, err)
	assert.Equal(t, fattable.LinkEOC, link)
}

func TestNoSpaceWhenFATIsFull(t *testing.T) {
	img, vol := buildVolume(t)
	table := fattable.New(img, vol)
	require.NoError(t, table.Load())

	total := int(vol.TotalClusters())
	for i := 0; i < total+1; i++ {
		if _, err := table.AllocateFree(); err != nil {
			require.True(t, fserrors.Is(err, fserrors.KindNoSpace))
			return
		}
	}
	t.Fatal("expected NoSpace before exhausting all clusters in a tiny volume")
}
