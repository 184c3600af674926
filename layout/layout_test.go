package layout_test

import (
	"testing"

	"github.com/dargueta/fat16vol/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBootSectorBytes(t *testing.T) []byte {
	t.Helper()
	sector := make([]byte, 512)
	sector[510] = 0x55
	sector[511] = 0xAA

	copy(sector[3:11], []byte("MSDOS5.0"))
	put16 := func(off int, v uint16) { sector[off], sector[off+1] = byte(v), byte(v>>8) }
	put32 := func(off int, v uint32) {
		sector[off] = byte(v)
		sector[off+1] = byte(v >> 8)
		sector[off+2] = byte(v >> 16)
		sector[off+3] = byte(v >> 24)
	}
	put16(11, 512)             // sector size
	sector[13] = 4              // sectors per cluster
	put16(14, 1)                // reserved sectors
	sector[16] = 2               // number of FATs
	put16(17, 512)              // root dir entries
	put16(19, 0)                // total sectors short (use long instead)
	sector[21] = 0xF8            // media descriptor
	put16(22, 32)               // FAT size sectors
	put16(24, 18)               // sectors per track
	put16(26, 2)                // heads
	put32(28, 0)                 // hidden sectors
	put32(32, 1474560/512)        // total sectors long
	sector[36] = 0x80
	sector[38] = 0x29
	put32(39, 0x12345678)
	copy(sector[43:54], []byte("NO NAME    "))
	copy(sector[54:62], []byte("FAT16   "))
	return sector
}

func TestParseBootRoundTrip(t *testing.T) {
	sector := buildBootSectorBytes(t)

	bs, err := layout.ParseBoot(sector)
	require.NoError(t, err)

	assert.Equal(t, sector, bs.Encode(), "re-encoding a parsed boot sector must be byte-identical")
}

func TestParseBootRejectsBadSectorSize(t *testing.T) {
	sector := buildBootSectorBytes(t)
	sector[11], sector[12] = 0, 0 // sector size of 0

	_, err := layout.ParseBoot(sector)
	require.Error(t, err)
}

func TestParseBootRejectsZeroSectorsPerCluster(t *testing.T) {
	sector := buildBootSectorBytes(t)
	sector[13] = 0

	_, err := layout.ParseBoot(sector)
	require.Error(t, err)
}

func TestParseBootAcceptsGeometryMatchingMediaDescriptor(t *testing.T) {
	sector := buildBootSectorBytes(t)
	// 0xF0 implies 18 sectors/track and 2 heads, which is exactly what
	// buildBootSectorBytes already declares.
	sector[21] = 0xF0

	_, err := layout.ParseBoot(sector)
	require.NoError(t, err)
}

func TestParseBootRejectsGeometryMismatchingMediaDescriptor(t *testing.T) {
	sector := buildBootSectorBytes(t)
	sector[21] = 0xF0    // implies 18 sectors/track, 2 heads
	sector[26], sector[27] = 1, 0 // but declare 1 head instead

	_, err := layout.ParseBoot(sector)
	require.Error(t, err)
}

func TestParseBootSkipsGeometryCheckForFixedDiskDescriptor(t *testing.T) {
	// 0xF8 (fixed disk) has no meaningful sectors-per-track/heads in the
	// catalog, so any declared geometry is accepted.
	sector := buildBootSectorBytes(t)
	sector[21] = 0xF8
	sector[24], sector[25] = 63, 0
	sector[26], sector[27] = 16, 0

	_, err := layout.ParseBoot(sector)
	require.NoError(t, err)
}

func TestParseMBRRoundTrip(t *testing.T) {
	sector := make([]byte, 512)
	sector[0x1BE] = 0x80
	sector[0x1BE+4] = 0x06
	sector[0x1BE+8] = 1 // start sector LBA = 1

	partitions, err := layout.ParseMBR(sector)
	require.NoError(t, err)
	assert.EqualValues(t, 1, partitions[0].StartSectorLBA)
	assert.EqualValues(t, 0x06, partitions[0].PartitionType)

	out := make([]byte, 512)
	layout.EncodeMBR(out, partitions)
	assert.Equal(t, sector[layout.PartitionTableOffset:], out[layout.PartitionTableOffset:])
}

func TestClusterOffsetScenario(t *testing.T) {
	// With sector_size=512, sectors_per_cluster=4, reserved_sectors=1,
	// num_fats=2, fat_size_sectors=32, root_dir_entries=512, and partition
	// start 0, cluster 2 lands at byte (1 + 64 + 32) * 512 = 49664.
	sector := buildBootSectorBytes(t)
	bs, err := layout.ParseBoot(sector)
	require.NoError(t, err)

	vol, err := layout.NewVolume(layout.Partition{StartSectorLBA: 0}, bs)
	require.NoError(t, err)

	assert.EqualValues(t, 49664, vol.ClusterOffset(2))
	assert.EqualValues(t, vol.ClusterOffset(3)-vol.ClusterOffset(2), vol.BytesPerCluster())
}

func TestDescribeMediaKnown(t *testing.T) {
	g, ok := layout.DescribeMedia(0xF0)
	require.True(t, ok)
	assert.Equal(t, uint(18), g.SectorsPerTrack)
}

func TestDescribeMediaUnknown(t *testing.T) {
	_, ok := layout.DescribeMedia(0x01)
	assert.False(t, ok)
}
