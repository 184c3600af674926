package layout

import "fmt"

// Cluster is a FAT16 cluster number. Valid data clusters start at 2, per the
// FAT convention; 0 is repurposed by the directory layer to mean "root".
type Cluster uint16

// Volume bundles a partition's starting sector with its decoded boot sector
// and exposes the derived byte offsets every higher layer needs: the FAT
// region, the root directory region, and the data region, plus the
// per-cluster byte offset formula.
type Volume struct {
	Partition       Partition
	Boot            *BootSector
	FATBytes        int64 // size in bytes of a single FAT copy
	dataStartSector int64
}

// NewVolume validates a partition/boot-sector pair and precomputes the
// sector offset of the data region, from which every cluster offset derives.
func NewVolume(partition Partition, boot *BootSector) (*Volume, error) {
	if boot.NumFATs == 0 {
		return nil, fmt.Errorf("number of FATs must be at least 1, got %d", boot.NumFATs)
	}

	v := &Volume{
		Partition: partition,
		Boot:      boot,
		FATBytes:  int64(boot.FATSizeSectors) * int64(boot.SectorSize),
	}

	rootDirSectors := int64(boot.RootDirEntries)*32 + int64(boot.SectorSize) - 1
	rootDirSectors /= int64(boot.SectorSize)

	v.dataStartSector = int64(partition.StartSectorLBA) +
		int64(boot.ReservedSectors) +
		int64(boot.NumFATs)*int64(boot.FATSizeSectors) +
		rootDirSectors

	return v, nil
}

// SectorSize returns the volume's sector size in bytes.
func (v *Volume) SectorSize() int64 { return int64(v.Boot.SectorSize) }

// BytesPerCluster returns the number of bytes in one cluster.
func (v *Volume) BytesPerCluster() int64 {
	return int64(v.Boot.SectorsPerCluster) * v.SectorSize()
}

// FATRegionOffset returns the absolute byte offset of the start of the
// primary (first) FAT copy.
func (v *Volume) FATRegionOffset() int64 {
	return (int64(v.Partition.StartSectorLBA) + int64(v.Boot.ReservedSectors)) * v.SectorSize()
}

// FATCopyOffset returns the absolute byte offset of the i'th FAT copy,
// i in [0, NumFATs).
func (v *Volume) FATCopyOffset(i int) int64 {
	return v.FATRegionOffset() + int64(i)*v.FATBytes
}

// RootDirOffset returns the absolute byte offset of the start of the fixed-
// size root directory region.
func (v *Volume) RootDirOffset() int64 {
	return v.FATRegionOffset() + int64(v.Boot.NumFATs)*v.FATBytes
}

// RootDirByteLength returns the size, in bytes, of the root directory
// region.
func (v *Volume) RootDirByteLength() int64 {
	return int64(v.Boot.RootDirEntries) * 32
}

// TotalClusters returns the number of addressable data clusters on the
// volume, used to bound FAT chain walks for cycle detection.
func (v *Volume) TotalClusters() int64 {
	dataSectors := int64(v.Boot.TotalSectors()) - (v.dataStartSector - int64(v.Partition.StartSectorLBA))
	if dataSectors < 0 {
		return 0
	}
	return dataSectors / int64(v.Boot.SectorsPerCluster)
}

// ClusterOffset returns the absolute byte offset of the start of cluster n.
// n must be >= 2.
func (v *Volume) ClusterOffset(n Cluster) int64 {
	return (v.dataStartSector + (int64(n)-2)*int64(v.Boot.SectorsPerCluster)) * v.SectorSize()
}

// EntriesPerCluster returns how many 32-byte directory entries fit in one
// cluster, used to bound a subdirectory scan.
func (v *Volume) EntriesPerCluster() int {
	return int(v.BytesPerCluster() / 32)
}
