package layout

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// MediaGeometry describes the nominal geometry a FAT16 media descriptor byte
// has historically identified. ParseBoot checks a boot sector against it:
// when the descriptor is in the catalog with non-zero sectors-per-track and
// heads, a declared geometry that differs is rejected with InvalidLayout.
type MediaGeometry struct {
	MediaDescriptor string `csv:"media_descriptor"`
	Name            string `csv:"name"`
	FormFactor      string `csv:"form_factor"`
	SectorsPerTrack uint   `csv:"sectors_per_track"`
	Heads           uint   `csv:"heads"`
	Tracks          uint   `csv:"tracks"`
}

//go:embed media-geometries.csv
var mediaGeometriesRawCSV string

var mediaGeometries map[string]MediaGeometry

func init() {
	mediaGeometries = make(map[string]MediaGeometry)

	reader := strings.NewReader(mediaGeometriesRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row MediaGeometry) error {
		if _, exists := mediaGeometries[row.MediaDescriptor]; exists {
			return fmt.Errorf("duplicate media descriptor %q in catalog", row.MediaDescriptor)
		}
		mediaGeometries[row.MediaDescriptor] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// DescribeMedia looks up the canonical geometry for a media descriptor byte
// such as 0xF0 or 0xF8. The second return value is false if the byte isn't
// in the catalog, which is not itself an error: plenty of valid images use
// descriptor bytes outside the historical floppy/fixed-disk set.
func DescribeMedia(descriptor byte) (MediaGeometry, bool) {
	g, ok := mediaGeometries[fmt.Sprintf("0x%02X", descriptor)]
	return g, ok
}
