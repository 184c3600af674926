// Package image provides positioned read/write access to a raw disk image,
// addressed by absolute byte offset. It's the lowest layer of the volume
// engine: every other package computes an offset and calls down to here.
package image

import (
	"fmt"
	"io"

	fserrors "github.com/dargueta/fat16vol/errors"
)

// Image is a flat, byte-addressable view of a backing device. No buffering
// is performed or assumed; every ReadAt/WriteAt goes straight to the
// underlying stream.
type Image struct {
	stream io.ReadWriteSeeker
}

// New wraps an existing read/write/seek stream, such as an *os.File or a
// bytesextra.NewReadWriteSeeker-backed in-memory buffer, as an Image.
func New(stream io.ReadWriteSeeker) *Image {
	return &Image{stream: stream}
}

// ReadAt reads exactly len(buf) bytes starting at the given absolute byte
// offset. A short read is reported as an IoError rather than returned
// silently.
func (img *Image) ReadAt(offset int64, buf []byte) error {
	if _, err := img.stream.Seek(offset, io.SeekStart); err != nil {
		return fserrors.NewIOError("seek failed: " + err.Error())
	}

	n, err := io.ReadFull(img.stream, buf)
	if err != nil {
		return fserrors.NewIOError(
			fmt.Sprintf("short read at offset %d: wanted %d, got %d", offset, len(buf), n))
	}
	return nil
}

// WriteAt writes all of data starting at the given absolute byte offset. A
// short write is reported as an IoError.
func (img *Image) WriteAt(offset int64, data []byte) error {
	if _, err := img.stream.Seek(offset, io.SeekStart); err != nil {
		return fserrors.NewIOError("seek failed: " + err.Error())
	}

	n, err := img.stream.Write(data)
	if err != nil || n != len(data) {
		return fserrors.NewIOError(
			fmt.Sprintf("short write at offset %d: wanted %d, wrote %d", offset, len(data), n))
	}
	return nil
}

// Close releases the backing stream if it supports io.Closer. It is safe to
// call on a stream that doesn't (e.g. an in-memory bytesextra buffer).
func (img *Image) Close() error {
	if closer, ok := img.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
