package assets

import (
	"io"
	"io/fs"
	"sync"
	"time"
)

// Descriptor is a resolved asset. It owns the underlying stream until Close.
type Descriptor struct {
	Path        string
	ContentType string
	Length      int64     // -1 when unknown
	ModTime     time.Time // zero when unknown
	Source      string    // name of the source that matched

	file      fs.File
	closeOnce sync.Once
	closeErr  error
}

func newDescriptor(req Request, source, contentType string, length int64, modTime time.Time, f fs.File) *Descriptor {
	return &Descriptor{
		Path:        req.Path(),
		ContentType: contentType,
		Length:      length,
		ModTime:     modTime,
		Source:      source,
		file:        f,
	}
}

// Read reads from the asset stream.
func (d *Descriptor) Read(p []byte) (int, error) {
	return d.file.Read(p)
}

// Close releases the stream. Subsequent calls return the first result.
func (d *Descriptor) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.file.Close()
	})
	return d.closeErr
}

// ReadSeeker returns the stream as an io.ReadSeeker if the backing file
// supports seeking.
func (d *Descriptor) ReadSeeker() (io.ReadSeeker, bool) {
	rs, ok := d.file.(io.ReadSeeker)
	return rs, ok
}

// Compile-time interface check.
var _ io.ReadCloser = (*Descriptor)(nil)
