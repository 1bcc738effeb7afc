package objectstore

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// progressReader wraps a ReadCloser with a progress bar
type progressReader struct {
	r   io.ReadCloser
	bar *progressbar.ProgressBar
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.r.Read(p)
	if pr.bar != nil {
		pr.bar.Add(n)
	}
	return n, err
}

func (pr *progressReader) Close() error {
	if pr.bar != nil {
		pr.bar.Finish()
	}
	return pr.r.Close()
}

// readerSize returns the bytes left in a seekable reader, or -1 when unknown
func readerSize(reader io.Reader) int64 {
	seeker, ok := reader.(io.Seeker)
	if !ok {
		return -1
	}
	current, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err := seeker.Seek(current, io.SeekStart); err != nil {
		return -1
	}
	return end - current
}
