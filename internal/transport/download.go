package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/dockerhttp/internal/service"
)

// progressReader reports the running byte count after every read.
type progressReader struct {
	r     io.Reader
	total int64
	n     int64
	fn    func(n, total int64)
}

func newProgressReader(r io.Reader, total int64, fn func(n, total int64)) *progressReader {
	if total <= 0 {
		total = -1
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.n += int64(n)
		p.fn(p.n, p.total)
	}
	return n, err
}

var tempMu sync.Mutex

// saveDownload stages body in a temporary file and moves it to the path dest
// picks for raw. It returns the final path and the number of bytes written.
func (c *Client) saveDownload(body io.Reader, raw *http.Response, dest service.Destination) (string, int64, error) {
	if dest == nil {
		return "", 0, errors.New("download has no destination")
	}

	dir := c.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	staged := filepath.Join(dir, "dockerhttp-"+uuid.NewString()+".download")

	f, err := os.OpenFile(staged, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create staging file: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staged)
		return "", n, err
	}

	path, opts := dest(raw)
	if err := moveDownload(staged, path, opts); err != nil {
		os.Remove(staged)
		return "", n, err
	}
	return path, n, nil
}

func moveDownload(from, to string, opts service.DownloadOptions) error {
	tempMu.Lock()
	defer tempMu.Unlock()

	if err := opts.PrepareDestination(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err == nil {
		return nil
	}
	// Rename fails across file systems; fall back to copying.
	return copyFile(from, to)
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(to)
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(from)
}
