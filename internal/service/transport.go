package service

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// Transport executes HTTP requests on behalf of the Manager. Every method
// returns a Task that has not started yet; nothing is sent until Resume.
type Transport interface {
	// DefaultHeaders returns a copy of the headers sent with every request.
	DefaultHeaders() http.Header
	Data(req *http.Request) Task
	UploadFile(req *http.Request, path string) Task
	// UploadData sends data as the request body. The content type is taken
	// from req's headers.
	UploadData(req *http.Request, data []byte) Task
	Download(req *http.Request, dest Destination) Task
}

// Task is one in-flight transport operation.
//
// OnProgress and OnComplete must be registered before Resume. The completion
// handler runs exactly once, after the last progress callback.
type Task interface {
	OnProgress(fn ProgressFunc)
	OnComplete(fn func(Outcome))
	Resume()
	Suspend()
	Cancel()
}

// Outcome is the raw result of a Task. Any field may be missing.
type Outcome struct {
	Response *http.Response
	Request  *http.Request
	Data     []byte
	// Location is the file a download was written to.
	Location string
	Err      error
}

// hasBody reports whether the outcome carries response bytes, either in
// memory or on disk.
func (o Outcome) hasBody() bool {
	return len(o.Data) > 0 || o.Location != ""
}

// Progress is a byte count report. Total is -1 when unknown.
type Progress struct {
	Completed int64
	Total     int64
}

// Fraction returns the completed share in [0,1], or 0 when Total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Completed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressFunc receives progress reports.
type ProgressFunc func(Progress)

// DownloadOptions control how a download is moved to its destination.
type DownloadOptions struct {
	RemovePreviousFile            bool
	CreateIntermediateDirectories bool
}

// PrepareDestination readies path to receive a download: it creates the
// parent directories and removes a previous file when the options ask for
// it, and fails when a file is already there otherwise.
func (o DownloadOptions) PrepareDestination(path string) error {
	if o.CreateIntermediateDirectories {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create destination directory: %w", err)
		}
	}
	if o.RemovePreviousFile {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove previous file: %w", err)
		}
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("destination %s already exists", path)
	}
	return nil
}

// Destination picks the file a download is saved to, given the response
// headers.
type Destination func(resp *http.Response) (string, DownloadOptions)

// DestinationAt always saves to path.
func DestinationAt(path string, opts DownloadOptions) Destination {
	return func(*http.Response) (string, DownloadOptions) {
		return path, opts
	}
}

// DestinationIn saves into dir, named after the last segment of the
// requested URL.
func DestinationIn(dir string, opts DownloadOptions) Destination {
	return func(resp *http.Response) (string, DownloadOptions) {
		name := "download"
		if resp != nil && resp.Request != nil && resp.Request.URL != nil {
			if base := path.Base(resp.Request.URL.Path); base != "/" && base != "." {
				name = base
			}
		}
		return filepath.Join(dir, name), opts
	}
}
