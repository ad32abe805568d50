package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/transport"
)

const (
	// IndexFile is the manifest name below the base path.
	IndexFile = "index.txt"

	maxLineLength = 4096
)

// ErrEmptyResponse is returned when the manifest body holds no line at all.
var ErrEmptyResponse = errors.New("empty manifest response")

// Fetcher retrieves the latest manifest record from the distribution host.
type Fetcher struct {
	transport transport.Transport
	basePath  string
}

func NewFetcher(t transport.Transport, basePath string) *Fetcher {
	return &Fetcher{
		transport: t,
		basePath:  basePath,
	}
}

// Path returns the request path of the manifest.
func (f *Fetcher) Path() string {
	return path.Join("/", f.basePath, IndexFile)
}

// Fetch requests the manifest and returns the first well-formed record.
func (f *Fetcher) Fetch(ctx context.Context) (Record, error) {
	scanner := &lineScanner{}

	status, err := f.transport.Perform(ctx, transport.NewGetRequest(f.Path(), scanner.feed))
	if err != nil {
		return Record{}, fmt.Errorf("fetch manifest: %w", err)
	}
	if status != http.StatusOK {
		log.Warnf("error response code=%d", status)
		return Record{}, &transport.RequestFailedError{Status: status}
	}

	scanner.finish()

	switch {
	case scanner.found:
		log.Debugf("manifest record: %s", scanner.record)
		return scanner.record, nil
	case scanner.firstErr != nil:
		return Record{}, scanner.firstErr
	default:
		return Record{}, ErrEmptyResponse
	}
}

// lineScanner splits a chunked body into lines and parses them until one
// yields a record. Chunks after that are drained without parsing.
type lineScanner struct {
	buf      []byte
	overflow bool

	found    bool
	record   Record
	firstErr error
}

func (s *lineScanner) feed(chunk []byte) error {
	for len(chunk) > 0 && !s.found {
		idx := bytes.IndexByte(chunk, '\n')
		if idx < 0 {
			s.appendPartial(chunk)
			return nil
		}

		s.appendPartial(chunk[:idx])
		s.completeLine()
		chunk = chunk[idx+1:]
	}
	return nil
}

func (s *lineScanner) finish() {
	if !s.found {
		s.completeLine()
	}
}

func (s *lineScanner) appendPartial(p []byte) {
	if s.overflow {
		return
	}
	if len(s.buf)+len(p) > maxLineLength {
		s.overflow = true
		s.buf = s.buf[:0]
		return
	}
	s.buf = append(s.buf, p...)
}

func (s *lineScanner) completeLine() {
	defer func() {
		s.buf = s.buf[:0]
		s.overflow = false
	}()

	if s.overflow {
		s.remember(malformed(ReasonLineTooLong, "", nil))
		return
	}
	if len(bytes.Trim(s.buf, " \t\r\x00")) == 0 {
		return
	}

	rec, err := Parse(s.buf)
	if err != nil {
		s.remember(err)
		return
	}
	s.found = true
	s.record = rec
}

func (s *lineScanner) remember(err error) {
	if s.firstErr == nil {
		s.firstErr = err
	}
}
