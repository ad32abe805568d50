package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"path"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/manifest"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/transport"
)

const (
	// ImageBufferSize is the chunk size used for image downloads.
	ImageBufferSize = 2 * 1024
)

// ErrWriteFailed is returned when the storage writer rejects a chunk.
var ErrWriteFailed = errors.New("storage write failed")

// DigestMismatchError is returned when the downloaded image does not hash to
// the digest announced by the manifest.
type DigestMismatchError struct {
	Expected string
	Actual   string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("digest mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Result describes a completed and verified download.
type Result struct {
	Digest string
	// Size is the number of bytes hashed, BytesWritten the number handed to storage.
	Size         int64
	BytesWritten int64
	Duration     time.Duration
}

// Downloader fetches firmware images and verifies them while they stream.
type Downloader struct {
	transport transport.Transport
	basePath  string
}

func New(t transport.Transport, basePath string) *Downloader {
	return &Downloader{
		transport: t,
		basePath:  basePath,
	}
}

// Path returns the request path of the image described by rec.
func (d *Downloader) Path(rec manifest.Record) string {
	return path.Join("/", d.basePath, rec.FileName)
}

// Download streams the image described by rec into w and checks its digest.
// A nil w is a dry run that only computes the digest. The bytes already
// handed to w are not rolled back on failure; the caller owns that decision.
func (d *Downloader) Download(ctx context.Context, rec manifest.Record, w io.Writer) (Result, error) {
	s := newSession(w)
	defer s.close()

	req := transport.NewGetRequest(d.Path(rec), s.consume)
	req.BufferSize = ImageBufferSize

	start := time.Now()
	status, err := d.transport.Perform(ctx, req)
	log.Infof("status=%d", status)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", rec.FileName, err)
	}
	if status != http.StatusOK {
		log.Warnf("error response code=%d", status)
		return Result{}, &transport.RequestFailedError{Status: status}
	}

	actual := s.digest()
	log.Infof("file %s downloaded (%d bytes), sha256=%s", rec.FileName, s.size, actual)
	if actual != rec.Digest {
		log.Errorf("invalid sha256 (expected: %s)", rec.Digest)
		return Result{}, &DigestMismatchError{Expected: rec.Digest, Actual: actual}
	}

	return Result{
		Digest:       actual,
		Size:         s.size,
		BytesWritten: s.written,
		Duration:     time.Since(start),
	}, nil
}

// session is the per-attempt download state.
type session struct {
	hash    hash.Hash
	out     io.Writer
	size    int64
	written int64
}

func newSession(out io.Writer) *session {
	return &session{
		hash: sha256.New(),
		out:  out,
	}
}

func (s *session) consume(chunk []byte) error {
	_, _ = s.hash.Write(chunk)
	s.size += int64(len(chunk))
	if s.out == nil {
		return nil
	}

	n, err := s.out.Write(chunk)
	s.written += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n != len(chunk) {
		return fmt.Errorf("%w: %w", ErrWriteFailed, io.ErrShortWrite)
	}
	return nil
}

func (s *session) digest() string {
	return hex.EncodeToString(s.hash.Sum(nil))
}

func (s *session) close() {
	s.hash.Reset()
	s.out = nil
}
