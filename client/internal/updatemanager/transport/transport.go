package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	// DefaultBufferSize is the read size used when a request does not set one.
	DefaultBufferSize = 1024
)

// ErrChunkRejected wraps the error returned by a Request.OnChunk callback.
var ErrChunkRejected = errors.New("chunk rejected")

// RequestFailedError is returned by callers when the server answered with a
// status other than 200.
type RequestFailedError struct {
	Status int
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsRequestFailed reports whether err is a RequestFailedError and returns its status.
func IsRequestFailed(err error) (int, bool) {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status, true
	}
	return 0, false
}

// ChunkFunc receives the response body piece by piece. The slice is only
// valid for the duration of the call. Returning an error aborts the transfer.
type ChunkFunc func(chunk []byte) error

// Request describes a single read-only request against the distribution host.
type Request struct {
	Method string
	Path   string
	Header http.Header

	// BufferSize bounds the size of each chunk passed to OnChunk.
	BufferSize int
	OnChunk    ChunkFunc
}

// NewGetRequest builds a GET request for path that will not reuse the connection.
func NewGetRequest(path string, onChunk ChunkFunc) *Request {
	h := make(http.Header)
	h.Set("Connection", "close")
	return &Request{
		Method:  http.MethodGet,
		Path:    path,
		Header:  h,
		OnChunk: onChunk,
	}
}

// Transport performs a request synchronously. The body is only delivered to
// OnChunk when the status is 200. Perform returns the status code, or an
// error if the request could not be completed or a chunk was rejected.
type Transport interface {
	Perform(ctx context.Context, req *Request) (int, error)
}
