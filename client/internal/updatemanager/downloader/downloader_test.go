package downloader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openairproject/oap-ota/client/internal/updatemanager/manifest"
	"github.com/openairproject/oap-ota/client/internal/updatemanager/transport"
	"github.com/openairproject/oap-ota/version"
)

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func newImageServer(t *testing.T, files map[string][]byte) *transport.HTTPTransport {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	tr, err := transport.NewHTTPTransport(srv.URL, nil)
	require.NoError(t, err)
	return tr
}

func record(file string, digest string) manifest.Record {
	return manifest.Record{
		Version:  version.MustParse("2.0.0"),
		FileName: file,
		Digest:   digest,
	}
}

type failingWriter struct {
	failAfter int
	writes    int
	buf       bytes.Buffer
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.writes >= f.failAfter {
		return 0, errors.New("flash write error")
	}
	f.writes++
	return f.buf.Write(p)
}

func TestDownload_WritesAndVerifies(t *testing.T) {
	image := bytes.Repeat([]byte("firmware!"), 1000)
	tr := newImageServer(t, map[string][]byte{"/fw/app.bin": image})

	var out bytes.Buffer
	res, err := New(tr, "/fw").Download(context.Background(), record("app.bin", sha256Hex(image)), &out)
	require.NoError(t, err)
	assert.Equal(t, image, out.Bytes())
	assert.Equal(t, sha256Hex(image), res.Digest)
	assert.Equal(t, int64(len(image)), res.Size)
	assert.Equal(t, int64(len(image)), res.BytesWritten)
}

func TestDownload_DryRun(t *testing.T) {
	image := []byte("0123456789")
	tr := newImageServer(t, map[string][]byte{"/app.bin": image})

	res, err := New(tr, "").Download(context.Background(), record("app.bin", sha256Hex(image)), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(image)), res.Size)
	assert.Zero(t, res.BytesWritten)
}

func TestDownload_DigestMismatch(t *testing.T) {
	image := []byte("0123456789")
	corrupted := append([]byte(nil), image...)
	corrupted[4] ^= 0xFF
	tr := newImageServer(t, map[string][]byte{"/fw/app.bin": corrupted})

	var out bytes.Buffer
	_, err := New(tr, "fw").Download(context.Background(), record("app.bin", sha256Hex(image)), &out)
	require.Error(t, err)

	var mismatch *DigestMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, sha256Hex(image), mismatch.Expected)
	assert.Equal(t, sha256Hex(corrupted), mismatch.Actual)
	assert.Equal(t, corrupted, out.Bytes(), "bytes are written before the digest can be checked")
}

func TestDownload_RequestFailed(t *testing.T) {
	tr := newImageServer(t, map[string][]byte{})

	var out bytes.Buffer
	_, err := New(tr, "/fw").Download(context.Background(), record("missing.bin", sha256Hex(nil)), &out)
	status, ok := transport.IsRequestFailed(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, out.Len())
}

func TestDownload_WriteFailureAbortsStream(t *testing.T) {
	image := bytes.Repeat([]byte{0x5A}, 10*ImageBufferSize)
	tr := newImageServer(t, map[string][]byte{"/app.bin": image})

	w := &failingWriter{failAfter: 2}
	_, err := New(tr, "/").Download(context.Background(), record("app.bin", sha256Hex(image)), w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, transport.ErrChunkRejected)
	assert.Equal(t, 2, w.writes)
	assert.Less(t, w.buf.Len(), len(image))
}

func TestDownload_Path(t *testing.T) {
	d := New(nil, "oap/releases")
	assert.Equal(t, "/oap/releases/app.bin", d.Path(record("app.bin", "")))
}

// sessionDigest feeds payload to a dry run session in chunks of size n.
func sessionDigest(t *testing.T, payload []byte, n int) string {
	t.Helper()
	s := newSession(nil)
	defer s.close()
	for len(payload) > 0 {
		c := min(n, len(payload))
		require.NoError(t, s.consume(payload[:c]))
		payload = payload[c:]
	}
	return s.digest()
}

func TestSessionDigest_Deterministic(t *testing.T) {
	payload := bytes.Repeat([]byte("deterministic"), 500)

	first := sessionDigest(t, payload, ImageBufferSize)
	second := sessionDigest(t, payload, 7)

	assert.Equal(t, first, second, "chunking must not change the digest")
	assert.Equal(t, sha256Hex(payload), first)
}

func TestSessionDigest_SingleByteMutation(t *testing.T) {
	payload := []byte("0123456789abcdef")
	base := sessionDigest(t, payload, len(payload))

	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i]++
		assert.NotEqual(t, base, sessionDigest(t, mutated, len(mutated)), "mutation at offset %d must change the digest", i)
	}
}
