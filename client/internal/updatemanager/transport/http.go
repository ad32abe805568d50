package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/util/embeddedroots"
	"github.com/openairproject/oap-ota/version"
)

const (
	userAgent = "oap-ota/%s"

	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second

	// bytes of a non-200 body read before closing, for the log line
	errorBodyLimit = 256
)

// HTTPTransport talks to the distribution host over HTTP(S).
type HTTPTransport struct {
	baseURL *url.URL
	client  *http.Client
	proxy   func(*http.Request) (*url.URL, error)
}

// NewHTTPTransport creates a transport for host, e.g. "https://ota.example.org".
// rootCAs is the trust anchor for TLS; nil selects the embedded roots.
func NewHTTPTransport(host string, rootCAs *x509.CertPool) (*HTTPTransport, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse host %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in host %q", u.Scheme, host)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host name in %q", host)
	}

	if rootCAs == nil {
		rootCAs = embeddedroots.Get()
	}

	t := &HTTPTransport{
		baseURL: u,
		proxy:   http.ProxyFromEnvironment,
	}
	tr := &http.Transport{
		Proxy: func(r *http.Request) (*url.URL, error) {
			return t.proxy(r)
		},
		DialContext: (&net.Dialer{
			Timeout: dialTimeout,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			RootCAs:    rootCAs,
			MinVersion: tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		DisableKeepAlives:     true,
	}

	t.client = &http.Client{Transport: tr}
	return t, nil
}

// LoadCertPool reads a PEM bundle to be used as trust anchor.
func LoadCertPool(pemFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(pemFile)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", pemFile)
	}
	return pool, nil
}

// Host returns the host:port of the distribution host.
func (t *HTTPTransport) Host() string {
	return hostPort(t.baseURL)
}

// DialAddress returns the host:port requests open their connection to. That
// is the proxy selected by the environment when one applies, otherwise Host.
func (t *HTTPTransport) DialAddress() string {
	req := &http.Request{Method: http.MethodGet, URL: t.baseURL, Header: http.Header{}}
	proxy, err := t.proxy(req)
	if err != nil {
		log.Warnf("invalid proxy configuration, checking %s directly: %v", t.Host(), err)
		return t.Host()
	}
	if proxy == nil {
		return t.Host()
	}
	return hostPort(proxy)
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	switch u.Scheme {
	case "https":
		return net.JoinHostPort(u.Hostname(), "443")
	case "socks5", "socks5h":
		return net.JoinHostPort(u.Hostname(), "1080")
	default:
		return net.JoinHostPort(u.Hostname(), "80")
	}
}

// Perform implements Transport.
func (t *HTTPTransport) Perform(ctx context.Context, r *Request) (int, error) {
	target := t.baseURL.JoinPath(strings.TrimPrefix(r.Path, "/"))

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, values := range r.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", fmt.Sprintf(userAgent, version.FirmwareVersion()))
	if strings.EqualFold(req.Header.Get("Connection"), "close") {
		req.Close = true
	}

	log.Debugf("%s %s", method, target.Redacted())

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		log.Debugf("unexpected HTTP status %d for %s: %q", resp.StatusCode, target.Redacted(), snippet)
		return resp.StatusCode, nil
	}

	if err := stream(resp.Body, r.BufferSize, r.OnChunk); err != nil {
		return resp.StatusCode, err
	}

	return resp.StatusCode, nil
}

// stream reads body in chunks of at most size bytes and hands them to onChunk.
func stream(body io.Reader, size int, onChunk ChunkFunc) error {
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, size)

	for {
		n, err := body.Read(buf)
		if n > 0 && onChunk != nil {
			if cbErr := onChunk(buf[:n]); cbErr != nil {
				return fmt.Errorf("%w: %w", ErrChunkRejected, cbErr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
	}
}
