package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/version"
)

const (
	fieldSeparator = '|'

	// DigestSize is the size of a SHA-256 digest in bytes.
	DigestSize = 32
)

var (
	// ErrEmptyManifest is returned for a zero-length manifest line.
	ErrEmptyManifest = errors.New("empty manifest")
	// ErrMalformedManifest is returned when a line does not hold a valid
	// VERSION|FILENAME|HEXDIGEST record. The concrete error is a *ParseError.
	ErrMalformedManifest = errors.New("malformed manifest")
)

// Reason tells which part of a manifest line was rejected.
type Reason string

const (
	ReasonNoVersion      Reason = "no version"
	ReasonNoFile         Reason = "no file"
	ReasonNoDigest       Reason = "no digest"
	ReasonInvalidVersion Reason = "invalid version"
	ReasonInvalidDigest  Reason = "invalid digest"
	ReasonLineTooLong    Reason = "line too long"
)

// ParseError carries the detailed rejection reason. It matches
// ErrMalformedManifest with errors.Is.
type ParseError struct {
	Reason Reason
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrMalformedManifest, describe(e.Reason, e.Value))
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedManifest
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Record is one parsed manifest entry.
type Record struct {
	Version  version.Version
	FileName string
	// Digest is the lowercase hex encoded SHA-256 of the image.
	Digest string
}

func (r Record) String() string {
	return fmt.Sprintf("%s|%s|%s", r.Version, r.FileName, r.Digest)
}

// Parse parses a single manifest line of the form VERSION|FILENAME|HEXDIGEST.
// The digest ends at the first '|', NUL or whitespace control character, or
// at the end of the buffer; anything after it is ignored.
func Parse(line []byte) (Record, error) {
	if len(line) == 0 {
		return Record{}, ErrEmptyManifest
	}

	fields := scanFields(line)
	switch {
	case len(fields) < 1:
		return Record{}, malformed(ReasonNoVersion, "", nil)
	case len(fields) < 2:
		return Record{}, malformed(ReasonNoFile, "", nil)
	case len(fields) < 3:
		return Record{}, malformed(ReasonNoDigest, "", nil)
	}

	ver, err := version.Parse(fields[0])
	if err != nil {
		return Record{}, malformed(ReasonInvalidVersion, fields[0], err)
	}
	if !isDigest(fields[2]) {
		return Record{}, malformed(ReasonInvalidDigest, fields[2], nil)
	}

	return Record{
		Version:  ver,
		FileName: fields[1],
		Digest:   fields[2],
	}, nil
}

// scanFields extracts up to three non-empty fields, left to right. Scanning
// stops at the first empty field.
func scanFields(line []byte) []string {
	fields := make([]string, 0, 3)
	start := 0
	for i := 0; i <= len(line); i++ {
		end := i == len(line) || isLineEnd(line[i])
		if !end && line[i] != fieldSeparator {
			continue
		}

		if i == start {
			return fields
		}
		fields = append(fields, string(line[start:i]))
		if end || len(fields) == 3 {
			return fields
		}
		start = i + 1
	}
	return fields
}

func isLineEnd(c byte) bool {
	return c == 0 || c == '\n' || c == '\r' || c == '\t'
}

func isDigest(s string) bool {
	if len(s) != hex.EncodedLen(DigestSize) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func malformed(reason Reason, value string, err error) *ParseError {
	pe := &ParseError{Reason: reason, Value: value, Err: err}
	log.Warnf("malformed manifest (%s)", describe(reason, value))
	return pe
}

func describe(reason Reason, value string) string {
	if value == "" {
		return string(reason)
	}
	return fmt.Sprintf("%s: '%s'", reason, value)
}
