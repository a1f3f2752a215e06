package staleserve

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/staleserve/staleserve/store"
)

// recorder is a http.ResponseWriter that buffers the response
// produced by the wrapped handler so it can be written to the store
// after the exchange completes.
// If the underlying writer is nil, the response is only recorded;
// this is used for background revalidation.
type recorder struct {
	rw          http.ResponseWriter
	buf         bytes.Buffer
	header      http.Header
	status      int
	wroteHeader bool
	// beforeHeader, if set, runs with the status code right before
	// the headers go out, while they can still be modified.
	beforeHeader func(status int)
}

func newRecorder(w http.ResponseWriter) *recorder {
	rec := &recorder{rw: w}
	if w == nil {
		rec.header = make(http.Header)
	} else {
		rec.header = w.Header()
	}
	return rec
}

func (rec *recorder) Header() http.Header {
	return rec.header
}

func (rec *recorder) WriteHeader(statusCode int) {
	if rec.wroteHeader {
		return
	}
	rec.wroteHeader = true
	rec.status = statusCode
	if rec.beforeHeader != nil {
		rec.beforeHeader(statusCode)
	}
	if rec.rw != nil {
		rec.rw.WriteHeader(statusCode)
	}
}

func (rec *recorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	if rec.rw != nil {
		rec.rw.Write(b)
	}
	return rec.buf.Write(b)
}

// StatusCode returns the recorded status code.
func (rec *recorder) StatusCode() int {
	if !rec.wroteHeader {
		return http.StatusOK
	}
	return rec.status
}

// Entry converts the recorded response into a cache entry created at
// the given instant.
func (rec *recorder) Entry(now time.Time) store.Entry {
	contentType := rec.header.Get("Content-Type")
	return store.Entry{
		Body:        rec.buf.Bytes(),
		Timestamp:   now,
		ContentType: contentType,
		Binary:      isBinary(contentType),
	}
}

// isBinary reports whether a content type holds binary data rather
// than text. Unknown types are considered binary.
func isBinary(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mediaType, "text/") {
		return false
	}
	switch mediaType {
	case "application/json", "application/javascript", "application/xml", "image/svg+xml":
		return false
	}
	return true
}
