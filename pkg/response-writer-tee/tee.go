package tee

import (
	"bytes"
	"net/http"
)

// ResponseSaver is a wrapper around http.ResponseWriter that saves the response to a buffer.
// It optionally writes the response to the underlying http.ResponseWriter.
type ResponseSaver struct {
	rw           http.ResponseWriter
	b            *bytes.Buffer // nil when only the status and header are recorded
	header       http.Header
	sentHeader   http.Header
	status       int
	wroteHeaders bool
}

// NewResponseSaver returns a new ResponseSaver.
// If w is not nil, the response will be written (tee'd) to it in addition to saving to buffer.
func NewResponseSaver(w http.ResponseWriter) *ResponseSaver {
	return &ResponseSaver{
		rw:     w,
		b:      &bytes.Buffer{},
		header: http.Header{},
	}
}

// NewHeaderRecorder returns a ResponseSaver that writes through to w and records the
// status and header only. The body is passed on without being kept.
func NewHeaderRecorder(w http.ResponseWriter) *ResponseSaver {
	return &ResponseSaver{
		rw:     w,
		header: http.Header{},
	}
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) Header() http.Header {
	return t.header
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) WriteHeader(statusCode int) {
	if t.wroteHeaders {
		return
	}
	t.wroteHeaders = true
	t.status = statusCode
	// later changes to the header map are not part of the response
	t.sentHeader = t.header.Clone()
	if t.rw != nil {
		copyHeader(t.rw.Header(), t.sentHeader)
		t.rw.WriteHeader(statusCode)
	}
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) Write(b []byte) (int, error) {
	if !t.wroteHeaders {
		t.WriteHeader(http.StatusOK)
	}
	if t.rw != nil {
		n, err := t.rw.Write(b)
		if t.b != nil {
			t.b.Write(b[:n])
		}
		return n, err
	}
	if t.b == nil {
		return len(b), nil
	}
	return t.b.Write(b)
}

// Flush sends buffered data to the client if the underlying writer supports it.
func (t *ResponseSaver) Flush() {
	if !t.wroteHeaders {
		t.WriteHeader(http.StatusOK)
	}
	if f, ok := t.rw.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying writer, for use by http.ResponseController.
func (t *ResponseSaver) Unwrap() http.ResponseWriter {
	return t.rw
}

// StatusCode returns the status code of the response.
// A response without explicit status or body is a 200 response.
func (t *ResponseSaver) StatusCode() int {
	if !t.wroteHeaders {
		return http.StatusOK
	}
	return t.status
}

// SentHeader returns the header fields as they were when the status line was written.
func (t *ResponseSaver) SentHeader() http.Header {
	if !t.wroteHeaders {
		return t.header
	}
	return t.sentHeader
}

// Body returns the recorded response body, or nil for a header recorder.
func (t *ResponseSaver) Body() []byte {
	if t.b == nil {
		return nil
	}
	return t.b.Bytes()
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		dst[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
	}
}
