package serializer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

var ErrMalformed = errors.New("malformed stored response")

const (
	storedAtHeaderName = "Pagecache-Stored-At"
	digestHeaderName   = "Pagecache-Digest"
)

// StoredResponse is a response as kept in the cache.
type StoredResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// The value of the clock at the time the response was written to the cache.
	StoredAt time.Time
}

func (s StoredResponse) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", s.StatusCode, http.StatusText(s.StatusCode)),
		StatusCode:    s.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        s.Header,
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}

// StoredResponseToBytes returns the HTTP/1.1 representation of the stored response,
// with the store time and a digest of the body included as extra header fields.
func StoredResponseToBytes(sRes StoredResponse) ([]byte, error) {
	header := sRes.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(storedAtHeaderName, strconv.FormatInt(sRes.StoredAt.Unix(), 10))
	header.Set(digestHeaderName, digest(sRes.Body))
	res := StoredResponse{
		StatusCode: sRes.StatusCode,
		Header:     header,
		Body:       sRes.Body,
	}.response(nil)

	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BytesToStoredResponse is the inverse of StoredResponseToBytes.
// Any input it cannot make sense of, including a body not matching its digest,
// results in an error wrapping ErrMalformed.
func BytesToStoredResponse(b []byte) (StoredResponse, error) {
	sRes := StoredResponse{}
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return sRes, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return sRes, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	storedAt, err := strconv.ParseInt(res.Header.Get(storedAtHeaderName), 10, 64)
	if err != nil {
		return sRes, fmt.Errorf("%w: store time: %w", ErrMalformed, err)
	}
	if d := res.Header.Get(digestHeaderName); d != digest(body) {
		return sRes, fmt.Errorf("%w: body digest %q does not match", ErrMalformed, d)
	}
	// framing is recomputed when the response is written out again
	res.Header.Del(storedAtHeaderName)
	res.Header.Del(digestHeaderName)
	res.Header.Del("Content-Length")

	sRes.StatusCode = res.StatusCode
	sRes.Header = res.Header
	sRes.Body = body
	sRes.StoredAt = time.Unix(storedAt, 0)
	return sRes, nil
}

func digest(body []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(body))
}
