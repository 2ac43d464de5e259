package rfc9211

import (
	"strconv"
	"strings"
)

// CacheName is the cache identifier used in Cache-Status field values.
const CacheName = "PageCache"

type Status string

const (
	StatusHit Status = "hit"
	StatusFwd Status = "fwd"
)

type FwdReason string

const (
	// The cache was configured to not handle this request.
	FwdReasonBypass FwdReason = "bypass"

	// The request method's semantics require the request to be
	// forwarded.
	FwdReasonMethod FwdReason = "method"

	// The cache did not contain any responses that matched the
	// request URI.
	FwdReasonUriMiss FwdReason = "uri-miss"

	// The cache contained a response that matched the request
	// URI, but it could not select a response based upon this request's
	// header fields and stored Vary header fields.
	FwdReasonVaryMiss FwdReason = "vary-miss"

	// The cache did not contain any responses that could be used to
	// satisfy this request (to be used when an implementation cannot
	// distinguish between uri-miss and vary-miss).
	FwdReasonMiss FwdReason = "miss"

	// The cache was able to select a fresh response for the
	// request, but the request's semantics (e.g., Cache-Control request
	// directives) did not allow its use.
	FwdReasonRequest FwdReason = "request"

	// The cache was able to select a response for the request, but
	// it was stale.
	FwdReasonStale FwdReason = "stale"
)

// CacheStatus is one member of the Cache-Status field.
type CacheStatus struct {
	Status    Status
	FwdReason FwdReason
	// Status code of the response the forward produced, zero if not known.
	FwdStatus int
	// Whether the response was stored.
	Stored bool
	// Remaining freshness in seconds, only meaningful if HasTTL.
	TimeToLive int
	HasTTL     bool
	Detail     string
}

func (cs *CacheStatus) Hit() {
	cs.Status = StatusHit
	cs.FwdReason = ""
}

func (cs *CacheStatus) Forward(reason FwdReason) {
	cs.Status = StatusFwd
	cs.FwdReason = reason
}

func (cs *CacheStatus) TTL(seconds int) {
	cs.TimeToLive = seconds
	cs.HasTTL = true
}

// IsHit reports whether the response was served from the cache.
func (cs CacheStatus) IsHit() bool {
	return cs.Status == StatusHit
}

// String returns the Cache-Status field member, e.g. `PageCache; fwd=uri-miss; stored`.
func (cs CacheStatus) String() string {
	b := strings.Builder{}
	b.WriteString(CacheName)
	switch {
	case cs.Status == StatusHit:
		b.WriteString("; hit")
	case cs.FwdReason != "":
		b.WriteString("; fwd=" + string(cs.FwdReason))
	}
	if cs.FwdStatus != 0 {
		b.WriteString("; fwd-status=" + strconv.Itoa(cs.FwdStatus))
	}
	if cs.HasTTL {
		b.WriteString("; ttl=" + strconv.Itoa(cs.TimeToLive))
	}
	if cs.Stored {
		b.WriteString("; stored")
	}
	if cs.Detail != "" {
		b.WriteString("; detail=" + cs.Detail)
	}
	return b.String()
}
