// Package finalizer lets handlers run code once the response to the client is complete.
//
// The middleware records the response as the client receives it, after every inner
// middleware had its chance to change it. Callbacks registered with OnFinish run once
// the inner handler has returned, with a context that is not canceled when the client goes away.
package finalizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	tee "github.com/always-cache/pagecache/pkg/response-writer-tee"
)

var ErrFinished = errors.New("response already finished")

// Callback receives the status and header of the response as sent to the client,
// or nil if the handler did not return normally. The body is not recorded: it is
// http.NoBody and the content length is unknown.
type Callback func(ctx context.Context, res *http.Response)

type Scope struct {
	mutex     sync.Mutex
	callbacks []Callback
	finished  bool
}

type contextKey struct{}

// FromContext returns the scope of the request, or nil if the request
// does not pass through Middleware.
func FromContext(ctx context.Context) *Scope {
	scope, _ := ctx.Value(contextKey{}).(*Scope)
	return scope
}

// OnFinish registers cb to run when the response is complete.
// It returns ErrFinished if the response was already completed.
func (s *Scope) OnFinish(cb Callback) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.finished {
		return ErrFinished
	}
	s.callbacks = append(s.callbacks, cb)
	return nil
}

// finish closes the scope and runs the callbacks in registration order.
func (s *Scope) finish(ctx context.Context, res *http.Response) {
	s.mutex.Lock()
	if s.finished {
		s.mutex.Unlock()
		return
	}
	s.finished = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mutex.Unlock()

	for _, cb := range callbacks {
		cb(ctx, res)
	}
}

// Middleware opens a finalization scope for each request.
// Requests that already have a scope are passed through as is, so the outermost
// instance is the one whose callbacks see the complete response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		scope := &Scope{}
		rec := tee.NewHeaderRecorder(w)
		r = r.WithContext(context.WithValue(r.Context(), contextKey{}, scope))

		completed := false
		defer func() {
			ctx := context.WithoutCancel(r.Context())
			if !completed {
				log.Warn().Str("url", r.URL.String()).Msg("Handler did not complete, finishing without response")
				scope.finish(ctx, nil)
				return
			}
			scope.finish(ctx, sentResponse(rec, r))
		}()
		next.ServeHTTP(rec, r)
		completed = true
	})
}

func sentResponse(rec *tee.ResponseSaver, r *http.Request) *http.Response {
	status := rec.StatusCode()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         r.Proto,
		ProtoMajor:    r.ProtoMajor,
		ProtoMinor:    r.ProtoMinor,
		Header:        rec.SentHeader(),
		Body:          http.NoBody,
		ContentLength: -1,
		Request:       r,
	}
}
