package analyzer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

type errorBodyKey struct{}

// errorBody holds the raw body of a failed provider response
type errorBody struct {
	mu   sync.Mutex
	data []byte
}

func (b *errorBody) set(data []byte) {
	b.mu.Lock()
	b.data = data
	b.mu.Unlock()
}

func (b *errorBody) get() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

func withErrorBody(ctx context.Context) (context.Context, *errorBody) {
	body := &errorBody{}
	return context.WithValue(ctx, errorBodyKey{}, body), body
}

// errorBodyTransport copies the body of every non-2xx response into the
// errorBody carried by the request context, so the provider's exact answer
// can be relayed after the client has decoded it.
type errorBodyTransport struct {
	next http.RoundTripper
}

func (t *errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	holder, ok := req.Context().Value(errorBodyKey{}).(*errorBody)
	if !ok {
		return resp, nil
	}

	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	holder.set(data)
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
