package ports

import "context"

type TransportResponse struct {
	Status int
	Body   []byte
}

// Transport is the raw HTTP boundary. Implementations apply the request
// timeout; a non-nil response may still carry a non-2xx status.
type Transport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (TransportResponse, error)
	Get(ctx context.Context, url string, headers map[string]string) (TransportResponse, error)
}
