package idempotency

import "net/http"

// HeaderPair is one response header as stored: name plus raw byte value.
// Headers are kept as an ordered slice, not a map, so that a replayed
// response reproduces the original header order exactly.
type HeaderPair struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// Response is the portable form of an HTTP response that the store can
// persist and reconstruct byte-for-byte.
type Response struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// SeeOther builds the redirect response the publish endpoint returns.
func SeeOther(location string) *Response {
	return &Response{
		StatusCode: http.StatusSeeOther,
		Headers: []HeaderPair{
			{Name: "Location", Value: []byte(location)},
		},
	}
}

// Write replays the response onto w, applying headers in stored order.
func (r *Response) Write(w http.ResponseWriter) error {
	for _, h := range r.Headers {
		w.Header().Add(h.Name, string(h.Value))
	}
	w.WriteHeader(r.StatusCode)
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return err
		}
	}
	return nil
}
