package oauth

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that attaches a bearer token from the
// wrapped TokenSource and retries once with a forced refresh on 401.
type Transport struct {
	Source TokenSource
	Base   http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	authed := cloneRequest(req)
	authed.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := t.base().RoundTrip(authed)
	if err != nil {
		return nil, err
	}

	// The stored token may have been revoked out from under us; refresh
	// once and retry before giving up.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		token, err = t.Source.ForceRefresh(req.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token after 401: %w", err)
		}

		retry := cloneRequest(req)
		retry.Header.Set("Authorization", "Bearer "+token.AccessToken)
		return t.base().RoundTrip(retry)
	}

	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// cloneRequest returns a shallow copy of the request with a deep copy of
// its headers, so retries never mutate the caller's request.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}

// NewHTTPClient returns an *http.Client whose requests carry tokens from
// the given source.
func NewHTTPClient(source TokenSource) *http.Client {
	return &http.Client{Transport: &Transport{Source: source}}
}
