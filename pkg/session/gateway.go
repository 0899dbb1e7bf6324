package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultRefreshPath = "/auth/refresh"

// APIError carries the status code and the server's structured error message
// for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// Gateway wraps an HTTP client with bearer-token attachment and a one-shot
// refresh-on-401 protocol. Every other failure mode passes through untouched:
// transport errors are returned as-is and non-401 statuses are never retried.
type Gateway struct {
	baseURL string
	creds   CredentialStore

	// Client may be replaced before first use; defaults to http.DefaultClient.
	Client *http.Client
	// RefreshPath is the refresh collaborator endpoint, default /auth/refresh.
	RefreshPath string
	// OnSessionExpired is invoked after a failed refresh cycle, once the
	// credential pair has been cleared. The hosting application decides how
	// to navigate to its login entry point.
	OnSessionExpired func()
}

func NewGateway(baseURL string, creds CredentialStore) *Gateway {
	return &Gateway{
		baseURL:     strings.TrimRight(baseURL, "/"),
		creds:       creds,
		Client:      http.DefaultClient,
		RefreshPath: defaultRefreshPath,
	}
}

// Do sends the request with the stored access token attached. On a 401 it
// runs at most one refresh cycle and replays the original request with the
// new token. The attempt counter is explicit: nothing is stashed on the
// request itself, so a 401 on the replay propagates without another refresh.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		creds, err := g.creds.Load()
		if err != nil {
			return nil, fmt.Errorf("session: loading credentials: %w", err)
		}

		attached := creds.AccessToken != ""
		if attached {
			req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		}

		resp, err := g.Client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized || attempt > 0 {
			return resp, nil
		}

		// A 401 without a token attached is not an expired session, it is
		// the caller hitting a protected endpoint while logged out.
		if !attached {
			return resp, nil
		}

		if creds.RefreshToken == "" {
			g.expire()
			return resp, nil
		}

		newAccess, refreshErr := g.refresh(req.Context(), creds.RefreshToken)
		if refreshErr != nil {
			g.expire()
			return resp, nil
		}
		if err := g.creds.Save(Credentials{AccessToken: newAccess, RefreshToken: creds.RefreshToken}); err != nil {
			return resp, nil
		}

		replay, ok := rewind(req)
		if !ok {
			return resp, nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		req = replay
	}
}

// rewind clones the request with a fresh body for the retry. Requests whose
// body cannot be replayed (streaming, no GetBody) keep their original 401.
func rewind(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

// refresh exchanges the refresh token for a new access token. The refresh
// call itself bypasses Do: it must never recurse into the retry protocol.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.RefreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "empty access token"}
	}
	return body.AccessToken, nil
}

func (g *Gateway) expire() {
	_ = g.creds.Clear()
	if g.OnSessionExpired != nil {
		g.OnSessionExpired()
	}
}

// GetJSON issues an authenticated GET and decodes the 2xx response into out.
func (g *Gateway) GetJSON(ctx context.Context, path string, out any) error {
	return g.doJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON issues an authenticated POST with a JSON body and decodes the 2xx
// response into out. Both in and out may be nil.
func (g *Gateway) PostJSON(ctx context.Context, path string, in, out any) error {
	return g.doJSON(ctx, http.MethodPost, path, in, out)
}

// PatchJSON issues an authenticated PATCH with a JSON body.
func (g *Gateway) PatchJSON(ctx context.Context, path string, in, out any) error {
	return g.doJSON(ctx, http.MethodPatch, path, in, out)
}

func (g *Gateway) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readErrorMessage extracts the server's {"error": "..."} envelope, returning
// an empty string when the body is not structured that way.
func readErrorMessage(r io.Reader) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return ""
	}
	return envelope.Error
}
