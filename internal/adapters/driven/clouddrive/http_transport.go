package clouddrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
)

// Ensure HTTPTransport implements BackupTransport
var _ driven.BackupTransport = (*HTTPTransport)(nil)

// HTTPTransport is a BackupTransport talking to a cloud drive gateway
// over HTTP. The gateway exposes no structured error codes beyond HTTP
// status, so responses are translated into the failure phrases the
// error classifier matches on.
type HTTPTransport struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for the gateway at baseURL.
// token authenticates requests; empty disables the header.
func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Save stores a blob under the given name.
func (t *HTTPTransport) Save(ctx context.Context, name string, blob []byte) error {
	resp, err := t.doRequest(ctx, http.MethodPut, "/blobs/"+name, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return t.checkStatus(resp)
}

// Load retrieves the blob stored under the given name.
func (t *HTTPTransport) Load(ctx context.Context, name string) ([]byte, error) {
	resp, err := t.doRequest(ctx, http.MethodGet, "/blobs/"+name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := t.checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// Exists reports whether a blob is stored under the given name.
func (t *HTTPTransport) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := t.doRequest(ctx, http.MethodHead, "/blobs/"+name, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := t.checkStatus(resp); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the blob stored under the given name.
func (t *HTTPTransport) Delete(ctx context.Context, name string) error {
	resp, err := t.doRequest(ctx, http.MethodDelete, "/blobs/"+name, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Deleting a missing blob is not an error.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return t.checkStatus(resp)
}

// List enumerates stored blobs whose names start with prefix, newest first.
func (t *HTTPTransport) List(ctx context.Context, prefix string) ([]*domain.ArchiveInfo, error) {
	resp, err := t.doRequest(ctx, http.MethodGet, "/blobs?prefix="+url.QueryEscape(prefix), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := t.checkStatus(resp); err != nil {
		return nil, err
	}

	var archives []*domain.ArchiveInfo
	if err := json.NewDecoder(resp.Body).Decode(&archives); err != nil {
		return nil, fmt.Errorf("decode blob listing: %w", err)
	}
	return archives, nil
}

func (t *HTTPTransport) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	return t.httpClient.Do(req)
}

// checkStatus maps gateway HTTP status codes onto the failure phrases
// the classifier matches on.
func (t *HTTPTransport) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("cloud drive: not signed in (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cloud drive: blob not found (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusRequestEntityTooLarge || resp.StatusCode == http.StatusInsufficientStorage:
		return fmt.Errorf("cloud drive: storage quota exceeded (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("cloud drive: container unavailable (status %d)", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cloud drive error %d: %s", resp.StatusCode, string(body))
	}
}
