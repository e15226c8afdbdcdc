// Package client implements a thin HTTP client for the voting API, used by
// the integration tests and usable as a building block for CLI tooling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/promisethread/zkvote/api"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/types"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	errCodeNot200 = "API error"

	// DefaultRetries this enables Request() to handle the situation where the server connection fails
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second
)

// HTTPclient is the voting API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// New connects to the API host, checks it is alive and returns the handle.
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c:       &http.Client{Timeout: DefaultTimeout},
		host:    hostURL,
		retries: DefaultRetries,
	}
	log.Debugw("http client created", "host", hostURL.String())
	data, status, err := c.Request(HTTPGET, nil, api.PingEndpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return c, nil
}

// SetRetries configures the number of retries for the HTTP client.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = n
}

// Request performs a `method` type raw request to the endpoint specified in
// urlPath. Method is either GET or POST. If POST, a JSON struct should be
// attached. Returns the response body, the status code and an error.
func (c *HTTPclient) Request(method string, jsonBody any, urlPath ...string) ([]byte, int, error) {
	var (
		body []byte
		err  error
	)
	if jsonBody != nil {
		body, err = json.Marshal(jsonBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}
	u, err := url.Parse(c.host.String())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse host URL: %w", err)
	}
	u.Path = path.Join(u.Path, path.Join(urlPath...))

	headers := http.Header{}
	if jsonBody != nil {
		headers.Set("Content-Type", "application/json")
		headers.Set("Accept", "application/json")
	}
	log.Debugw("http client request", "type", method, "url", u.String())

	var resp *http.Response
	for i := 1; i <= c.retries; i++ {
		// Create a fresh request each attempt
		var reqBody io.ReadCloser
		if body != nil {
			reqBody = io.NopCloser(bytes.NewReader(body))
		}
		req, err := http.NewRequest(method, u.String(), reqBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header = headers

		resp, err = c.c.Do(req)
		if err != nil {
			log.Warnw("http request failed", "error", err.Error(), "attempt", i, "retries", c.retries)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		break
	}
	if resp == nil {
		return nil, 0, fmt.Errorf("http request ultimately failed after retries")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("failed to close response body", "error", err)
		}
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// Census retrieves the published anonymity set.
func (c *HTTPclient) Census() (*api.CensusResponse, error) {
	set := &api.CensusResponse{}
	if err := c.request(HTTPGET, nil, set, api.CensusEndpoint); err != nil {
		return nil, err
	}
	return set, nil
}

// CensusRoot retrieves the current anonymity set root.
func (c *HTTPclient) CensusRoot() (types.HexBytes, error) {
	resp := &api.CensusRootResponse{}
	if err := c.request(HTTPGET, nil, resp, api.CensusRootEndpoint); err != nil {
		return nil, err
	}
	return resp.Root, nil
}

// VerifyProof submits an eligibility proof and returns the issued credential.
func (c *HTTPclient) VerifyProof(req *api.VerifyProofRequest) (*api.VerifyProofResponse, error) {
	resp := &api.VerifyProofResponse{}
	if err := c.request(HTTPPOST, req, resp, api.VerifyProofEndpoint); err != nil {
		return nil, err
	}
	return resp, nil
}

// Vote casts a ballot and returns the outcome.
func (c *HTTPclient) Vote(req *api.VoteRequest) (*api.VoteResponse, error) {
	resp := &api.VoteResponse{}
	if err := c.request(HTTPPOST, req, resp, api.VotesEndpoint); err != nil {
		return nil, err
	}
	return resp, nil
}

// Promise retrieves a promise with its aggregates.
func (c *HTTPclient) Promise(id uint64) (*api.PromiseResponse, error) {
	resp := &api.PromiseResponse{}
	if err := c.request(HTTPGET, nil, resp, api.PromisesEndpoint, strconv.FormatUint(id, 10)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPclient) request(method string, jsonBody, out any, urlPath ...string) error {
	data, status, err := c.Request(method, jsonBody, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return json.Unmarshal(data, out)
}
