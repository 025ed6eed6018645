package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
)

// APIVersion is the path prefix of every endpoint.
const APIVersion = "1.0"

// Client is a rest client for the daemon.
type Client struct {
	*http.Client
	url   api.URL
	token string
}

// New returns a new client for the given url. An absolute path as host selects the unix socket at that path.
func New(url api.URL) (*Client, error) {
	var httpClient *http.Client
	if path.IsAbs(url.Hostname()) {
		httpClient = unixHTTPClient(shared.HostPath(url.Hostname()))
		url.Host(filepath.Base(url.Hostname()))
	} else {
		httpClient = networkHTTPClient()
	}

	return &Client{
		Client: httpClient,
		url:    url,
	}, nil
}

// WithToken returns a client that authenticates network requests with the given bearer token.
func (c *Client) WithToken(token string) *Client {
	return &Client{
		Client: c.Client,
		url:    c.url,
		token:  token,
	}
}

func unixHTTPClient(path string) *http.Client {
	// Setup a Unix socket dialer
	unixDial := func(ctx context.Context, network string, addr string) (net.Conn, error) {
		raddr, err := net.ResolveUnixAddr("unix", path)
		if err != nil {
			return nil, err
		}

		var d net.Dialer
		return d.DialContext(ctx, "unix", raddr.String())
	}

	// Define the http transport
	transport := &http.Transport{
		DialContext:       unixDial,
		DisableKeepAlives: true,
	}

	// Define the http client
	client := &http.Client{Transport: transport}

	// Setup redirect policy
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// Replicate the headers
		req.Header = via[len(via)-1].Header

		return nil
	}

	return client
}

func networkHTTPClient() *http.Client {
	transport := &http.Transport{
		DisableKeepAlives: true,
		Proxy:             shared.ProxyFromEnvironment,
	}

	client := &http.Client{Transport: transport}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		req.Header = via[len(via)-1].Header

		return nil
	}

	return client
}

func (c *Client) rawQuery(ctx context.Context, method string, url *api.URL, data any) (*http.Response, error) {
	var req *http.Request
	var err error

	// Assign a context timeout if we don't already have one.
	_, ok := ctx.Deadline()
	if !ok {
		timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		ctx = timeoutCtx
		defer cancel()
	}

	// Get a new HTTP request setup
	if data != nil {
		switch data := data.(type) {
		case io.Reader:
			// Some data to be sent along with the request
			req, err = http.NewRequestWithContext(ctx, method, url.String(), data)
			if err != nil {
				return nil, err
			}

			// Set the encoding accordingly
			req.Header.Set("Content-Type", "application/octet-stream")
		default:
			// Encode the provided data
			buf := bytes.Buffer{}
			err := json.NewEncoder(&buf).Encode(data)
			if err != nil {
				return nil, err
			}

			// Some data to be sent along with the request
			// Use a reader since the request body needs to be seekable
			req, err = http.NewRequestWithContext(ctx, method, url.String(), bytes.NewReader(buf.Bytes()))
			if err != nil {
				return nil, err
			}

			// Set the encoding accordingly
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		// No data to be sent along with the request
		req, err = http.NewRequestWithContext(ctx, method, url.String(), nil)
		if err != nil {
			return nil, err
		}
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Send the request
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) mergeURL(endpoint *api.URL) *api.URL {
	localURL := api.NewURL()
	if endpoint != nil {
		// Get a new local struct to avoid modifying the provided one.
		newURL := *endpoint
		localURL = &newURL
	}

	localURL.URL.Host = c.url.URL.Host
	localURL.URL.Scheme = c.url.URL.Scheme
	localURL.URL.Path = filepath.Join("/", APIVersion, localURL.URL.Path)
	localURL.URL.RawPath = filepath.Join("/", APIVersion, localURL.URL.RawPath)

	localQuery := localURL.URL.Query()
	clientQuery := c.url.URL.Query()
	for k := range localQuery {
		clientQuery.Set(k, localQuery.Get(k))
	}

	localURL.URL.RawQuery = clientQuery.Encode()
	return localURL
}

// QueryStruct sends a request of the specified method to the provided endpoint (optional) on the API.
// The response gets unpacked into the target struct. POST requests can optionally provide raw data to be sent through.
func (c *Client) QueryStruct(ctx context.Context, method string, endpoint *api.URL, data any, target any) error {
	// Merge the provided URL with the one we have for the client.
	localURL := c.mergeURL(endpoint)

	// Send the actual query through.
	resp, err := c.rawQuery(ctx, method, localURL, data)
	if err != nil {
		return err
	}

	logger.Debug("Got raw response struct from daemon", logger.Ctx{"endpoint": localURL.String(), "method": method})

	response, err := ParseResponse(resp)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	// Unpack into the target struct.
	err = response.MetadataAsStruct(&target)
	if err != nil {
		return fmt.Errorf("Failed to parse response metadata: %w", err)
	}

	return nil
}

// URL returns the address used for the client.
func (c *Client) URL() api.URL {
	return c.url
}
