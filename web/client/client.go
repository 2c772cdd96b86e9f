package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client downloads asset files from a server.
type Client struct {
	*http.Client
	baseURL *url.URL
}

// New returns a client that resolves file names relative to baseURL, the
// application root.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return &Client{
		Client: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				Proxy:              http.ProxyFromEnvironment,
				DisableCompression: false,
			},
		},
		baseURL: u,
	}, nil
}
