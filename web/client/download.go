package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go.hackfix.me/romstash/attach"
	"go.hackfix.me/romstash/source"
)

// Download fetches the named file relative to the application root. Binary
// responses are returned as a byte buffer. Text responses can't be used as
// binary data, so the body is decoded as x-user-defined text and the low 8
// bits of each character code are extracted instead.
func (c *Client) Download(ctx context.Context, name string) (attach.Payload, error) {
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return attach.Payload{}, fmt.Errorf("invalid file name '%s': %w", name, err)
	}
	u := c.baseURL.ResolveReference(ref)

	reqCtx, cancelReqCtx := context.WithCancel(ctx)
	defer cancelReqCtx()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return attach.Payload{}, fmt.Errorf("failed creating request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.Do(req)
	if err != nil {
		return attach.Payload{}, fmt.Errorf("failed sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return attach.Payload{}, fmt.Errorf(
			"request 'GET %s' failed with status %s", u.String(), resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return attach.Payload{}, fmt.Errorf("failed reading response body: %w", err)
	}

	p, err := decodeBinary(resp.Header.Get("Content-Type"), body)
	var derr *source.DecodeError
	if errors.As(err, &derr) {
		codes, cerr := source.TextCodes(body)
		if cerr != nil {
			return attach.Payload{}, errors.Join(err, cerr)
		}
		return attach.FromCodes(codes), nil
	}

	return p, err
}

func decodeBinary(contentType string, body []byte) (attach.Payload, error) {
	if contentType == "" {
		return attach.FromBytes(body), nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return attach.Payload{}, &source.DecodeError{Source: contentType, Err: err}
	}
	if strings.HasPrefix(mediaType, "text/") {
		return attach.Payload{}, &source.DecodeError{
			Source: contentType,
			Err:    errors.New("response is text, not binary data"),
		}
	}

	return attach.FromBytes(body), nil
}
