package astipoller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/asticode/go-astisense"
	"github.com/pkg/errors"
)

// Document represents a result document as returned by the detection API
type Document struct {
	Inference struct {
		Page *struct {
			NextToken string `json:"next_token"`
		} `json:"page,omitempty"`
		Results []astisense.DetectionEvent `json:"results"`
	} `json:"inference"`
}

func (d Document) page() (p Page) {
	p.Events = d.Inference.Results
	if d.Inference.Page != nil {
		p.NextToken = d.Inference.Page.NextToken
	}
	return
}

// ErrUnexpectedStatusCode is returned when the API answers with a non 2xx status code
var ErrUnexpectedStatusCode = errors.New("astipoller: unexpected status code")

type HTTPOptions struct {
	Headers map[string]string `toml:"headers"`
	Timeout time.Duration     `toml:"timeout"`
	URL     string            `toml:"url"`
}

// HTTPReader reads pages through GET requests, the token being sent as the next_token query parameter
type HTTPReader struct {
	c *http.Client
	o HTTPOptions
	u *url.URL
}

// NewHTTPReader creates a new HTTP reader
func NewHTTPReader(o HTTPOptions) (r *HTTPReader, err error) {
	// Create reader
	r = &HTTPReader{
		c: &http.Client{Timeout: o.Timeout},
		o: o,
	}

	// Parse url
	if r.u, err = url.Parse(o.URL); err != nil {
		err = errors.Wrapf(err, "astipoller: parsing url %s failed", o.URL)
		return
	}
	return
}

// ReadPage implements the PageReader interface
func (r *HTTPReader) ReadPage(ctx context.Context, token string) (p Page, err error) {
	// Build url
	u := *r.u
	if token != "" {
		q := u.Query()
		q.Set("next_token", token)
		u.RawQuery = q.Encode()
	}

	// Create request
	var req *http.Request
	if req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil); err != nil {
		err = errors.Wrap(err, "astipoller: creating request failed")
		return
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.o.Headers {
		req.Header.Set(k, v)
	}

	// Send
	var resp *http.Response
	if resp, err = r.c.Do(req); err != nil {
		err = errors.Wrapf(err, "astipoller: sending request to %s failed", u.String())
		return
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = errors.Wrapf(ErrUnexpectedStatusCode, "%d: %s", resp.StatusCode, bytes.TrimSpace(b))
		return
	}

	// Unmarshal
	var d Document
	if err = json.NewDecoder(resp.Body).Decode(&d); err != nil {
		err = errors.Wrap(err, "astipoller: unmarshaling failed")
		return
	}
	p = d.page()
	return
}

// FileReader reads pages from a file containing either a single document or an array of documents
type FileReader struct {
	ds []Document
}

// NewFileReader creates a new file reader
func NewFileReader(path string) (r *FileReader, err error) {
	// Read
	var b []byte
	if b, err = os.ReadFile(path); err != nil {
		err = errors.Wrapf(err, "astipoller: reading %s failed", path)
		return
	}

	// Unmarshal
	r = &FileReader{}
	if b = bytes.TrimSpace(b); len(b) > 0 && b[0] == '[' {
		if err = json.Unmarshal(b, &r.ds); err != nil {
			err = errors.Wrapf(err, "astipoller: unmarshaling %s failed", path)
			return
		}
	} else {
		var d Document
		if err = json.Unmarshal(b, &d); err != nil {
			err = errors.Wrapf(err, "astipoller: unmarshaling %s failed", path)
			return
		}
		r.ds = append(r.ds, d)
	}
	return
}

// ReadPage implements the PageReader interface. Tokens are page indexes.
func (r *FileReader) ReadPage(ctx context.Context, token string) (p Page, err error) {
	// Get index
	var i int
	if token != "" {
		if i, err = strconv.Atoi(token); err != nil {
			err = errors.Wrapf(err, "astipoller: invalid token %s", token)
			return
		}
	}

	// Invalid index
	if i < 0 || i >= len(r.ds) {
		err = fmt.Errorf("astipoller: no page %d", i)
		return
	}

	// Create page
	p.Events = r.ds[i].Inference.Results
	if i < len(r.ds)-1 {
		p.NextToken = strconv.Itoa(i + 1)
	}
	return
}
