package http

import (
	"bytes"
	"fmt"
	"io"
	nethttp "net/http"
	"sort"
	"strconv"
	"time"
)

// DefaultTimeout is used by Transport when its Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Transport is a net/http RoundTripper sending GET and POST requests
// through a Client. Response headers are not available from the modem,
// so only the status code and the body are filled in.
type Transport struct {
	Client  *Client
	Timeout time.Duration
}

// RoundTrip implements net/http.RoundTripper.
func (t *Transport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	timeout := t.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	url := req.URL.String()
	header := requestHeader(req.Header)

	var (
		resp *response
		err  error
	)
	switch req.Method {
	case "", nethttp.MethodGet:
		resp, err = t.Client.get(url, header, timeout)
	case nethttp.MethodPost:
		resp, err = t.post(req, url, header, timeout)
	default:
		err = fmt.Errorf("method %s not supported", req.Method)
	}
	if err = t.Client.m.Record(err); err != nil {
		return nil, err
	}

	status := resp.status
	if status < 0 {
		status = nethttp.StatusOK
	}
	return &nethttp.Response{
		Status:        strconv.Itoa(status) + " " + nethttp.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(nethttp.Header),
		Body:          io.NopCloser(bytes.NewReader(resp.body)),
		ContentLength: int64(len(resp.body)),
		Request:       req,
	}, nil
}

func (t *Transport) post(req *nethttp.Request, url string, header Header, timeout time.Duration) (*response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return nil, err
		}
	}
	status, err := t.Client.post(url, body, header, timeout)
	if err != nil {
		return nil, err
	}
	b, err := t.Client.read(-1)
	if err != nil {
		return nil, err
	}
	return &response{status: status, body: b}, nil
}

// requestHeader converts h to a Header sorted by name. Host and
// Content-Length are always generated, so they are skipped.
// It returns nil if nothing is left, selecting the default header.
func requestHeader(h nethttp.Header) Header {
	names := make([]string, 0, len(h))
	for name := range h {
		switch nethttp.CanonicalHeaderKey(name) {
		case "Host", "Content-Length":
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	var header Header
	for _, name := range names {
		for _, v := range h[name] {
			header.Add(name, v)
		}
	}
	return header
}
