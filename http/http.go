// Package http implements HTTP GET and POST through the modem's HTTP(S)
// client. The request line and headers are built here and sent to the
// modem verbatim, so the caller controls every header field.
package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

// DefaultMaxBodySize is the largest response body a new Client accepts.
const DefaultMaxBodySize = 64 * 1024

const (
	cfgTimeout     = 500 * time.Millisecond
	connectTimeout = 60 * time.Second
	readTimeout    = 60 * time.Second
	okTimeout      = time.Second
)

// ErrTransport is returned when the modem reports a non-zero error code
// for a request. It is distinct from an HTTP error status.
var ErrTransport = errors.New("http request failed in modem")

// tlsCommands relax certificate checking: the modem holds no CA store.
var tlsCommands = []string{
	`AT+QHTTPCFG="sslctxid",1`,
	`AT+QSSLCFG="sslversion",1,4`,
	`AT+QSSLCFG="ciphersuite",1,0XFFFF`,
	`AT+QSSLCFG="seclevel",1,0`,
}

// Client performs HTTP requests through a Module.
// The PDP context must be active.
type Client struct {
	m  *module.Module
	ch module.Channel

	// MaxBodySize limits the size of response bodies read by Get.
	MaxBodySize int
}

// NewClient returns a Client using m.
func NewClient(m *module.Module) *Client {
	return &Client{m: m, ch: m.Channel(), MaxBodySize: DefaultMaxBodySize}
}

// SetURL uploads url as the target of the next request.
func (c *Client) SetURL(url string) error {
	return c.m.Record(c.setURL(url))
}

func (c *Client) setURL(url string) error {
	if _, err := c.ch.SendAndAwait(fmt.Sprintf("AT+QHTTPURL=%d", len(url)), "^CONNECT$", cfgTimeout); err != nil {
		return module.Errorf(module.Unknown, "upload url: %w", err)
	}
	if err := c.ch.WriteBinary([]byte(url)); err != nil {
		return module.WithCode(module.Unknown, err)
	}
	if _, err := c.ch.Await("^OK$", cfgTimeout); err != nil {
		return module.Errorf(module.Unknown, "upload url: %w", err)
	}
	return nil
}

// Get requests url and returns the response body.
// If header is nil DefaultHeader is sent. timeout is passed to the modem
// in whole seconds, rounded up.
func (c *Client) Get(url string, header Header, timeout time.Duration) ([]byte, error) {
	resp, err := c.get(url, header, timeout)
	if err = c.m.Record(err); err != nil {
		return nil, err
	}
	return resp.body, nil
}

// Post sends body to url and returns the HTTP status code reported by the
// modem, or -1 if it reported none.
// If header is nil DefaultPostHeader is sent. timeout is passed to the
// modem in whole seconds, rounded up.
func (c *Client) Post(url string, body []byte, header Header, timeout time.Duration) (int, error) {
	status, err := c.post(url, body, header, timeout)
	return status, c.m.Record(err)
}

type response struct {
	status int
	body   []byte
}

func (c *Client) get(url string, header Header, timeout time.Duration) (*response, error) {
	if header == nil {
		header = DefaultHeader()
	}
	host, path, err := c.prepare(url)
	if err != nil {
		return nil, err
	}
	req := buildRequest("GET", host, path, -1, header)
	output.Printf("=== request\n%s===\n", req)

	sec := seconds(timeout)
	if _, err := c.ch.SendAndAwait(fmt.Sprintf("AT+QHTTPGET=%d,%d", sec, len(req)), "^CONNECT$", connectTimeout); err != nil {
		return nil, module.Errorf(module.Unknown, "GET %s: %w", url, err)
	}
	if err := c.ch.WriteBinary(req); err != nil {
		return nil, module.WithCode(module.Unknown, err)
	}
	if _, err := c.ch.Await("^OK$", okTimeout); err != nil {
		return nil, module.Errorf(module.Unknown, "GET %s: %w", url, err)
	}
	args, err := c.result(`^\+QHTTPGET: (.*)$`, sec)
	if err != nil {
		return nil, module.Errorf(module.Unknown, "GET %s: %w", url, err)
	}

	resp := &response{status: -1}
	if len(args) >= 2 {
		resp.status, _ = module.Atoi(args[1])
	}
	length := -1
	if len(args) >= 3 {
		if length, err = module.Atoi(args[2]); err != nil {
			return nil, module.Errorf(module.Unknown, "GET %s: bad content length %q: %w", url, args[2], err)
		}
	}
	if resp.body, err = c.read(length); err != nil {
		return nil, module.Errorf(module.Unknown, "GET %s: %w", url, err)
	}
	return resp, nil
}

func (c *Client) post(url string, body []byte, header Header, timeout time.Duration) (int, error) {
	if header == nil {
		header = DefaultPostHeader()
	}
	host, path, err := c.prepare(url)
	if err != nil {
		return -1, err
	}
	req := buildRequest("POST", host, path, len(body), header)
	output.Printf("=== request\n%s===\n", req)

	sec := seconds(timeout)
	if _, err := c.ch.SendAndAwait(fmt.Sprintf("AT+QHTTPPOST=%d,%d,%d", len(req)+len(body), sec, sec), "^CONNECT$", connectTimeout); err != nil {
		return -1, module.Errorf(module.Unknown, "POST %s: %w", url, err)
	}
	if err := c.ch.WriteBinary(req); err != nil {
		return -1, module.WithCode(module.Unknown, err)
	}
	if err := c.ch.WriteBinary(body); err != nil {
		return -1, module.WithCode(module.Unknown, err)
	}
	if _, err := c.ch.Await("^OK$", okTimeout); err != nil {
		return -1, module.Errorf(module.Unknown, "POST %s: %w", url, err)
	}
	args, err := c.result(`^\+QHTTPPOST: (.*)$`, sec)
	if err != nil {
		return -1, module.Errorf(module.Unknown, "POST %s: %w", url, err)
	}
	if len(args) < 2 {
		return -1, nil
	}
	status, err := module.Atoi(args[1])
	if err != nil {
		return -1, module.Errorf(module.Unknown, "POST %s: bad status %q: %w", url, args[1], err)
	}
	return status, nil
}

// prepare checks url, configures the modem for it and uploads it.
func (c *Client) prepare(url string) (host, path string, err error) {
	host, path, err = SplitURL(url)
	if err != nil {
		return "", "", module.Errorf(module.Unknown, "%q: %w", url, err)
	}
	if isHTTPS(url) {
		for _, cmd := range tlsCommands {
			if _, err := c.ch.SendAndAwait(cmd, "^OK$", cfgTimeout); err != nil {
				return "", "", module.Errorf(module.Unknown, "configure TLS: %w", err)
			}
		}
	}
	if _, err := c.ch.SendAndAwait(`AT+QHTTPCFG="requestheader",1`, "^OK$", cfgTimeout); err != nil {
		return "", "", module.Errorf(module.Unknown, "enable request header: %w", err)
	}
	if err := c.setURL(url); err != nil {
		return "", "", err
	}
	return host, path, nil
}

// result waits for the final report of a request. Its first field is the
// modem's error code, which must be 0.
func (c *Client) result(pattern string, sec int) ([]string, error) {
	resp, err := c.ch.Await(pattern, time.Duration(sec+1)*time.Second)
	if err != nil {
		return nil, err
	}
	args := module.ParseArgs(resp)
	if code, err := module.Atoi(args[0]); err != nil || code != 0 {
		return nil, fmt.Errorf("error %s: %w", args[0], ErrTransport)
	}
	return args, nil
}

// read fetches the response body. A negative length means the modem did
// not report one and the body runs up to the closing OK.
func (c *Client) read(length int) ([]byte, error) {
	if length > c.MaxBodySize {
		return nil, fmt.Errorf("%d byte body: %w", length, module.ErrBufferTooSmall)
	}
	if _, err := c.ch.SendAndAwait("AT+QHTTPREAD", "^CONNECT$", okTimeout); err != nil {
		return nil, err
	}
	var (
		body []byte
		err  error
	)
	if length >= 0 {
		if body, err = c.ch.ReadBinary(length, readTimeout); err != nil {
			return nil, err
		}
		if _, err = c.ch.Await("^OK$", okTimeout); err != nil {
			return nil, err
		}
	} else if body, err = c.ch.ReadBody(c.MaxBodySize, readTimeout); err != nil {
		return nil, err
	}
	if _, err := c.ch.Await(`^\+QHTTPREAD: 0$`, okTimeout); err != nil {
		return nil, err
	}
	return body, nil
}

// seconds converts d to whole seconds, rounding up.
func seconds(d time.Duration) int {
	sec := int(d / time.Second)
	if d%time.Second > 0 {
		sec++
	}
	return sec
}
