package http

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadURL is returned for URLs not starting with http:// or https://.
var ErrBadURL = errors.New("url must start with http:// or https://")

// SplitURL splits url into its host and path. The path keeps its leading
// slash and is empty if url has none.
func SplitURL(url string) (host, path string, err error) {
	var rest string
	switch {
	case strings.HasPrefix(url, "http://"):
		rest = url[len("http://"):]
	case strings.HasPrefix(url, "https://"):
		rest = url[len("https://"):]
	default:
		return "", "", ErrBadURL
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i], rest[i:], nil
	}
	return rest, "", nil
}

func isHTTPS(url string) bool {
	return strings.HasPrefix(url, "https:")
}

// buildRequest returns the request line and header block of an HTTP/1.1
// request. contentLength < 0 omits the Content-Length field.
func buildRequest(method, host, path string, contentLength int, header Header) []byte {
	if path == "" {
		path = "/"
	}
	var b strings.Builder
	b.WriteString(method + " " + path + " HTTP/1.1\r\n")
	b.WriteString("Host: " + host + "\r\n")
	if contentLength >= 0 {
		b.WriteString("Content-Length: " + strconv.Itoa(contentLength) + "\r\n")
	}
	for _, f := range header {
		b.WriteString(f.Name + ": " + f.Value + "\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
