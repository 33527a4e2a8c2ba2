package http

import "strings"

// UserAgent is sent by DefaultHeader.
const UserAgent = "QUECTEL_MODULE"

// HeaderField is one request header line.
type HeaderField struct {
	Name  string
	Value string
}

// Header is an ordered list of request header fields.
// Fields are written in order and names are not canonicalized.
type Header []HeaderField

// Add appends a field.
func (h *Header) Add(name, value string) {
	*h = append(*h, HeaderField{Name: name, Value: value})
}

// Get returns the value of the first field named name, compared
// case-insensitively, or "".
func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// DefaultHeader is used by Get when no header is given.
func DefaultHeader() Header {
	return Header{
		{Name: "Accept", Value: "*/*"},
		{Name: "User-Agent", Value: UserAgent},
		{Name: "Connection", Value: "close"},
	}
}

// DefaultPostHeader is used by Post when no header is given.
func DefaultPostHeader() Header {
	h := DefaultHeader()
	h.Add("Content-Type", "application/json")
	return h
}
