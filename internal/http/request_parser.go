package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kharcha/internal/core"
)

const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("empty request body")

// RequestBodyParser reads a JSON object or form encoded body once and
// exposes its fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. A body starting with '{' is JSON, anything else is
// treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.err = errEmptyBody
		return p.err
	}
	if trimmed[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		p.err = dec.Decode(&p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a sanitized string field, "" when missing.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Amount parses the "amount" field. Both JSON numbers and strings are accepted.
func (p *RequestBodyParser) Amount() (float64, error) {
	return core.ParseAmount(p.Get("amount"))
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
