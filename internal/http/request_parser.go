// This file parses request bodies and the transaction query string.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bankdash/internal/core"
)

// maxBodyBytes bounds credential and reset payloads.
const maxBodyBytes = 16 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a body once and serves fields from it whether the
// client sent JSON (the API) or a urlencoded form (htmx).
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(trimmed, "{") || strings.Contains(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, control-character free value for key.
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

// GetRaw returns key untouched apart from JSON decoding; passwords go
// through here so whitespace in them is preserved.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseFilters reads merchant, date and page from a transactions query.
// A missing, non-numeric or non-positive page means page 1; a date that is
// neither YYYY-MM-DD nor RFC 3339 is core.ErrInvalidDate.
func ParseFilters(q url.Values, loc *time.Location) (core.Filters, error) {
	f := core.Filters{
		Merchant: sanitizeInput(q.Get("merchant")),
		Page:     parsePage(q.Get("page")),
	}
	date, err := core.ParseDateParam(q.Get("date"), loc)
	if err != nil {
		return core.Filters{}, err
	}
	f.Date = date
	return f.Normalized(), nil
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// FilterQuery renders f back into a query string, omitting empty values and
// page 1. Used for pagination links and HX-Push-Url.
func FilterQuery(f core.Filters, page int) string {
	v := url.Values{}
	if f.Merchant != "" {
		v.Set("merchant", f.Merchant)
	}
	if d := f.DateParam(); d != "" {
		v.Set("date", d)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return v.Encode()
}
