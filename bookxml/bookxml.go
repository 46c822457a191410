// Package bookxml converts book descriptor XML documents into JSON.
//
// The JSON shape follows the convention clients of the FileIt API expect:
// the root element becomes the single top-level key, attributes become
// plain keys next to child elements, repeated elements become arrays, text
// of an element that also has attributes or children is stored under
// "content", and numeric or boolean text is emitted as a JSON number or
// boolean.
//
// Text is only turned into a number when the number prints back as the same
// text, so "007" and "0131103628" stay strings. Numbers are kept as
// json.Number and never lose precision.
package bookxml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// ContentKey holds the text of elements that also carry attributes or children.
const ContentKey = "content"

const (
	mxjAttrPrefix = "-"
	mxjTextKey    = "#text"
)

// ToMap decodes the first XML document read from r.
func ToMap(r io.Reader) (map[string]any, error) {
	m, err := mxj.NewMapXmlReader(r, false)
	if err != nil {
		return nil, fmt.Errorf("decode book xml: %w", err)
	}
	return normalize(map[string]any(m)).(map[string]any), nil
}

// ToJSON decodes the XML read from r and returns it encoded as JSON.
func ToJSON(r io.Reader) (json.RawMessage, error) {
	m, err := ToMap(r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode book json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			switch {
			case k == mxjTextKey:
				k = ContentKey
			case strings.HasPrefix(k, mxjAttrPrefix):
				k = strings.TrimPrefix(k, mxjAttrPrefix)
			}
			out[k] = normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = normalize(child)
		}
		return out
	case string:
		return castValue(t)
	default:
		return v
	}
}

// castValue converts XML text to a boolean, null or number where the text
// is exactly that JSON literal. Anything else is returned unchanged.
func castValue(s string) any {
	switch {
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	case strings.EqualFold(s, "null"):
		return nil
	case isNumber(s):
		return json.Number(s)
	default:
		return s
	}
}

// isNumber reports whether s is a canonical JSON number: no sign other
// than a leading minus, no leading zeros and no surrounding space.
func isNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	if strings.TrimSpace(s) != s {
		return false
	}
	return json.Valid([]byte(s))
}
