package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// querySchema describes the minimum a search query needs to be useful.
// Additional provider parameters (cabinClass, sort, children, ...) pass through.
const querySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["fromId", "toId", "departDate"],
  "properties": {
    "fromId":     {"type": "string", "minLength": 1},
    "toId":       {"type": "string", "minLength": 1},
    "departDate": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "returnDate": {"type": ["string", "null"]},
    "adults":     {"type": ["integer", "string", "null"]},
    "pageNo":     {"type": ["integer", "string", "null"]}
  }
}`

// Query is the set of flight search parameters read from the query file.
// Keys keep the order they have in the file so the dashboard can show the
// query the way the user wrote it.
type Query struct {
	keys   []string
	values map[string]any
}

// NewQuery builds a Query from key/value pairs, in argument order.
// It panics on an odd number of arguments or a non-string key; it is meant
// for tests and defaults.
func NewQuery(kv ...any) *Query {
	if len(kv)%2 != 0 {
		panic("config.NewQuery: odd number of arguments")
	}
	q := &Query{values: make(map[string]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("config.NewQuery: key is not a string")
		}
		q.set(key, kv[i+1])
	}
	return q
}

// EmptyQuery returns a query without parameters.
func EmptyQuery() *Query {
	return &Query{values: map[string]any{}}
}

func (q *Query) set(key string, v any) {
	if _, exists := q.values[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.values[key] = v
}

// Keys returns the parameter names in file order.
func (q *Query) Keys() []string {
	return append([]string(nil), q.keys...)
}

// Get returns the raw value of a parameter.
func (q *Query) Get(key string) (any, bool) {
	v, ok := q.values[key]
	return v, ok
}

// Len returns the number of parameters.
func (q *Query) Len() int {
	return len(q.keys)
}

// LoadQuery reads and validates the query file.
// A missing file yields ErrQueryNotFound.
func LoadQuery(path string) (*Query, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided query path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrQueryNotFound
		}
		return nil, err
	}

	q, err := ParseQuery(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// ParseQuery decodes a JSON object, preserving key order.
// Numbers are kept as json.Number so "2" and "2.50" survive unchanged.
func ParseQuery(data []byte) (*Query, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("query must be a JSON object")
	}

	q := EmptyQuery()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		q.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after query object")
	}
	return q, nil
}

// Validate checks the query against the embedded JSON schema.
func (q *Query) Validate() error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(querySchema),
		gojsonschema.NewGoLoader(q.values),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(errs, "; "))
	}
	return nil
}

// BuildParams converts the query into URL parameters.
// Null values and blank strings are dropped; everything else is stringified.
func (q *Query) BuildParams() url.Values {
	params := url.Values{}
	for _, k := range q.keys {
		v := q.values[k]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		params.Set(k, stringify(v))
	}
	return params
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			return t.String()
		}
		if f, err := t.Float64(); err == nil {
			return formatFloat(f)
		}
		return t.String()
	case float64:
		return formatFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// formatFloat writes integral values without a fraction, so 2.0 becomes "2".
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Pretty returns the query as indented JSON in file order.
func (q *Query) Pretty() string {
	if len(q.keys) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range q.keys {
		key, _ := json.Marshal(k) //nolint:errcheck,errchkjson // strings always marshal
		val, err := json.MarshalIndent(q.values[k], "  ", "  ")
		if err != nil {
			val = []byte("null")
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(q.keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.String()
}

// MarshalJSON writes the query as a JSON object in file order.
func (q *Query) MarshalJSON() ([]byte, error) {
	return []byte(q.Pretty()), nil
}
