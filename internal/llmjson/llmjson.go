// Package llmjson decodes the loosely formatted JSON that generative models
// return: fenced blocks, prose around the object, and fields that come back
// as lists or maps where a string was asked for.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid JSON response from model")

var (
	fenced     = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	listSplit  = regexp.MustCompile(`[,;\n]+`)
	listBullet = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)
)

// Unmarshal decodes raw into out, trying the text as-is, then the first
// fenced block, then the span from the first '{' to the last '}'.
func Unmarshal(raw string, out any) error {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ErrInvalid
	}
	candidates := []string{cleaned}
	if m := fenced.FindStringSubmatch(cleaned); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, cleaned[start:end+1])
	}
	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), out); err == nil {
			return nil
		}
	}
	return ErrInvalid
}

// Object is a decoded JSON object with lower-cased keys.
type Object map[string]json.RawMessage

// Decode parses raw as a JSON object.
func Decode(raw string) (Object, error) {
	var m map[string]json.RawMessage
	if err := Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrInvalid
	}
	out := make(Object, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out, nil
}

// Text returns the first present key flattened to a single string.
func (o Object) Text(keys ...string) string {
	for _, k := range keys {
		if v, ok := o[k]; ok {
			if s := Flatten(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// List returns the first present key as a list of strings. A string value is
// split on commas, semicolons and newlines.
func (o Object) List(keys ...string) []string {
	for _, k := range keys {
		v, ok := o[k]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			out := make([]string, 0, len(items))
			for _, it := range items {
				if s := Flatten(it); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
			continue
		}
		if out := SplitList(Flatten(v)); len(out) > 0 {
			return out
		}
	}
	return nil
}

// Flatten collapses any JSON value into one string. Arrays and objects are
// walked in document order and their scalar leaves joined by blank lines.
func Flatten(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return strings.Join(flattenValue(dec), "\n\n")
}

func flattenValue(dec *json.Decoder) []string {
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	switch v := tok.(type) {
	case json.Delim:
		var out []string
		switch v {
		case '[':
			for dec.More() {
				out = append(out, flattenValue(dec)...)
			}
		case '{':
			for dec.More() {
				if _, err := dec.Token(); err != nil {
					return out
				}
				out = append(out, flattenValue(dec)...)
			}
		}
		_, _ = dec.Token()
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case json.Number:
		return []string{v.String()}
	case bool:
		return []string{strconv.FormatBool(v)}
	}
	return nil
}

// SplitList splits a keyword-style line into items, dropping bullets,
// numbering, quotes and empties.
func SplitList(s string) []string {
	parts := listSplit.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(listBullet.ReplaceAllString(strings.TrimSpace(p), ""))
		p = strings.Trim(p, `"'`+"`")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
