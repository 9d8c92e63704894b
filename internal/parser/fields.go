package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"docfill/internal/domain"
)

// ErrNotJSONObject is returned when model output is valid JSON but not an object.
var ErrNotJSONObject = errors.New("model output is not a JSON object")

// DecodeFields strips any code fence from the model text and decodes the
// remaining JSON object into a FieldMap. Scalars are converted to strings,
// null becomes "" and nested values are kept as compact JSON text.
func DecodeFields(text string) (domain.FieldMap, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, fmt.Errorf("decoding model output: empty response")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding model output: %w (raw: %s)", err, truncate(cleaned, 200))
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decoding model output: trailing data after JSON value (raw: %s)", truncate(cleaned, 200))
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("decoding model output: %w", ErrNotJSONObject)
	}

	fields := make(domain.FieldMap, len(obj))
	for k, v := range obj {
		fields[k] = stringify(v)
	}
	return fields, nil
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
