package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// IntFlag is a 0/1 marker stored as an integer. It decodes from JSON
// numbers, numeric strings ("1", " 0 ") and booleans.
type IntFlag int32

func (f *IntFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		return nil
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}
	s, err := numericText(data)
	if err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("flag %q is not an integer", s)
	}
	*f = IntFlag(n)
	return nil
}

// Int64 decodes from a JSON number or a numeric string such as "123456".
type Int64 int64

func (n *Int64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	s, err := numericText(data)
	if err != nil {
		return err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("value %q is not an integer", s)
	}
	*n = Int64(v)
	return nil
}

// numericText returns the trimmed text of a JSON number or string token.
func numericText(data []byte) (string, error) {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("empty numeric value")
		}
		return s, nil
	}
	return string(data), nil
}
