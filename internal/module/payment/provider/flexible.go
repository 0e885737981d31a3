package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexibleID is a provider identifier that may arrive as a JSON string or
// number. It always marshals as a string.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("provider id must be a string or number: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// String returns the identifier as a string.
func (id FlexibleID) String() string {
	return string(id)
}

// Empty reports whether the identifier is absent.
func (id FlexibleID) Empty() bool {
	return id == ""
}
