package utils

import (
	"encoding/json"
)

// MustMarshalJSON marshals v and panics on failure. Use it only for values
// built in code whose shape is known to encode.
func MustMarshalJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic("failed to marshal JSON: " + err.Error())
	}
	return data
}
