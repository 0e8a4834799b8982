package database

import (
	"bytes"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeVector serializes a face vector for the vector_face column:
// a JSON array of numbers, base64 encoded. Nil or empty vectors become NULL.
// The format is shared with every other service reading the same table.
func EncodeVector(v []float32) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal vector: %w", err)
	}
	return sql.NullString{String: base64.StdEncoding.EncodeToString(raw), Valid: true}, nil
}

// DecodeVector reverses EncodeVector. An empty string decodes to nil.
func DecodeVector(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode vector base64: %w", err)
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode vector json: %w", err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

// DecodeNullVector decodes a nullable vector_face column.
func DecodeNullVector(s sql.NullString) ([]float32, error) {
	if !s.Valid {
		return nil, nil
	}
	return DecodeVector(s.String)
}

// WireVector is a face vector as it travels in JSON bodies. It accepts a JSON
// array, null, or the base64 storage string, and always marshals as an array.
type WireVector []float32

// UnmarshalJSON implements json.Unmarshaler.
func (v *WireVector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := DecodeVector(s)
		if err != nil {
			return err
		}
		*v = decoded
		return nil
	default:
		var arr []float32
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) == 0 {
			arr = nil
		}
		*v = arr
		return nil
	}
}
