// Package encoding packs float32 vectors and JSON metadata into the byte
// and text forms a SQL store persists, adapted from the teacher's
// root-level utils.go (encodeVector/decodeVector/encodeMetadata).
package encoding

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// ErrInvalidVector is returned for nil, truncated, or non-finite vectors.
var ErrInvalidVector = fmt.Errorf("invalid vector data")

// EncodeVector serializes a float32 slice to little-endian bytes prefixed
// with its element count.
func EncodeVector(vector []float32) ([]byte, error) {
	if vector == nil {
		return nil, ErrInvalidVector
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(vector))); err != nil {
		return nil, fmt.Errorf("encode vector length: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("encode vector values: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeVector reverses EncodeVector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}

	buf := bytes.NewReader(data)
	var length int32
	if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("decode vector length: %w", err)
	}
	if length < 0 {
		return nil, ErrInvalidVector
	}
	if length == 0 {
		return []float32{}, nil
	}

	if buf.Len() < int(length)*4 {
		return nil, ErrInvalidVector
	}
	vector := make([]float32, length)
	if err := binary.Read(buf, binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("decode vector values: %w", err)
	}
	return vector, nil
}

// ValidateVector rejects empty vectors and vectors containing NaN/Inf.
func ValidateVector(vector []float32) error {
	if len(vector) == 0 {
		return ErrInvalidVector
	}
	for _, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ErrInvalidVector
		}
	}
	return nil
}

// EncodeMetadata marshals an arbitrary metadata map to a JSON string, the
// same free-form-mapping-as-text idiom the teacher uses for embedding
// metadata columns.
func EncodeMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

// DecodeMetadata reverses EncodeMetadata.
func DecodeMetadata(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(s), &metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return metadata, nil
}

// EncodeStrings marshals a string slice (e.g. Engram.Tags) to JSON text.
func EncodeStrings(ss []string) (string, error) {
	if len(ss) == 0 {
		return "", nil
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return "", fmt.Errorf("encode strings: %w", err)
	}
	return string(data), nil
}

// DecodeStrings reverses EncodeStrings.
func DecodeStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil, fmt.Errorf("decode strings: %w", err)
	}
	return ss, nil
}
