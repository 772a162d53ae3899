// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Format selects the serialization of a record.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q: use json or yaml", s)
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode writes rec to w in the given format. JSON output is indented.
func Encode(w io.Writer, rec *Record, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

// Marshal returns the encoded record.
func Marshal(rec *Record, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, rec, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a record written in either format. Input whose first
// non-space byte is '{' is treated as JSON; anything else as YAML.
func Decode(data []byte) (*Record, error) {
	var rec Record
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty record")
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, fmt.Errorf("parsing JSON record: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("parsing YAML record: %w", err)
	}
	return &rec, nil
}
