package analysis

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Format is a document serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml", case-insensitively. The
// empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnsupportedFormat, "unsupported output format %q", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// EncodeDocument serializes doc. YAML output keeps the JSON key order,
// including the category order.
func EncodeDocument(doc *domainanalysis.Document, format Format, pretty bool) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "encode document")
	}

	switch format {
	case FormatJSON, "":
		if !pretty {
			return raw, nil
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "indent document")
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "convert document to yaml")
		}
		plainStyle(&node)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "encode yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncodeFailed, "encode yaml")
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedFormat, "unsupported output format %q", format)
	}
}

// plainStyle clears the flow and quoting styles the JSON parse left behind;
// the encoder re-quotes strings that would otherwise change type.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}

// DecodeDocument parses a JSON document.
func DecodeDocument(data []byte) (*domainanalysis.Document, error) {
	var doc domainanalysis.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedInput, "decode document")
	}
	doc.Normalize()
	return &doc, nil
}

//Personal.AI order the ending
