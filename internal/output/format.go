package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/makewatch/internal/makeout"
)

// Supported trace formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TraceRecord is one classified line of a saved trace.
type TraceRecord struct {
	Stream string       `json:"stream,omitempty" yaml:"stream,omitempty"`
	Number int          `json:"number" yaml:"number"`
	Line   makeout.Line `json:"line" yaml:"line"`
}

// Encoder writes a list of trace records.
type Encoder func(w io.Writer, records []TraceRecord) error

var encoders = map[string]Encoder{
	FormatText: encodeText,
	FormatJSON: encodeJSON,
	FormatYAML: encodeYAML,
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for n := range encoders {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// EncoderFor looks up the encoder for format.
func EncoderFor(format string) (Encoder, error) {
	enc, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(Formats(), ", "))
	}

	return enc, nil
}

func encodeText(w io.Writer, records []TraceRecord) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%5d  %s\n", r.Number, r.Line); err != nil {
			return err
		}
	}

	return nil
}

func encodeJSON(w io.Writer, records []TraceRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if records == nil {
		records = []TraceRecord{}
	}

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

func encodeYAML(w io.Writer, records []TraceRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if records == nil {
		records = []TraceRecord{}
	}

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	return enc.Close()
}
