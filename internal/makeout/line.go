// Package makeout classifies the line-oriented trace output of GNU make.
//
// The build tool is invoked with --debug=v, which makes it narrate which
// targets it considered and which prerequisites it consulted. Classify maps
// each line of that narration to exactly one Line kind. Classification is
// pure and total: unmatched, non-boilerplate text always becomes a message.
package makeout

import "fmt"

// Kind identifies the classification of a single trace line.
type Kind int

// Line kinds.
const (
	KindMessage Kind = iota
	KindPrereqFile
	KindDependency
	KindTaskError
	KindBuildError
	KindSyntaxError
	KindEmpty
	KindIgnored
)

var kindNames = map[Kind]string{
	KindMessage:     "message",
	KindPrereqFile:  "prereq-file",
	KindDependency:  "dependency",
	KindTaskError:   "task-error",
	KindBuildError:  "build-error",
	KindSyntaxError: "syntax-error",
	KindEmpty:       "empty",
	KindIgnored:     "ignored",
}

// String returns the kebab-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown line kind %q", text)
}

// Line is one classified trace line. Only the fields relevant to Kind are set.
type Line struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Text is the message of KindMessage, KindBuildError and KindSyntaxError.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Path is the file named by KindPrereqFile.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// From is the target and To the prerequisite of KindDependency.
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`

	// Code is the sub-command exit code of KindTaskError.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// LineNo is the makefile line of KindSyntaxError.
	LineNo int `json:"lineNo,omitempty" yaml:"lineNo,omitempty"`
}

// Message returns a KindMessage line.
func Message(text string) Line { return Line{Kind: KindMessage, Text: text} }

// PrereqFile returns a KindPrereqFile line.
func PrereqFile(path string) Line { return Line{Kind: KindPrereqFile, Path: path} }

// Dependency returns a KindDependency line: target from depends on to.
func Dependency(from, to string) Line { return Line{Kind: KindDependency, From: from, To: to} }

// TaskError returns a KindTaskError line.
func TaskError(code string) Line { return Line{Kind: KindTaskError, Code: code} }

// BuildError returns a KindBuildError line.
func BuildError(msg string) Line { return Line{Kind: KindBuildError, Text: msg} }

// SyntaxError returns a KindSyntaxError line.
func SyntaxError(lineNo int, msg string) Line {
	return Line{Kind: KindSyntaxError, LineNo: lineNo, Text: msg}
}

// Empty returns a KindEmpty line.
func Empty() Line { return Line{Kind: KindEmpty} }

// Ignored returns a KindIgnored line.
func Ignored() Line { return Line{Kind: KindIgnored} }

// String renders the line for diagnostics.
func (l Line) String() string {
	switch l.Kind {
	case KindMessage, KindBuildError:
		return fmt.Sprintf("%s: %s", l.Kind, l.Text)
	case KindPrereqFile:
		return fmt.Sprintf("%s: %s", l.Kind, l.Path)
	case KindDependency:
		return fmt.Sprintf("%s: %s <- %s", l.Kind, l.From, l.To)
	case KindTaskError:
		return fmt.Sprintf("%s: %s", l.Kind, l.Code)
	case KindSyntaxError:
		return fmt.Sprintf("%s: %s on line %d", l.Kind, l.Text, l.LineNo)
	default:
		return l.Kind.String()
	}
}
