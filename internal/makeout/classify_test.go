package makeout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Classify
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Line
	}{
		{"prereq legacy quotes", "No need to remake target `foo.o'", PrereqFile("foo.o")},
		{"prereq modern quotes", "   No need to remake target 'foo.o'.", PrereqFile("foo.o")},
		{"prereq vpath suffix", "No need to remake target 'foo.c'; using VPATH name 'src/foo.c'.", PrereqFile("foo.c")},
		{"task error", "make: *** [foo.o] Error 2", TaskError("2")},
		{"task error recursive", "make[1]: *** [Makefile:4: sub] Error 1", TaskError("1")},
		{"build error with stop", "make: *** No rule to make target 'x', needed by 'all'.  Stop.", BuildError("No rule to make target 'x', needed by 'all'")},
		{"build error without marker", "make: Nothing to be done for 'all'.", BuildError("Nothing to be done for 'all'.")},
		{"make warning is a message", "make: warning: Clock skew detected.", Message("make: warning: Clock skew detected.")},
		{"parallel wait notice", "make: *** Waiting for unfinished jobs....", Message("make: *** Waiting for unfinished jobs....")},
		{"keep-going notice", "make: Target 'all' not remade because of errors.", Message("make: Target 'all' not remade because of errors.")},
		{"recursive keep-going notice", "make[1]: Target 'sub' not remade because of errors.", Message("make[1]: Target 'sub' not remade because of errors.")},
		{"deleting file notice", "make: *** Deleting file 'foo.o'", Message("make: *** Deleting file 'foo.o'")},
		{"ignored task error", "make: [Makefile:3: lint] Error 1 (ignored)", Message("make: [Makefile:3: lint] Error 1 (ignored)")},
		{"syntax error", "makefile:5: missing separator. Stop.", SyntaxError(5, "missing separator")},
		{"syntax error with marker", "Makefile:12: *** missing separator.  Stop.", SyntaxError(12, "missing separator")},
		{"syntax error in subdir", "lib/GNUmakefile:3: *** recipe commences before first target.  Stop.", SyntaxError(3, "recipe commences before first target")},
		{"dependency newer", "Prerequisite `bar.c' is newer than target `foo.o'.", Dependency("foo.o", "bar.c")},
		{"dependency older", "      Prerequisite 'bar.h' is older than target 'foo.o'.", Dependency("foo.o", "bar.h")},
		{"dependency of", "Prerequisite 'x.c' of target 'x.o' does not exist.", Dependency("x.o", "x.c")},
		{"empty", "", Empty()},
		{"whitespace", " \t  ", Empty()},
		{"carriage return only", "\r", Empty()},
		{"banner", "GNU Make 4.3", Ignored()},
		{"license", "License GPLv3+: GNU GPL version 3 or later <http://gnu.org/licenses/gpl.html>", Ignored()},
		{"copyright", "Copyright (C) 1988-2020 Free Software Foundation, Inc.", Ignored()},
		{"reading", "Reading makefiles...", Ignored()},
		{"considering", "Considering target file 'all'.", Ignored()},
		{"must remake", "Must remake target 'foo.o'.", Ignored()},
		{"successfully remade", "Successfully remade target file 'foo.o'.", Ignored()},
		{"finished", " Finished prerequisites of target file 'foo.o'.", Ignored()},
		{"updating goals", "Updating goal targets....", Ignored()},
		{"pruning", "  Pruning file 'foo.h'.", Ignored()},
		{"does not exist", "File 'all' does not exist.", Ignored()},
		{"recipe echo", "cc -c -o foo.o foo.c", Message("cc -c -o foo.o foo.c")},
		{"compiler diagnostic", "foo.c:3:1: error: expected ';'", Message("foo.c:3:1: error: expected ';'")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	lines := []string{
		"No need to remake target `foo.o'",
		"make: *** [foo.o] Error 2",
		"random output",
		"",
	}

	for _, line := range lines {
		assert.Equal(t, Classify(line), Classify(line), line)
	}
}

func TestClassify_ExactlyOneKnownKind(t *testing.T) {
	lines := []string{
		"make: *** [a] Error 9",
		"Prerequisite `a' of target `b'",
		"makefile:1: oops. Stop.",
		"whatever",
		"GNU Make 3.81",
		"    ",
	}

	for _, line := range lines {
		got := Classify(line)
		_, known := kindNames[got.Kind]
		assert.True(t, known, "line %q classified as %v", line, got.Kind)
	}
}

func TestClassify_PriorityFirstMatchWins(t *testing.T) {
	// Matches both the task-error and the build-error shapes.
	line := "make: *** [all] Error 2"

	var matched []string

	for _, p := range Patterns {
		if _, ok := p.Match(line); ok {
			matched = append(matched, p.Name)
		}
	}

	require.Equal(t, []string{"task-error", "build-error"}, matched)
	assert.Equal(t, KindTaskError, Classify(line).Kind)
}

func TestPatterns_Order(t *testing.T) {
	names := make([]string, 0, len(Patterns))
	for _, p := range Patterns {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{
		"prereq-file", "task-error", "build-error", "syntax-error",
		"dependency", "empty", "ignored",
	}, names)
}

// ---------------------------------------------------------------------------
// Kind / Line rendering
// ---------------------------------------------------------------------------

func TestKind_String(t *testing.T) {
	assert.Equal(t, "prereq-file", KindPrereqFile.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestKind_MarshalText(t *testing.T) {
	b, err := KindSyntaxError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "syntax-error", string(b))
}

func TestLine_String(t *testing.T) {
	assert.Equal(t, "dependency: foo.o <- bar.c", Dependency("foo.o", "bar.c").String())
	assert.Equal(t, "syntax-error: missing separator on line 5", SyntaxError(5, "missing separator").String())
	assert.Equal(t, "empty", Empty().String())
}

func TestKind_UnmarshalText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("syntax-error")))
	assert.Equal(t, KindSyntaxError, k)

	assert.ErrorContains(t, k.UnmarshalText([]byte("bogus")), "unknown line kind")
}
