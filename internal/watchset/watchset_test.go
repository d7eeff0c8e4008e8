package watchset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSet(t *testing.T) *WatchSet {
	t.Helper()

	ws, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ---------------------------------------------------------------------------
// Add / Watched
// ---------------------------------------------------------------------------

func TestAdd_AcknowledgesEachNewPath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.c")
	b := filepath.Join(dir, "b.c")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	ws := newTestSet(t)
	acks := make(chan string, 4)

	require.NoError(t, ws.Add([]string{a, b}, func(p string) { acks <- p }))

	got := []string{<-acks, <-acks}
	assert.ElementsMatch(t, []string{a, b}, got)
	assert.Equal(t, 2, ws.Len())
	assert.Equal(t, map[string][]string{dir: {"a.c", "b.c"}}, ws.Watched())
	assert.Equal(t, []string{a, b}, ws.Files())
}

func TestAdd_Idempotent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.c")
	writeFile(t, a, "a")

	ws := newTestSet(t)
	require.NoError(t, ws.Add([]string{a}, nil))

	acks := make(chan string, 1)
	require.NoError(t, ws.Add([]string{a, filepath.Join(dir, ".", "a.c")}, func(p string) { acks <- p }))

	select {
	case p := <-acks:
		t.Fatalf("unexpected acknowledgement for already watched %q", p)
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 1, ws.Len())
}

func TestAdd_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.c")
	writeFile(t, ok, "x")

	ws := newTestSet(t)
	err := ws.Add([]string{"/nonexistent/makewatch-12345/x.c", ok}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
	assert.Equal(t, []string{ok}, ws.Files())
}

// ---------------------------------------------------------------------------
// Changes
// ---------------------------------------------------------------------------

func TestChanges_TrackedFileOnly(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "main.c")
	sibling := filepath.Join(dir, "main.o")
	writeFile(t, tracked, "int main;")
	writeFile(t, sibling, "obj")

	ws := newTestSet(t)
	require.NoError(t, ws.Add([]string{tracked}, nil))

	writeFile(t, sibling, "obj2")
	writeFile(t, tracked, "int main(void);")

	select {
	case p := <-ws.Changes():
		assert.Equal(t, tracked, p)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event for tracked file")
	}
}

func TestChanges_SurvivesAtomicSave(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "makefile")
	writeFile(t, tracked, "all:\n")

	ws := newTestSet(t)
	require.NoError(t, ws.Add([]string{tracked}, nil))

	tmp := filepath.Join(dir, ".makefile.swp")
	writeFile(t, tmp, "all: foo\n")
	require.NoError(t, os.Rename(tmp, tracked))

	select {
	case p := <-ws.Changes():
		assert.Equal(t, tracked, p)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event after rename into place")
	}
}

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"write", fsnotify.Write, true},
		{"create", fsnotify.Create, true},
		{"remove", fsnotify.Remove, true},
		{"rename", fsnotify.Rename, true},
		{"chmod only", fsnotify.Chmod, false},
		{"zero op", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRelevant(fsnotify.Event{Name: "x", Op: tt.op}))
		})
	}
}

func TestClose_Idempotent(t *testing.T) {
	ws, err := New(nil)
	require.NoError(t, err)

	require.NoError(t, ws.Close())
	assert.NoError(t, ws.Close())
}

// ---------------------------------------------------------------------------
// Flatten / Diff
// ---------------------------------------------------------------------------

func TestFlatten(t *testing.T) {
	got := Flatten(map[string][]string{
		".":   {"makefile"},
		"src": {"b.c", "a.c"},
	})

	assert.Equal(t, []string{"makefile", filepath.Join("src", "a.c"), filepath.Join("src", "b.c")}, got)
}

func TestDiff(t *testing.T) {
	d, err := Diff([]string{"makefile"}, []string{"main.c", "makefile"})
	require.NoError(t, err)

	assert.Contains(t, d, "--- watched (before)")
	assert.Contains(t, d, "+++ watched (after)")
	assert.Contains(t, d, "+main.c")
}

func TestDiff_Equal(t *testing.T) {
	d, err := Diff([]string{"a"}, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, d)
}
