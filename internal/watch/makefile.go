package watch

import (
	"os"
	"path/filepath"
)

// DefaultMakefile is watched when no makefile exists yet.
const DefaultMakefile = "makefile"

// makefileNames is GNU make's lookup order.
var makefileNames = []string{"GNUmakefile", "makefile", "Makefile"}

// DetectMakefile returns the makefile make would read in dir.
func DetectMakefile(dir string) string {
	for _, name := range makefileNames {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && !info.IsDir() {
			return name
		}
	}

	return DefaultMakefile
}
