package levels

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.json
var LevelsFS embed.FS

// Names lists the embedded level files without their extension.
func Names() []string {
	entries, err := fs.ReadDir(LevelsFS, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// FileName maps a level name to its embedded file, accepting names with or
// without the .json extension.
func FileName(name string) string {
	if strings.HasSuffix(name, ".json") {
		return name
	}
	return name + ".json"
}
