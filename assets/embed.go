// assets/embed.go
//
// Files compiled into the binaries: the default word list and the
// configuration profiles.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed words.txt config/*.yaml
var FS embed.FS

// readLines returns the non-empty, non-comment lines of an embedded file.
// Case is preserved.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func WordList() ([]string, error) {
	return readLines("words.txt")
}

// Profile returns the raw YAML of a configuration profile such as
// "development" or "production".
func Profile(name string) ([]byte, error) {
	return fs.ReadFile(FS, "config/"+name+".yaml")
}
