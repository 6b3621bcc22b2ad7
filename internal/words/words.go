// internal/words/words.go
//
// Provides the candidate word list for rounds.
//
// Responsibilities:
//   - Load the list from a file (WORDS_FILE or config words.file) or fall
//     back to the embedded default list in assets/words.txt.
//   - Keep only words made of letters; case is preserved because typing is
//     matched case-sensitively.
//   - Supply List and Stats for hosts.
//
// File format: one word per line; blank lines and lines starting with '#'
// are skipped.
//
// Initialization is run once (sync.Once); Load and Parse are pure and can
// be used directly by tests and tools.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/robalobadob/typelanes/assets"
)

var ErrEmpty = errors.New("words: list is empty")

var (
	initOnce   sync.Once
	list       []string
	rejected   int
	initialErr error
)

// Init loads the word list exactly once. An empty path selects the
// embedded default list.
func Init(path string) error {
	initOnce.Do(func() {
		list, rejected, initialErr = Load(path)
	})
	return initialErr
}

// Load reads a word list from path, or the embedded list when path is
// empty. It returns the accepted words and how many lines were rejected.
func Load(path string) ([]string, int, error) {
	if path == "" {
		lines, err := assets.WordList()
		if err != nil {
			return nil, 0, err
		}
		return filter(lines)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("words: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads one word per line.
func Parse(r io.Reader) ([]string, int, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		lines = append(lines, s)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	return filter(lines)
}

func filter(lines []string) ([]string, int, error) {
	out := make([]string, 0, len(lines))
	bad := 0
	for _, w := range lines {
		if isLetters(w) {
			out = append(out, w)
		} else {
			bad++
		}
	}
	if len(out) == 0 {
		return nil, bad, ErrEmpty
	}
	return out, bad, nil
}

// isLetters reports whether s is non-empty and made of letters only.
func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// List returns a copy of the loaded words.
func List() []string {
	return slices.Clone(list)
}

// Stats returns counts of loaded and rejected words.
func Stats() (loaded int, skipped int) {
	return len(list), rejected
}
