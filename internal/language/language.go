// Package language holds the fixed set of transcription languages and
// the interactive menu that picks one.
package language

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Language pairs a BCP-47 locale tag with its display name.
type Language struct {
	Code string
	Name string
}

var registry = map[string]Language{
	"1": {Code: "hi-IN", Name: "Hindi"},
	"2": {Code: "en-IN", Name: "English"},
	"3": {Code: "mr-IN", Name: "Marathi"},
}

// All returns the selectable languages in menu order.
func All() []Language {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	langs := make([]Language, 0, len(keys))
	for _, k := range keys {
		langs = append(langs, registry[k])
	}
	return langs
}

// ByChoice resolves a menu key to its language.
func ByChoice(key string) (Language, bool) {
	lang, ok := registry[key]
	return lang, ok
}

// Choose prints the menu on w and reads choices from r until a valid
// key is entered. Blocks indefinitely on invalid input by re-prompting.
// Returns an error only when r is exhausted.
func Choose(r io.Reader, w io.Writer) (Language, error) {
	return ChooseWith(bufio.NewScanner(r), w)
}

// ChooseWith is Choose over a caller-owned scanner, for callers that
// interleave the menu with other line reads on the same input.
func ChooseWith(scanner *bufio.Scanner, w io.Writer) (Language, error) {
	fmt.Fprintln(w, "\nSelect Language for Conversation:")
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "   %s. %s\n", k, registry[k].Name)
	}
	fmt.Fprintln(w, "\n[Default recommended: 1 for Hindi]")

	for {
		fmt.Fprint(w, "Enter choice (1/2/3): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Language{}, err
			}
			return Language{}, io.EOF
		}
		choice := strings.TrimSpace(scanner.Text())
		if lang, ok := registry[choice]; ok {
			return lang, nil
		}
		fmt.Fprintln(w, "Invalid choice. Try again.")
	}
}
