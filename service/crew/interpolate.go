package crew

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MissingInputError is returned when a placeholder has no input value
type MissingInputError struct {
	Names []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing crew inputs: %v", strings.Join(e.Names, ", "))
}

// Interpolate replaces {name} placeholders with inputs
func Interpolate(text string, inputs map[string]string) (string, error) {
	missing := map[string]bool{}
	ret := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := inputs[name]
		if !ok {
			missing[name] = true
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", &MissingInputError{Names: keys(missing)}
	}
	return ret, nil
}

// Placeholders returns the sorted placeholder names used in texts
func Placeholders(texts ...string) []string {
	names := map[string]bool{}
	for _, text := range texts {
		for _, match := range placeholder.FindAllStringSubmatch(text, -1) {
			names[match[1]] = true
		}
	}
	return keys(names)
}
