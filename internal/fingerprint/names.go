package fingerprint

import (
	"fmt"
	"strings"
)

// forbiddenNameCharacters are characters that make a property name unusable
// across filesystems and archive entries.
const forbiddenNameCharacters = " /\\:<>\"?*|"

// ValidatePropertyName checks that a property name can safely round-trip
// through archive entry names and history files.
func ValidatePropertyName(name string) error {
	if name == "" {
		return fmt.Errorf("property name is empty")
	}
	if i := strings.IndexAny(name, forbiddenNameCharacters); i >= 0 {
		return fmt.Errorf("property name %q contains forbidden character %q", name, name[i])
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return fmt.Errorf("property name %q starts or ends with a '.'", name)
	}
	return nil
}
