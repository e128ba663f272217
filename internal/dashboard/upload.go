package dashboard

import (
	"fmt"
	"path"
	"strings"
)

// AllowedExtensions are the accepted upload types, lower-case, without dot.
var AllowedExtensions = []string{"eeg", "edf", "bdf", "set", "vhdr", "cnt", "csv"}

// UnsupportedTypeError rejects an upload by extension.
type UnsupportedTypeError struct {
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q (allowed: %s)", "."+e.Extension, strings.Join(AllowedExtensions, ", "))
}

// ValidateUpload checks fileName against the allow-list and returns its
// extension lower-cased. Only the name is consulted, never the content.
func ValidateUpload(fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", ErrNoFile
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(baseName(fileName)), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", &UnsupportedTypeError{Extension: ext}
}

// baseName strips any client-supplied directory, with either separator.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
