package scaffold

import (
	"fmt"
	"os"
)

// ExistsError is returned when the config file is already present.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Path)
}

// CheckExisting returns an *ExistsError if path exists.
func CheckExisting(path string) error {
	if _, err := os.Stat(path); err == nil {
		return &ExistsError{Path: path}
	}
	return nil
}
