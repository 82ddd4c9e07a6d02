package requestid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a random request id: a v4 uuid without dashes.
func New() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
