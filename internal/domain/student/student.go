package student

import (
	"errors"

	"github.com/google/uuid"
)

var ErrEmptyName = errors.New("student name cannot be empty")

// Student owns its evidence records; the engine only ever reads them.
type Student struct {
	ID      string
	Name    string
	ClassID string
}

func New(name, classID string) (*Student, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Student{
		ID:      uuid.NewString(),
		Name:    name,
		ClassID: classID,
	}, nil
}
