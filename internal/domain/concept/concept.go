package concept

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrEmptyName         = errors.New("concept name cannot be empty")
	ErrSelfPrerequisite  = errors.New("concept cannot be its own prerequisite")
	ErrPrerequisiteCycle = errors.New("prerequisite relation must stay acyclic")
	ErrUnknownConcept    = errors.New("unknown concept")
)

// Concept is a unit of the curriculum. Prerequisites point at concepts a
// student should master first; the relation is kept acyclic at creation.
type Concept struct {
	ID            string
	Name          string
	Prerequisites []string
}

func New(name string, prerequisites []string) (*Concept, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Concept{
		ID:            uuid.NewString(),
		Name:          name,
		Prerequisites: prerequisites,
	}, nil
}

// ValidatePrerequisites checks that assigning prereqs to conceptID keeps
// the whole relation a DAG. graph maps concept id to its current
// prerequisite ids; the candidate assignment is overlaid before walking.
func ValidatePrerequisites(conceptID string, prereqs []string, graph map[string][]string) error {
	for _, p := range prereqs {
		if p == conceptID {
			return fmt.Errorf("%w: %s", ErrSelfPrerequisite, conceptID)
		}
	}

	overlay := make(map[string][]string, len(graph)+1)
	for id, ps := range graph {
		overlay[id] = ps
	}
	overlay[conceptID] = prereqs

	// DFS from the candidate node; revisiting it means a cycle.
	visited := make(map[string]bool)
	var walk func(id string) error
	walk = func(id string) error {
		for _, p := range overlay[id] {
			if p == conceptID {
				return fmt.Errorf("%w: %s", ErrPrerequisiteCycle, conceptID)
			}
			if visited[p] {
				continue
			}
			visited[p] = true
			if err := walk(p); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(conceptID)
}
