package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// BuildID identifies one graph build (and the persisted copy of it)
type BuildID ID

func (id BuildID) String() string { return ID(id).String() }

// NewBuildID creates a time-ordered build identifier
func NewBuildID() BuildID { return BuildID(NewID()) }

// ParseBuildID parses a string into BuildID
func ParseBuildID(s string) (BuildID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("build ID cannot be empty")
	}
	return BuildID(s), nil
}
