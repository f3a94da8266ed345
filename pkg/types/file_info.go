package types

import (
	"fmt"
	"os"
	"path/filepath"
)

// Candidate is a filesystem entry considered by a sort pass. Only existing
// regular files are eligible for classification by rules.
type Candidate struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Exists  bool   `json:"exists"`
	Regular bool   `json:"regular"`
	Size    int64  `json:"size"`
}

// NewCandidate stats path, following symlinks, and records what it finds.
// A missing or unreadable path yields a candidate with Exists=false.
func NewCandidate(path string) Candidate {
	c := Candidate{Path: path, Name: filepath.Base(path)}
	info, err := os.Stat(path)
	if err != nil {
		return c
	}
	c.Exists = true
	c.Regular = info.Mode().IsRegular()
	c.Size = info.Size()
	return c
}

// Eligible reports whether rules can classify this candidate.
func (c Candidate) Eligible() bool {
	return c.Exists && c.Regular
}

// String returns a human-readable representation
func (c Candidate) String() string {
	return fmt.Sprintf("%s (exists=%t, regular=%t, %d bytes)", c.Path, c.Exists, c.Regular, c.Size)
}
