package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Kind distinguishes executables resolved on PATH from files read by them.
type Kind int

const (
	// Binary is an executable looked up on PATH.
	Binary Kind = iota
	// File is a script, cascade or model passed to an executable.
	File
)

func (k Kind) String() string {
	if k == File {
		return "file"
	}
	return "binary"
}

// Requirement names one external program or file a pipeline source needs.
type Requirement struct {
	Name        string
	Kind        Kind
	Target      string
	Description string
	Optional    bool
}

// Status reports whether a requirement is satisfied.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Check evaluates requirements in order.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Target = strings.TrimSpace(req.Target)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}
		if req.Target == "" {
			status.Detail = fmt.Sprintf("%s not configured", req.Kind)
		} else if req.Kind == File {
			status.Detail = checkFile(req.Target)
		} else if _, err := exec.LookPath(req.Target); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Target)
		}
		status.Available = status.Detail == ""
		results = append(results, status)
	}
	return results
}

func checkFile(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil && os.IsNotExist(err):
		return fmt.Sprintf("file %q not found", path)
	case err != nil:
		return fmt.Sprintf("stat %q: %v", path, err)
	case !info.Mode().IsRegular():
		return fmt.Sprintf("%q is not a regular file", path)
	}
	return ""
}
