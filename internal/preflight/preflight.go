package preflight

import (
	"livingroom/internal/config"
	"livingroom/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryReadable("Corpus root", cfg.Paths.CorpusRoot))
	results = append(results, CheckDirectoryReadable("Case source", cfg.SourceDir()))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	if cfg.Cache.Enabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}

	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(s deps.Status) Result {
	detail := s.Detail
	if s.Available {
		detail = s.Target
	}
	return Result{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: detail}
}
