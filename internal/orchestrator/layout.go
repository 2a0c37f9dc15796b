package orchestrator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"livingroom/internal/config"
	"livingroom/internal/merge"
	"livingroom/internal/services"
)

// Layout applies the corpus filename conventions.
type Layout struct {
	caseFilename *regexp.Regexp
	caseID       string
	uniqueID     *regexp.Regexp
	resource     string
	sourceDir    string
	paths        config.Paths
	ext          config.Extensions
}

// Identity splits a case ID into its session and speaker parts.
type Identity struct {
	CaseID  string
	Session string
	Speaker string
}

// SessionID returns the numeric part of the session, e.g. "008" for INT008.
func (id Identity) SessionID() string {
	return strings.TrimLeftFunc(id.Session, unicode.IsLetter)
}

// NewLayout compiles the configured patterns.
func NewLayout(cfg *config.Config) (*Layout, error) {
	p := cfg.Patterns
	caseRe, err := regexp.Compile(p.CaseFilename)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "layout", "compile", "case_filename", err)
	}
	uniqueRe, err := regexp.Compile(p.UniqueID)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "layout", "compile", "unique_id", err)
	}
	if uniqueRe.SubexpIndex("session") < 0 || uniqueRe.SubexpIndex("speaker") < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "layout", "compile",
			"unique_id needs named groups session and speaker", nil)
	}
	return &Layout{
		caseFilename: caseRe,
		caseID:       p.CaseID,
		uniqueID:     uniqueRe,
		resource:     p.Resource,
		sourceDir:    cfg.SourceDir(),
		paths:        cfg.Paths,
		ext:          p.Extensions,
	}, nil
}

// CaseIDFromFilename applies the case pattern to one file name.
func (l *Layout) CaseIDFromFilename(name string) (string, bool) {
	m := l.caseFilename.FindStringSubmatchIndex(name)
	if m == nil {
		return "", false
	}
	id := string(l.caseFilename.ExpandString(nil, l.caseID, name, m))
	if strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// DiscoverCases lists the distinct case IDs of files in the configured source
// directory, sorted. Files that do not match the case pattern are skipped.
func (l *Layout) DiscoverCases() ([]string, error) {
	entries, err := os.ReadDir(l.sourceDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "layout", "discover", l.sourceDir, err)
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := l.CaseIDFromFilename(entry.Name())
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Identify splits a case ID with the unique_id pattern.
func (l *Layout) Identify(caseID string) (Identity, error) {
	m := l.uniqueID.FindStringSubmatch(caseID)
	if m == nil {
		return Identity{}, services.Wrap(services.ErrValidation, "layout", "identify",
			fmt.Sprintf("case id %q does not match %s", caseID, l.uniqueID), nil)
	}
	return Identity{
		CaseID:  caseID,
		Session: m[l.uniqueID.SubexpIndex("session")],
		Speaker: m[l.uniqueID.SubexpIndex("speaker")],
	}, nil
}

// ResolvePath returns the first file in dir, by name, matching the resource
// pattern filled in for caseID and ending in ext. It returns "" when none does.
func (l *Layout) ResolvePath(caseID, dir, ext string) (string, error) {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(ext) == "" {
		return "", nil
	}
	id, err := l.Identify(caseID)
	if err != nil {
		return "", err
	}
	pattern := strings.ReplaceAll(l.resource, "USER", regexp.QuoteMeta(id.Speaker))
	pattern = strings.ReplaceAll(pattern, "SESSION", regexp.QuoteMeta(id.Session))
	re, err := regexp.Compile(pattern + ".*" + regexp.QuoteMeta(ext) + "$")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "layout", "resolve", "resource pattern", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && re.MatchString(entry.Name()) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

// ResolveCase resolves every resource of a case. Absent resources are empty.
func (l *Layout) ResolveCase(caseID string) (merge.Inputs, error) {
	in := merge.Inputs{CaseID: caseID}
	targets := []struct {
		dest *string
		dir  string
		ext  string
	}{
		{&in.AudioPath, l.paths.AudioDir, l.ext.Audio},
		{&in.AlignmentsPath, l.paths.AnnotationsDir, l.ext.Alignments},
		{&in.TranscriptPath, l.paths.AnnotationsDir, l.ext.Transcript},
		{&in.CreakPath, l.paths.CreakDir, l.ext.Creak},
		{&in.VideoPath, l.paths.VideoDir, l.ext.Video},
	}
	for _, target := range targets {
		path, err := l.ResolvePath(caseID, target.dir, target.ext)
		if err != nil {
			return merge.Inputs{}, err
		}
		*target.dest = path
	}
	return in, nil
}
