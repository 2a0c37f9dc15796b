package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"livingroom/internal/config"
	"livingroom/internal/deps"
	"livingroom/internal/services/praat"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckSystemDeps evaluates the external programs and their script files for
// the sources enabled in cfg. Binaries come first, then files by name.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	var binaries, files []deps.Requirement
	if cfg.Pipeline.Acoustic {
		binaries = append(binaries, deps.Requirement{
			Name:        "Praat",
			Target:      cfg.Praat.Binary,
			Description: "Required for acoustic measurement",
		})
		for _, script := range praat.Scripts {
			files = append(files, deps.Requirement{
				Name:        script,
				Kind:        deps.File,
				Target:      filepath.Join(cfg.Praat.ScriptsDir, script),
				Description: "Praat script",
			})
		}
	}
	if cfg.Pipeline.CV {
		binaries = append(binaries, deps.Requirement{
			Name:        "Vision",
			Target:      cfg.Vision.Command,
			Description: "Smile and motion detection; cached results are used when absent",
			Optional:    true,
		})
		for name, path := range map[string]string{
			"vision script": cfg.Vision.Script,
			"face cascade":  cfg.Vision.FaceCascade,
			"smile cascade": cfg.Vision.SmileCascade,
		} {
			if path == "" {
				continue
			}
			files = append(files, deps.Requirement{Name: name, Kind: deps.File, Target: path, Optional: true})
		}
	}
	sort.SliceStable(files, func(a, b int) bool { return files[a].Name < files[b].Name })
	return deps.Check(append(binaries, files...))
}
