// Package safety holds the checks run on a root before it is cleaned.
package safety

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	cleaner "github.com/ideamans/go-artifact-cleaner"
)

// Violation is a refused root. It matches cleaner.ErrSafetyViolation with errors.Is.
type Violation struct {
	Path       string
	Reason     string
	Suggestion string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Reason, v.Path)
}

// Unwrap returns cleaner.ErrSafetyViolation
func (v *Violation) Unwrap() error {
	return cleaner.ErrSafetyViolation
}

// Guard implements cleaner.Guard
type Guard struct {
	CheckGitRepo bool
	MinFreeSpace uint64 // bytes; 0 disables the check
	DiskInfo     cleaner.DiskInfoProvider
}

// NewGuard creates a guard using the default disk info provider
func NewGuard(checkGitRepo bool, minFreeSpace uint64) *Guard {
	return &Guard{
		CheckGitRepo: checkGitRepo,
		MinFreeSpace: minFreeSpace,
		DiskInfo:     &cleaner.DefaultDiskInfoProvider{},
	}
}

// Validate refuses roots that do not exist, lie inside a git repository or
// sit on a volume with less free space than required. Free space that cannot
// be determined does not block the run.
func (g *Guard) Validate(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &Violation{Path: root, Reason: "path does not exist"}
	}
	if !info.IsDir() {
		return &Violation{Path: root, Reason: "path is not a directory"}
	}

	if g.CheckGitRepo {
		if repo, ok := FindGitRepo(root); ok {
			return &Violation{
				Path:       repo,
				Reason:     "path is inside a git repository",
				Suggestion: "Use --no-git-check to override this safety check.",
			}
		}
	}

	if g.MinFreeSpace > 0 && g.DiskInfo != nil {
		usage, err := g.DiskInfo.GetDiskUsage(root)
		if err == nil && usage.Free < g.MinFreeSpace {
			return &Violation{
				Path: root,
				Reason: fmt.Sprintf("insufficient disk space (%s free, need at least %s)",
					humanize.IBytes(usage.Free), humanize.IBytes(g.MinFreeSpace)),
				Suggestion: "Lower safety.min_free_space_gb in the configuration.",
			}
		}
	}

	return nil
}

// FindGitRepo returns the nearest directory at or above path that contains .git
func FindGitRepo(path string) (string, bool) {
	current := filepath.Clean(path)
	for {
		if _, err := os.Lstat(filepath.Join(current, ".git")); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
