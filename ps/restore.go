package ps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
)

var ErrTargetExists = errors.New("restore target already exists")

// RestoreOptions configures Restore.
type RestoreOptions struct {
	Auth  *CloneCredentials // for git remotes
	S3    *S3Config         // for s3:// archives
	Force bool              // replace an existing target
}

// Restore materializes a database repository at targetDir from source,
// which is one of:
//
//   - a .tar.gz or .tgz archive at a local path, file://, http(s):// or s3:// location
//   - a local git repository directory
//   - a git remote URL (http(s)://, ssh:// or git@host:path)
//
// The source is fetched into a staging directory next to targetDir and
// only moved into place once complete, so a failed restore leaves an
// existing target untouched even with Force. The restored repository is
// opened and returned.
func Restore(ctx context.Context, source, targetDir string, opts RestoreOptions) (*Persistence, error) {
	targetDir = filepath.Clean(targetDir)

	occupied, err := hasEntries(targetDir)
	if err != nil {
		return nil, err
	}
	if occupied && !opts.Force {
		return nil, fmt.Errorf("%w: %s", ErrTargetExists, targetDir)
	}

	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, err
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(targetDir)+".restore-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	fetched := filepath.Join(staging, "repo")
	if err := fetchSource(ctx, source, fetched, opts); err != nil {
		return nil, err
	}
	if err := swapInto(fetched, targetDir, staging); err != nil {
		return nil, err
	}

	return NewFilePersistence(targetDir)
}

func hasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// swapInto replaces targetDir with fetched. The previous target is parked
// inside staging until the rename succeeds and restored if it does not.
func swapInto(fetched, targetDir, staging string) error {
	previous := filepath.Join(staging, "previous")
	_, err := os.Stat(targetDir)
	hadTarget := err == nil
	if hadTarget {
		if err := os.Rename(targetDir, previous); err != nil {
			return fmt.Errorf("failed to move aside %s: %w", targetDir, err)
		}
	}

	if err := os.Rename(fetched, targetDir); err != nil {
		if hadTarget {
			os.Rename(previous, targetDir)
		}
		return fmt.Errorf("failed to move restored repository into %s: %w", targetDir, err)
	}
	return nil
}

func fetchSource(ctx context.Context, source, targetDir string, opts RestoreOptions) error {
	if isArchive(source) {
		r, err := OpenReader(ctx, source, opts.S3)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return err
		}
		return extractArchive(r, targetDir)
	}

	url := source
	switch detectScheme(source) {
	case schemeS3:
		return fmt.Errorf("s3 sources must be .tar.gz archives: %s", source)
	case schemeLocal, schemeFile:
		url = localPath(source)
		if _, err := os.Stat(url); err != nil {
			return fmt.Errorf("restore source: %w", err)
		}
	}

	authMethod, err := opts.Auth.authFor(detectScheme(source))
	if err != nil {
		return fmt.Errorf("failed to configure auth: %w", err)
	}

	_, err = git.PlainClone(targetDir, &git.CloneOptions{
		URL:  url,
		Auth: authMethod,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", source, err)
	}
	return nil
}
