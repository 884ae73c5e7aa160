package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/AidanDelaney/generator/pkg/internal/errors"
	"github.com/AidanDelaney/generator/pkg/internal/logging"
)

const (
	BackendGoGit string = "gogit"
	BackendCLI   string = "git"
)

// VCS fetches and refreshes template repositories.
type VCS interface {
	Clone(ctx context.Context, remote string, dst string) error
	Open(ctx context.Context, dir string) error
	Pull(ctx context.Context, dir string) error
}

// NewVCS returns the backend with the given name. An empty name selects go-git.
func NewVCS(backend string) (VCS, error) {
	switch backend {
	case "", BackendGoGit:
		return GoGit{}, nil
	case BackendCLI:
		return GitCLI{Binary: "git"}, nil
	default:
		return nil, errors.Newf(errors.ErrUnknown, "unknown git backend %q", backend).
			WithDetail("supported", []string{BackendGoGit, BackendCLI})
	}
}

// GoGit talks to repositories in-process through go-git.
type GoGit struct{}

func (GoGit) Clone(ctx context.Context, remote string, dst string) error {
	_, err := git.PlainCloneContext(ctx, dst, false, &git.CloneOptions{
		URL: remote,
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrCloneFailed, "failed to clone repo %s to %s", remote, dst)
	}
	return nil
}

func (GoGit) Open(_ context.Context, dir string) error {
	if _, err := git.PlainOpen(dir); err != nil {
		return errors.Wrapf(err, errors.ErrOpenFailed, "failed to open repo at %s", dir)
	}
	return nil
}

// Pull fast-forwards the checked out branch from origin. Being up to date
// is not an error.
func (GoGit) Pull(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrOpenFailed, "failed to open repo at %s", dir)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return errors.Wrapf(err, errors.ErrPullFailed, "failed to pull from remote in repo %s", dir)
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.Wrapf(err, errors.ErrPullFailed, "failed to pull from remote in repo %s", dir)
	}
	return nil
}

// GitCLI shells out to a git executable.
type GitCLI struct {
	Binary string
}

func (g GitCLI) run(ctx context.Context, args ...string) error {
	logger := logging.GetLogger("source.git")
	logger.Debug().
		Str("command", g.Binary).
		Strs("args", args).
		Msg("Executing command")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}

func (g GitCLI) Clone(ctx context.Context, remote string, dst string) error {
	if err := g.run(ctx, "clone", remote, dst); err != nil {
		return errors.Wrapf(err, errors.ErrCloneFailed, "failed to clone repo %s to %s", remote, dst)
	}
	return nil
}

func (g GitCLI) Open(ctx context.Context, dir string) error {
	if err := g.run(ctx, "-C", dir, "status"); err != nil {
		return errors.Wrapf(err, errors.ErrOpenFailed, "failed to open repo at %s", dir)
	}
	return nil
}

func (g GitCLI) Pull(ctx context.Context, dir string) error {
	if err := g.run(ctx, "-C", dir, "pull"); err != nil {
		return errors.Wrapf(err, errors.ErrPullFailed, "failed to pull from remote in repo %s", dir)
	}
	return nil
}
