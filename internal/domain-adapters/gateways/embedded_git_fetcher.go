package gateways

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// EmbeddedGitFetcher clones with go-git, for hosts without a git client
type EmbeddedGitFetcher struct {
	url          string
	checkoutName string
	progress     io.Writer
	logger       interfaces.Logger
}

// NewEmbeddedGitFetcher creates a go-git backed fetcher. Clone progress is
// written to progress when it is non-nil.
func NewEmbeddedGitFetcher(config entities.BuildConfig, progress io.Writer, logger interfaces.Logger) *EmbeddedGitFetcher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	config = config.WithDefaults()
	return &EmbeddedGitFetcher{
		url:          config.RepositoryURL,
		checkoutName: config.CheckoutName,
		progress:     progress,
		logger:       logger,
	}
}

// Fetch clones the repository into workspaceDir and hard-resets the worktree
// to the commit revision resolves to.
func (f *EmbeddedGitFetcher) Fetch(ctx context.Context, workspaceDir, revision string) (string, error) {
	checkoutDir := filepath.Join(workspaceDir, f.checkoutName)

	f.logger.Info("cloning source",
		interfaces.F("repository", f.url),
		interfaces.F("dir", checkoutDir),
		interfaces.F("client", "embedded"),
	)
	repo, err := git.PlainCloneContext(ctx, checkoutDir, false, &git.CloneOptions{
		URL:      f.url,
		Progress: f.progress,
		Tags:     git.AllTags,
	})
	if err != nil {
		return "", entities.NewFetchError("clone "+f.url, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", entities.NewFetchError("resolve revision",
			fmt.Errorf("revision %q: %w", revision, err))
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", entities.NewFetchError("open worktree", err)
	}

	f.logger.Info("resetting checkout",
		interfaces.F("revision", revision),
		interfaces.F("commit", hash.String()),
	)
	if err := worktree.Reset(&git.ResetOptions{Commit: *hash, Mode: git.HardReset}); err != nil {
		return "", entities.NewFetchError("reset "+revision, err)
	}

	return checkoutDir, nil
}
