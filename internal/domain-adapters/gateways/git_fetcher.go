package gateways

import (
	"context"
	"path/filepath"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// GitFetcher clones the upstream repository with the host's git client
type GitFetcher struct {
	runner       *ProcessRunner
	git          string
	url          string
	checkoutName string
	logger       interfaces.Logger
}

// NewGitFetcher creates a fetcher that clones url into <workspace>/<checkoutName>
func NewGitFetcher(runner *ProcessRunner, config entities.BuildConfig, logger interfaces.Logger) *GitFetcher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	config = config.WithDefaults()
	return &GitFetcher{
		runner:       runner,
		git:          config.Git,
		url:          config.RepositoryURL,
		checkoutName: config.CheckoutName,
		logger:       logger,
	}
}

// Fetch clones the repository into workspaceDir and hard-resets the checkout
// to revision. It returns the checkout directory.
func (f *GitFetcher) Fetch(ctx context.Context, workspaceDir, revision string) (string, error) {
	checkoutDir := filepath.Join(workspaceDir, f.checkoutName)

	f.logger.Info("cloning source",
		interfaces.F("repository", f.url),
		interfaces.F("dir", checkoutDir),
	)
	if err := f.runner.Run(ctx, RunConfig{
		Name:        f.git,
		Args:        []string{"clone", f.url, f.checkoutName},
		Dir:         workspaceDir,
		Description: "clone",
	}); err != nil {
		return "", entities.NewFetchError("git clone", err)
	}

	f.logger.Info("resetting checkout", interfaces.F("revision", revision))
	if err := f.runner.Run(ctx, RunConfig{
		Name:        f.git,
		Args:        []string{"reset", "--hard", revision},
		Dir:         checkoutDir,
		Description: "reset",
	}); err != nil {
		return "", entities.NewFetchError("git reset "+revision, err)
	}

	return checkoutDir, nil
}
