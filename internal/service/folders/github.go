package folders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const placeholder = ".gitkeep"

// GitHub creates folders as .gitkeep files in a repository.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

func NewGitHub(ctx context.Context, token, owner, repo, branch string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return newGitHub(github.NewClient(oauth2.NewClient(ctx, ts)), owner, repo, branch)
}

func newGitHub(client *github.Client, owner, repo, branch string) *GitHub {
	return &GitHub{client: client, owner: owner, repo: repo, branch: branch}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) EnsureFolders(ctx context.Context, paths []string) (int, error) {
	created := 0
	for _, p := range paths {
		opts := &github.RepositoryContentFileOptions{
			Message: github.String("Add folder " + p),
			Content: []byte{},
		}
		if g.branch != "" {
			opts.Branch = github.String(g.branch)
		}
		_, _, err := g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path.Join(p, placeholder), opts)
		if err != nil {
			// 422 means the placeholder is already there.
			var ghErr *github.ErrorResponse
			if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
				continue
			}
			return created, fmt.Errorf("create %s: %w", p, err)
		}
		created++
	}
	return created, nil
}
