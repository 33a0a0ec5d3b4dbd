package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var pagesURLPattern = regexp.MustCompile(`https://[a-z0-9-]+\.pages\.dev`)

// WranglerPublisher shells out to the Cloudflare wrangler CLI, the same
// tool an operator would use by hand. Requires CLOUDFLARE_ACCOUNT_ID and
// CLOUDFLARE_API_TOKEN in the environment.
type WranglerPublisher struct {
	cfg *WranglerConfig
}

var _ Publisher = (*WranglerPublisher)(nil)

func NewWranglerPublisher(cfg *WranglerConfig) *WranglerPublisher {
	return &WranglerPublisher{cfg: cfg}
}

func (p *WranglerPublisher) Publish(ctx context.Context, slug, html string) (*Deployment, error) {
	projectName := p.cfg.ProjectPrefix + slug

	tempDir, err := os.MkdirTemp("", "websimple-")
	if err != nil {
		return nil, fmt.Errorf("can't create staging dir, %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			slog.Warn("cleanup of staging dir failed", "dir", tempDir, "err", err)
		}
	}()

	if err := os.WriteFile(filepath.Join(tempDir, "index.html"), []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("can't write artifact, %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	slog.Info("Deploying", "project", projectName, "dir", tempDir)

	// create is idempotent from our side, the project usually exists already
	createOut, err := p.run(timeoutCtx, "npx", "wrangler", "pages", "project", "create", projectName,
		"--production-branch=main")
	if err != nil {
		slog.Info("project create skipped", "project", projectName, "out", firstLine(createOut))
	}

	deployOut, err := p.run(timeoutCtx, "npx", "wrangler", "pages", "deploy", tempDir,
		"--project-name="+projectName, "--branch=main")
	if err != nil {
		return nil, fmt.Errorf("wrangler deploy failed: %v: %s", err, firstLine(deployOut))
	}

	pagesURL := pagesURLPattern.FindString(deployOut)
	if pagesURL == "" {
		pagesURL = fmt.Sprintf("https://%s.pages.dev", projectName)
	}

	return &Deployment{
		URL:         fmt.Sprintf("https://%s.%s", slug, p.cfg.BaseDomain),
		PagesURL:    pagesURL,
		ProjectName: projectName,
	}, nil
}

func (p *WranglerPublisher) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
