package publish

import "context"

// Deployment is what the hosting provider reports back after a publish.
type Deployment struct {
	URL         string
	PagesURL    string
	ProjectName string
}

// Publisher pushes one rendered site to static hosting. Implementations
// must return an error rather than hang: the deploy worker translates any
// failure into a failed job, never a dangling one.
type Publisher interface {
	Publish(ctx context.Context, slug, html string) (*Deployment, error)
}
