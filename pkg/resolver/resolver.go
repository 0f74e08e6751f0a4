// Package resolver maps model file references from a scene description
// to fetchable URLs. Absolute http(s) URLs pass through unchanged;
// relative paths are resolved against a storage base URL using the
// scene's project id.
package resolver

import (
	"fmt"
	"net/url"
	"strings"
)

// Context carries the scene-level information a resolver may need.
type Context struct {
	ProjectID string
}

// FileResolver resolves a model file reference to a URL.
type FileResolver interface {
	Resolve(filePath string, ctx Context) (string, error)
}

// ResolutionError reports a relative path that cannot be resolved,
// typically because the scene has no project id.
type ResolutionError struct {
	File   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", e.File, e.Reason)
}

// ProjectResolver resolves relative files under
// <BaseURL>/projects/<projectId>/files/<path>.
type ProjectResolver struct {
	BaseURL string
}

// NewProjectResolver creates a resolver rooted at a storage base URL.
func NewProjectResolver(baseURL string) *ProjectResolver {
	return &ProjectResolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve implements FileResolver.
func (r *ProjectResolver) Resolve(filePath string, ctx Context) (string, error) {
	if IsAbsoluteURL(filePath) {
		return filePath, nil
	}
	if ctx.ProjectID == "" {
		return "", &ResolutionError{File: filePath, Reason: "relative path requires a project id"}
	}
	if r.BaseURL == "" {
		return "", &ResolutionError{File: filePath, Reason: "resolver has no base URL"}
	}
	return fmt.Sprintf("%s/projects/%s/files/%s",
		r.BaseURL,
		url.PathEscape(ctx.ProjectID),
		escapePath(filePath),
	), nil
}

// IsAbsoluteURL reports whether the reference is a full http(s) URL.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// escapePath escapes each segment of a relative path while keeping the
// separators, so "dir name/model.glb" stays a path.
func escapePath(p string) string {
	segs := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
