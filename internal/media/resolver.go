// Package media normalizes stored media references into client-displayable
// URLs. Inline-encoded blobs and fully-qualified locators pass through
// unchanged; relative storage paths are rewritten against the configured
// public base address.
package media

import "strings"

type Resolver struct {
	base string
}

func NewResolver(publicBaseUrl string) *Resolver {
	return &Resolver{base: strings.TrimRight(publicBaseUrl, "/")}
}

var passthroughPrefixes = []string{"http://", "https://", "blob:", "data:"}

// Resolve rewrites ref into a displayable URL. Deterministic for a given
// base address, no side effects.
func (r *Resolver) Resolve(ref string) string {
	if ref == "" {
		return ""
	}
	for _, prefix := range passthroughPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return ref
		}
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return r.base + ref
}
