// Package reference canonicalises container image references and produces
// the candidate equality set used for image-in-use accounting.
package reference

import "strings"

// Candidates returns the ordered, de-duplicated set of reference strings
// considered equal to ref for lookup purposes: the trimmed lowercase form,
// the digest-stripped form, and the docker.io / docker.io/library
// expansions and contractions.
func Candidates(ref string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	// 1. Lowercased, trimmed.
	base := strings.ToLower(strings.TrimSpace(ref))
	add(base)

	// 2. Strip @<digest> suffix.
	stripped := stripDigest(base)
	add(stripped)

	tail := stripped

	// 3. docker.io/library/ prefix tail.
	const libraryPrefix = "docker.io/library/"
	if strings.HasPrefix(tail, libraryPrefix) {
		add(strings.TrimPrefix(tail, libraryPrefix))
	}

	// 4. docker.io/ prefix tail.
	const registryPrefix = "docker.io/"
	if strings.HasPrefix(tail, registryPrefix) {
		add(strings.TrimPrefix(tail, registryPrefix))
	}

	// 5. No slash in tail ⇒ also docker.io/library/<tail>.
	if !strings.Contains(tail, "/") {
		add(registryPrefix + "library/" + tail)
	} else if firstSegmentIsPlainName(tail) {
		// 6. First path segment has no '.' or ':' and isn't localhost ⇒ also docker.io/<tail>.
		add(registryPrefix + tail)
	}

	return out
}

// firstSegmentIsPlainName reports whether tail's first '/'-delimited segment
// looks like a plain repository namespace rather than a registry host
// (no '.', no ':', and not "localhost").
func firstSegmentIsPlainName(tail string) bool {
	idx := strings.Index(tail, "/")
	if idx < 0 {
		return false
	}
	seg := tail[:idx]
	if seg == "localhost" {
		return false
	}
	return !strings.ContainsAny(seg, ".:")
}

func stripDigest(ref string) string {
	if idx := strings.Index(ref, "@"); idx >= 0 {
		return ref[:idx]
	}
	return ref
}

// IsLocalOnly reports whether ref must never be pulled from a remote
// registry: it ends in ":local" or begins with "localhost/".
func IsLocalOnly(ref string) bool {
	r := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasSuffix(r, ":local") || strings.HasPrefix(r, "localhost/")
}

// Equal reports whether two references denote the same image under the
// candidate-set equality rules (used for image-in-use accounting).
func Equal(a, b string) bool {
	aSet := make(map[string]struct{})
	for _, c := range Candidates(a) {
		aSet[c] = struct{}{}
	}
	for _, c := range Candidates(b) {
		if _, ok := aSet[c]; ok {
			return true
		}
	}
	return false
}
