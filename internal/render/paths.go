package render

import "strings"

// NormalizePath rewrites platform-specific separators to forward slashes,
// the only form the host and encoder accept on every platform.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// NormalizeColorspace strips the host's "default (name)" wrapper so the
// inner colorspace name can be applied explicitly.
func NormalizeColorspace(cs string) string {
	trimmed := strings.TrimSpace(cs)
	if strings.HasPrefix(trimmed, "default (") && strings.HasSuffix(trimmed, ")") {
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "default ("), ")")
	}
	return trimmed
}
