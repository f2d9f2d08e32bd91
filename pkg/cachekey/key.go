// ABOUTME: Deterministic cache key construction from namespace, scope and parts
// ABOUTME: Escapes the separator inside parts so distinct inputs never collide

package cachekey

import "strings"

const separator = ":"

// Build joins a logical namespace, a scope discriminator and an ordered
// list of key parts into one opaque cache key of the form
// namespace:scope:part1:part2. The separator is escaped inside each
// segment, so distinct part lists always produce distinct keys.
func Build(namespace, scope string, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, escape(namespace), escape(scope))
	for _, part := range parts {
		segments = append(segments, escape(part))
	}
	return strings.Join(segments, separator)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, separator, "%3A")
}
