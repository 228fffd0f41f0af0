package filesystem

import (
	"slices"
	"strings"
)

// KeySeparator joins path segments into a flat store key.
const KeySeparator = "/"

// Path is an ordered sequence of non-empty segments. The zero value is the
// root path.
type Path struct {
	segments []string
}

// NewPath builds a Path from segments. Each segment is split on the key
// separator and empty segments are dropped.
func NewPath(segments ...string) Path {
	var out []string
	for _, s := range segments {
		for _, part := range strings.Split(s, KeySeparator) {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return Path{segments: out}
}

// ParsePath converts a flat key back into a Path.
func ParsePath(key string) Path {
	return NewPath(key)
}

// Key returns the flat store key for p.
func (p Path) Key() string {
	return strings.Join(p.segments, KeySeparator)
}

func (p Path) String() string {
	return p.Key()
}

// Name returns the last segment, or "" for the root path.
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Dir returns p without its last segment.
func (p Path) Dir() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return Path{segments: slices.Clone(p.segments[:len(p.segments)-1])}
}

// Join appends segments to p and returns the result.
func (p Path) Join(segments ...string) Path {
	return NewPath(append(slices.Clone(p.segments), segments...)...)
}

// Segments returns a copy of the segments of p.
func (p Path) Segments() []string {
	return slices.Clone(p.segments)
}

func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

func (p Path) Equal(o Path) bool {
	return slices.Equal(p.segments, o.segments)
}
