package sync

import (
	"fmt"
	"strings"
)

// Three-way conflict markers as written by a failed merge or rebase.
const (
	conflictStart = "<<<<<<<"
	conflictSep   = "======="
	conflictEnd   = ">>>>>>>"
)

// HasConflictMarkers returns true if the content contains a conflict
// start marker.
func HasConflictMarkers(content string) bool {
	return strings.Contains(content, conflictStart)
}

// ResolveContent rewrites content with every conflicted section replaced
// according to the strategy. Non-conflicted lines are preserved verbatim,
// markers are removed, and section order is kept.
func ResolveContent(content string, strategy ConflictStrategy) (string, error) {
	const (
		outside = iota
		inLocal
		inRemote
	)

	var (
		out    []string
		local  []string
		remote []string
		mode   = outside
	)

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, conflictStart):
			if mode != outside {
				return "", fmt.Errorf("%w: nested %s", ErrMalformedConflict, conflictStart)
			}
			mode = inLocal
			local = local[:0]
			remote = remote[:0]

		case strings.HasPrefix(line, conflictSep) && mode == inLocal:
			mode = inRemote

		case strings.HasPrefix(line, conflictEnd):
			if mode != inRemote {
				return "", fmt.Errorf("%w: %s without %s", ErrMalformedConflict, conflictEnd, conflictSep)
			}
			out = append(out, resolveSection(local, remote, strategy)...)
			mode = outside

		default:
			switch mode {
			case inLocal:
				local = append(local, line)
			case inRemote:
				remote = append(remote, line)
			default:
				out = append(out, line)
			}
		}
	}

	if mode != outside {
		return "", fmt.Errorf("%w: unterminated section", ErrMalformedConflict)
	}

	return strings.Join(out, "\n"), nil
}

// resolveSection applies the strategy to one conflicted section.
func resolveSection(local, remote []string, strategy ConflictStrategy) []string {
	switch strategy {
	case KeepRemote:
		return append([]string(nil), remote...)
	case PerSection:
		return mergeSection(local, remote)
	default:
		return append([]string(nil), local...)
	}
}

// mergeSection is the PerSection heuristic: an empty side loses; a side
// that extends the other (contains it as a prefix or suffix) wins; local
// wins otherwise.
func mergeSection(local, remote []string) []string {
	if len(local) == 0 {
		return append([]string(nil), remote...)
	}
	if len(remote) == 0 {
		return append([]string(nil), local...)
	}
	if extendsLines(remote, local) {
		return append([]string(nil), remote...)
	}
	if extendsLines(local, remote) {
		return append([]string(nil), local...)
	}
	return append([]string(nil), local...)
}

// extendsLines returns true if super contains sub as a leading or trailing
// run of lines.
func extendsLines(super, sub []string) bool {
	if len(sub) > len(super) {
		return false
	}

	prefix := true
	for i := range sub {
		if super[i] != sub[i] {
			prefix = false
			break
		}
	}
	if prefix {
		return true
	}

	offset := len(super) - len(sub)
	for i := range sub {
		if super[offset+i] != sub[i] {
			return false
		}
	}
	return true
}
