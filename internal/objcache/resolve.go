package objcache

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Resolve maps a selector to an ordered sequence of references for
// (lister, kind, namespace).
//
// Selector forms:
//   - "3"            1-based index into the last listing
//   - "1-3", "2,5"   index ranges and sets, order preserved, duplicates dropped
//   - "web-0"        exact name
//   - "web-*"        glob over names
//   - "/web-[0-9]+/" regular expression over names
//
// Name and pattern selectors resolve against the cached listing for the
// key, fetching one if absent. Index selectors never fetch: they are only
// valid immediately after a listing of the same key, and fail with
// ErrStaleSelection otherwise.
func (c *Cache) Resolve(ctx context.Context, lister Lister, kind, namespace, selector string) ([]ObjectReference, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrBadSelector)
	}

	key := Key{Cluster: lister.Name(), Kind: kind, Namespace: namespace}

	if indexes, ok, err := parseIndexes(selector); ok {
		if err != nil {
			return nil, err
		}
		return c.resolveIndexes(key, indexes)
	}

	refs, err := c.List(ctx, lister, kind, namespace, false)
	if err != nil {
		return nil, err
	}
	return matchNames(refs, selector)
}

// resolveIndexes maps 1-based indexes onto the last listing of key.
func (c *Cache) resolveIndexes(key Key, indexes []int) ([]ObjectReference, error) {
	e, ok, isLast := c.snapshot(key)
	if !ok || !isLast {
		return nil, fmt.Errorf("%w: no current listing for %s/%s on cluster %q",
			ErrStaleSelection, key.Kind, displayNamespace(key.Namespace), key.Cluster)
	}

	out := make([]ObjectReference, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 1 || idx > len(e.refs) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, idx, len(e.refs))
		}
		out = append(out, e.refs[idx-1])
	}
	return out, nil
}

// parseIndexes recognizes index selectors: "3", "1-3", "2,4,6", and
// combinations like "1-3,7". The bool reports whether the selector is
// index-shaped at all; the error reports malformed index syntax.
func parseIndexes(selector string) ([]int, bool, error) {
	if !indexShaped(selector) {
		return nil, false, nil
	}

	seen := make(map[int]bool)
	var out []int
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}

	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, true, fmt.Errorf("%w: empty index in %q", ErrBadSelector, selector)
		}
		if lo, hi, found := strings.Cut(part, "-"); found {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || start > end {
				return nil, true, fmt.Errorf("%w: bad range %q", ErrBadSelector, part)
			}
			for i := start; i <= end; i++ {
				add(i)
			}
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, true, fmt.Errorf("%w: bad index %q", ErrBadSelector, part)
		}
		add(i)
	}
	return out, true, nil
}

// indexShaped reports whether the selector consists solely of digits,
// commas, and dashes. Object names always contain at least one letter, so
// this cannot collide with name selectors.
func indexShaped(selector string) bool {
	hasDigit := false
	for _, r := range selector {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == ',' || r == '-' || r == ' ':
		default:
			return false
		}
	}
	return hasDigit
}

// matchNames filters refs by exact name, glob, or /regex/ pattern,
// preserving listing order.
func matchNames(refs []ObjectReference, selector string) ([]ObjectReference, error) {
	var match func(name string) bool

	switch {
	case strings.HasPrefix(selector, "/") && strings.HasSuffix(selector, "/") && len(selector) > 1:
		re, err := regexp.Compile(strings.Trim(selector, "/"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSelector, err)
		}
		match = re.MatchString
	case strings.ContainsAny(selector, "*?["):
		pattern := selector
		// Validate the pattern once up front; path.Match only reports
		// syntax errors lazily.
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSelector, err)
		}
		match = func(name string) bool {
			ok, _ := path.Match(pattern, name)
			return ok
		}
	default:
		match = func(name string) bool { return name == selector }
	}

	var out []ObjectReference
	for _, ref := range refs {
		if match(ref.Name) {
			out = append(out, ref)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return out, nil
}

func displayNamespace(ns string) string {
	if ns == "" {
		return "*"
	}
	return ns
}
