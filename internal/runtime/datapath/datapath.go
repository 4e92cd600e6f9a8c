// Package datapath reads and writes values inside an untyped data model using
// dot-separated paths such as "user.addresses.0.city".
//
// Objects are map[string]any and arrays are []any, which is what the JSON
// decoder produces for surface data. Numeric segments index arrays; on
// objects they are ordinary keys.
package datapath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxArrayGap is how far past the end of an array a write may land. Slots
// between the old end and the written index are filled with nil.
const MaxArrayGap = 16

// ErrIndexOutOfRange is returned when a write targets an array index more than
// MaxArrayGap past the array's current length.
var ErrIndexOutOfRange = errors.New("datapath: array index out of range")

// Split breaks a path into its segments. Empty paths have no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Join builds a path from a base and a relative path. Either side may be empty.
func Join(base, path string) string {
	switch {
	case base == "":
		return path
	case path == "":
		return base
	default:
		return base + "." + path
	}
}

// Get returns the value at path. The second result is false as soon as an
// intermediate value is not a container or lacks the next segment. An empty
// path yields root itself.
func Get(root any, path string) (any, bool) {
	current := root
	for _, seg := range Split(path) {
		switch c := current.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			idx, ok := index(seg)
			if !ok || idx >= len(c) {
				return nil, false
			}
			current = c[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set assigns value at path, mutating root in place. Missing intermediates are
// created as arrays when the following segment is a non-negative integer and as
// objects otherwise. An intermediate that exists but is not a suitable
// container is replaced, discarding whatever it held. That includes an array
// reached by a non-numeric segment.
//
// Set fails with ErrIndexOutOfRange, leaving root as it was, when an index
// lies more than MaxArrayGap past the end of its array.
func Set(root map[string]any, path string, value any) error {
	segs := Split(path)
	if root == nil || len(segs) == 0 {
		return nil
	}
	_, err := assign(root, segs, value, false)
	return err
}

// With returns a copy of root with value assigned at path. Only the containers
// along the path are copied, so root and every value reachable from it are left
// untouched and remain safe to share with concurrent readers. Index limits are
// the same as for Set; on error root is returned unchanged.
func With(root map[string]any, path string, value any) (map[string]any, error) {
	segs := Split(path)
	if len(segs) == 0 {
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		return map[string]any{}, nil
	}
	out, err := assign(root, segs, value, true)
	if err != nil {
		return root, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

// Without returns a copy of root with the value at path removed. Object keys
// are deleted and array slots are set to nil so sibling indices stay stable.
// Paths that do not resolve return root unchanged. Nothing is created.
func Without(root map[string]any, path string) map[string]any {
	segs := Split(path)
	if len(segs) == 0 {
		return map[string]any{}
	}
	if _, ok := Get(root, path); !ok {
		return root
	}
	out, _ := remove(root, segs).(map[string]any)
	return out
}

// Clone copies every container reachable from v.
func Clone(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, val := range c {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, val := range c {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// assign writes value below container. Nothing is stored into an existing
// container until the deeper levels have succeeded, so a failed Set leaves
// root intact.
func assign(container any, segs []string, value any, copyOnWrite bool) (any, error) {
	key := segs[0]
	container = containerFor(container, key)

	switch c := container.(type) {
	case map[string]any:
		v := value
		if len(segs) > 1 {
			child, err := assign(c[key], segs[1:], value, copyOnWrite)
			if err != nil {
				return nil, err
			}
			v = child
		}
		if copyOnWrite {
			c = shallowCopy(c).(map[string]any)
		}
		c[key] = v
		return c, nil
	case []any:
		idx, _ := index(key)
		if idx > len(c)+MaxArrayGap {
			return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, len(c))
		}
		v := value
		if len(segs) > 1 {
			var existing any
			if idx < len(c) {
				existing = c[idx]
			}
			child, err := assign(existing, segs[1:], value, copyOnWrite)
			if err != nil {
				return nil, err
			}
			v = child
		}
		if copyOnWrite || idx >= len(c) {
			grown := make([]any, max(len(c), idx+1))
			copy(grown, c)
			c = grown
		}
		c[idx] = v
		return c, nil
	}
	return container, nil
}

func remove(container any, segs []string) any {
	key := segs[0]
	switch c := shallowCopy(container).(type) {
	case map[string]any:
		if len(segs) == 1 {
			delete(c, key)
		} else {
			c[key] = remove(c[key], segs[1:])
		}
		return c
	case []any:
		idx, _ := index(key)
		if len(segs) == 1 {
			c[idx] = nil
		} else {
			c[idx] = remove(c[idx], segs[1:])
		}
		return c
	default:
		return container
	}
}

// containerFor returns existing when it can hold key, otherwise a fresh
// container chosen by the shape of key.
func containerFor(existing any, key string) any {
	_, numeric := index(key)
	switch existing.(type) {
	case map[string]any:
		return existing
	case []any:
		if numeric {
			return existing
		}
	}
	if numeric {
		return []any{}
	}
	return map[string]any{}
}

func shallowCopy(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		for k, val := range c {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(c))
		copy(out, c)
		return out
	default:
		return v
	}
}

func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}
