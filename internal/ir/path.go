package ir

import (
	"strconv"
	"strings"
)

// Lookup resolves a dotted property path against the object. Array
// elements are addressed by decimal index. The second result is false when
// any segment is missing; an explicit null is found.
func (obj IRObject) Lookup(path string) (IRValue, bool) {
	if path == "" {
		return obj, true
	}
	var cur IRValue = obj
	for {
		seg, rest, more := strings.Cut(path, ".")
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		if !more {
			return next, true
		}
		cur, path = next, rest
	}
}

func step(v IRValue, seg string) (IRValue, bool) {
	switch node := v.(type) {
	case IRObject:
		next, ok := node[seg]
		return next, ok
	case IRArray:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(node) {
			return nil, false
		}
		return node[i], true
	default:
		return nil, false
	}
}
