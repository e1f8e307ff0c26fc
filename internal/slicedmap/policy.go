package slicedmap

import (
	"fmt"
	"reflect"
	"strings"
)

// RewritePolicy decides what a second write to the same (slice, key) does.
type RewritePolicy uint8

const (
	// DoNothing performs no check; the new value always overwrites.
	DoNothing RewritePolicy = iota
	// RewritesAllowed overwrites and silently discards the old value.
	RewritesAllowed
	// RewriteForbidden rejects the write: an error in strict mode, a silent
	// no-op otherwise.
	RewriteForbidden
	// RewriteWithAssertionOnStrictMode rejects the write with an error in
	// strict mode and overwrites otherwise.
	RewriteWithAssertionOnStrictMode
)

func (p RewritePolicy) String() string {
	switch p {
	case DoNothing:
		return "do-nothing"
	case RewritesAllowed:
		return "rewrites-allowed"
	case RewriteForbidden:
		return "rewrite-forbidden"
	case RewriteWithAssertionOnStrictMode:
		return "rewrite-with-assertion"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// ParseRewritePolicy accepts the String forms, case-insensitively, with
// '_' allowed instead of '-'.
func ParseRewritePolicy(s string) (RewritePolicy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch norm {
	case "", "do-nothing":
		return DoNothing, nil
	case "rewrites-allowed":
		return RewritesAllowed, nil
	case "rewrite-forbidden":
		return RewriteForbidden, nil
	case "rewrite-with-assertion", "rewrite-with-assertion-on-strict-mode":
		return RewriteWithAssertionOnStrictMode, nil
	}
	return DoNothing, fmt.Errorf("unknown rewrite policy %q (expected: do-nothing|rewrites-allowed|rewrite-forbidden|rewrite-with-assertion)", s)
}

// needsCheck reports whether the stored value must be consulted.
func (p RewritePolicy) needsCheck() bool {
	return p == RewriteForbidden || p == RewriteWithAssertionOnStrictMode
}

// admit decides a rewrite of old with value. write=false keeps old.
func (p RewritePolicy) admit(strict bool, key Key, old, value any) (write bool, err error) {
	if !p.needsCheck() || sameValue(old, value) {
		return true, nil
	}
	if strict {
		return false, &RewriteViolation{Slice: key.slice.name, Key: key.key, Old: old, New: value}
	}
	return p == RewriteWithAssertionOnStrictMode, nil
}

// sameValue is deep equality. A plain == can panic on comparable static
// types holding slices or maps behind an interface field.
func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
