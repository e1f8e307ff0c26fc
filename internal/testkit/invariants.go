package testkit

import (
	"fmt"

	"factdb/internal/binding"
	"factdb/internal/diag"
	"factdb/internal/slicedmap"
	"factdb/internal/source"
)

// CheckContextInvariants runs a minimal set of store invariants on a
// binding context:
// 1) Range yields every (slice, key) at most once and Load agrees with it
// 2) KeysOf for every slice seen matches the Range order exactly
// 3) with a registry, every fact belongs to a registered slice
// 4) with an element arena, every diagnostic anchor is NoElement or known
// 5) the elements cache agrees with a linear ForElement scan per anchor
func CheckContextInvariants(ctx binding.Context, registry *slicedmap.Registry, elements *source.Elements) error {
	if ctx == nil {
		return fmt.Errorf("nil context")
	}

	seen := make(map[slicedmap.Key]bool)
	perSlice := make(map[*slicedmap.Header][]slicedmap.Key)
	var order []*slicedmap.Header
	var err error
	ctx.Range(func(key slicedmap.Key, value any) bool {
		// 1) unique keys, Load agrees
		if seen[key] {
			err = fmt.Errorf("fact %s listed twice", key)
			return false
		}
		seen[key] = true
		if _, ok := ctx.Load(key); !ok {
			err = fmt.Errorf("fact %s listed by Range but not loadable", key)
			return false
		}
		if _, ok := perSlice[key.Slice()]; !ok {
			order = append(order, key.Slice())
		}
		perSlice[key.Slice()] = append(perSlice[key.Slice()], key)
		return true
	})
	if err != nil {
		return err
	}

	// 2) per-slice keys
	for _, h := range order {
		want := perSlice[h]
		got := ctx.KeysOf(h)
		if len(got) != len(want) {
			return fmt.Errorf("slice %s: KeysOf has %d keys, Range has %d", h, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				return fmt.Errorf("slice %s: key #%d is %s in KeysOf, %s in Range", h, i, got[i], want[i])
			}
		}
	}

	// 3) registered slices
	if registry != nil {
		for _, h := range order {
			if reg, ok := registry.Header(h.Name()); !ok || reg != h {
				return fmt.Errorf("fact slice %s is not registered", h)
			}
		}
	}

	// 4) diagnostic anchors
	if elements != nil {
		var bad error
		ctx.Diagnostics().Range(func(d diag.Diagnostic) bool {
			if d.Element == source.NoElement {
				return true
			}
			if _, ok := elements.Get(d.Element); !ok {
				bad = fmt.Errorf("diagnostic %s anchored to unknown element #%d", d.Code.ID(), d.Element)
				return false
			}
			return true
		})
		if bad != nil {
			return bad
		}
	}

	// 5) elements cache
	diags := ctx.Diagnostics()
	cache := binding.ElementsCache(ctx)
	anchors := make(map[source.ElementID]bool)
	var err5 error
	diags.Range(func(d diag.Diagnostic) bool {
		if anchors[d.Element] {
			return true
		}
		anchors[d.Element] = true
		got, want := cache.Get(d.Element), diags.ForElement(d.Element)
		if len(got) != len(want) {
			err5 = fmt.Errorf("element #%d: cache has %d diagnostics, scan has %d", d.Element, len(got), len(want))
			return false
		}
		for i := range want {
			if got[i].Code != want[i].Code || got[i].Message != want[i].Message {
				err5 = fmt.Errorf("element #%d: diagnostic #%d is %s in the cache, %s in the scan", d.Element, i, got[i].Code.ID(), want[i].Code.ID())
				return false
			}
		}
		return true
	})
	return err5
}
