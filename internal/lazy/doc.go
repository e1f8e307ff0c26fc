// Package lazy provides memoizing deferred-computation cells.
//
// # Value
//
// Value is a single-slot memo with the lifecycle
//
//	NotComputed --Get--> Computing --compute returns--> Computed
//	                         |
//	                         +--reentrant Get--> Errored
//
// A compute function that (transitively) asks for its own value is a
// programming error. The nested Get reports *ReentrantComputationError and
// the cell stays Errored for good; the outer result is discarded. Values
// built with NewWithDefault hand out the default instead of failing.
//
// Value is not thread-safe: it has no synchronization at all and concurrent
// Get calls during the Computing window are undefined. Callers must
// serialize access or use Locked, which follows the same state machine under
// a mutex and detects reentrancy per goroutine.
//
// # Small caches and memo functions
//
// SmallCache is a synchronized slice-backed cache with linear lookup, meant
// for a handful of entries. Memo memoizes a function K -> V with per-key
// reentrancy detection. Both follow the single-writer contract of Value.
package lazy
