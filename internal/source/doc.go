// Package source holds the identities facts and diagnostics are anchored
// to. An element is anything a resolver talks about (a declaration, an
// expression, a reference); the store only needs a stable, comparable id.
package source
