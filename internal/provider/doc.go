// Package provider contains the support shared by every concrete
// provider adapter: the capability table with parameter validation and
// credential resolution, envelope constructors, a JSON HTTP helper with
// a bounded per-call timeout, and the lenient date parser used by
// calendar capabilities.
//
// Concrete adapters (internal/providers/*) embed Base, register their
// capabilities against it at construction time and implement only the
// provider-specific remote operations.
package provider
