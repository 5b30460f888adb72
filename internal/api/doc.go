// Package api defines the shared contracts between the capability
// registry, the dispatcher, the provider adapters, and the unified
// calendar aggregator.
//
// The package deliberately contains only types and interfaces. Concrete
// implementations live in their own packages (internal/capability,
// internal/providers/*, internal/unified) and depend on this package
// rather than on one another, which keeps the dependency graph flat and
// lets tests substitute fake adapters freely.
package api
