// Package capability holds the provider registry and the dispatcher
// that routes capability calls to the right adapter.
//
// The registry is populated once at startup and read-only afterwards.
// It preserves registration order, which makes capability-name lookups
// deterministic when two providers expose the same name: the provider
// registered first wins.
//
// The dispatcher is the single entry point for executing a capability.
// It never returns a Go error to its caller; every failure is folded
// into the result envelope so transports and CLI commands only ever
// render one shape.
package capability
