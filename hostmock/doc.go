/*
Package hostmock simulates the engine host-call surface for testing.

A Mock validates the namespace and capability of each call, routes to
per-function handlers, and counts invocations per function so tests can
assert properties like install-exactly-once.
*/
package hostmock
