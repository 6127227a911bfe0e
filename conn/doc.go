/*
Package conn defines the driver-side connection contract used in client mode
and an explicit, scoped connection stack.

The stack replaces ambient per-thread state: a caller owns one Stack per
logical execution scope, pushes a connection on scope entry and pops it on
exit, and hands the Stack to whatever components should resolve the current
connection. Absence of a connection is a value (nil), not an error.
*/
package conn
