/*
Package tx runs units of work under commit/rollback discipline with
automatic retry for conflict-classified failures, layered savepoint scopes,
and a read-only variant.

Classification is a substring heuristic over the failure message, kept
behind the single Retryable function so it can later be replaced by
structured driver error codes. Note the deliberate asymmetry: regular
transactions classify read-only-standby errors as retryable, while
RunReadOnly itself carries no retry wrapping at all.
*/
package tx
