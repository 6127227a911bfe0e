/*
Package remote turns a declared function body into a deployable, cacheable,
invokable unit on the engine side.

Registration is explicit: callers supply the literal source text and a
signature description rather than relying on runtime source recovery. The
body is installed through the engine's install primitive on the first call
only; the returned installation handle is cached for the rest of the
process. Calls bind positional and named arguments against the declared
signature, serialize them, and run through the invoke primitive: from the
in-engine side via host calls, from the client side via the engine's SQL
function surface over the active connection.
*/
package remote
