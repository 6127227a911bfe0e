/*
Package engine provides clients for the three narrow primitives the database
engine exposes to this layer: query, install, and invoke.

HostClient reaches the primitives through waPC host calls with JSON payload
envelopes and is the in-engine implementation. SQLClient reaches the install
and invoke primitives from an external client by calling the engine's
wormhole_install and wormhole_invoke SQL functions over a driver connection.
Both leave result interpretation to their callers; the engine layer only
normalizes wire shapes.
*/
package engine
