/*
Package cursor provides a dual-mode query cursor: the same execute and fetch
surface whether the statement runs through an external driver connection or
through the in-engine query primitive.

Statements may be written with sequential ? markers or numbered $n markers;
the cursor rewrites between the two conventions to fit whichever execution
path is active, and always binds parameters positionally. Both paths
populate an identical internal representation, so fetch behavior does not
depend on the mode.
*/
package cursor
