/*
Package aeroerr defines the flat result-code enumeration the cluster
client and its callers use to distinguish failure kinds, plus the
AerospikeError type that carries one alongside a message and call site.

Codec and cluster-level invariant violations are fatal to the current
call only; they never retire a node (the bug is local, see ResultCode's
codec-only members). Socket errors are returned to the caller as
Timeout errors and also raise the node's health score, which may retire
the node once the score crosses its threshold.
*/
package aeroerr
