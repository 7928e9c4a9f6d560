// Package cluster tracks cluster membership, partition ownership, and
// node health, and runs the background tender that keeps both current.
// A Cluster is a handle shared by every transaction
// driver: it resolves a Key to the node currently responsible for its
// partition, and hands back a pooled connection to that node.
package cluster
