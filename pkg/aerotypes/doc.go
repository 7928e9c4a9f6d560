/*
Package aerotypes defines the data model shared by every layer of the
cluster client: the record key triple, the bin value tagged union
("particle"), the record envelope returned to callers, and the policy
structs that configure a single transaction.

None of these types touch the network; they are pure value types encoded
and decoded by pkg/proto and pkg/particle and consulted by pkg/cluster and
pkg/command.
*/
package aerotypes
