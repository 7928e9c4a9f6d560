// Package info implements the info sub-protocol: a
// request is a newline-separated list of command names sent inside a
// proto.MessageTypeInfo envelope; the response is a
// "name\tvalue\n"-separated list of answers. Multi-field values within
// a single answer are ';'-separated, and key/value pairs within those
// use '='. This package also decodes the two structured response
// shapes the tender relies on: the partition-replicas bitmap and the
// peer services list.
package info
