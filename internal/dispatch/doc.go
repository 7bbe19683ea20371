// Package dispatch resolves verbs against the navigation state and fans
// them out across the resolved target range.
//
// One dispatch runs at a time (user input is serialized by the command
// loop), but a single dispatch may fan out into concurrent sub-operations
// against one cluster, bounded by a fixed worker budget. Per-target
// results are attributed unambiguously even though completion order is
// not guaranteed. All streaming operations opened by one dispatch share a
// single cancellation signal: interrupting the command tears every stream
// down, leaving no orphans.
package dispatch
