// Package objcache caches the most recent listing per (cluster, kind,
// namespace) and resolves selectors against it.
//
// Entries are immutable snapshots: a refresh replaces the whole entry
// atomically, so a concurrent resolve never observes a partially updated
// list. There is no time-based expiry: entries are superseded only by a
// new listing of the same key or an explicit refresh. That trades
// staleness risk for predictability: an index selector always refers to
// the numbered listing the user last saw, or it fails loudly.
package objcache
