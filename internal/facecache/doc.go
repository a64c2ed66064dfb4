// Package facecache wraps an opaque face-detection primitive with a
// content-addressed result cache.
//
// Face detection is the most expensive operation on the node, and
// consecutive captures of a static scene are frequently byte-identical.
// The cache hashes raw frame bytes (MD5, deduplication only) and serves
// repeated captures from memory instead of re-running detection.
//
// # Caching Policy
//
//   - Entries expire after a configurable TTL; an expired entry found
//     during lookup counts as a miss and is evicted immediately.
//   - Capacity is bounded; insertion at capacity evicts the entry with
//     the oldest timestamp, located by linear scan over the small map.
//   - A bulk sweep of expired entries runs at most once per sweep
//     interval, piggybacked on detection calls.
//   - Only results with at least one face are cached. A cached hit is
//     resynthesised as a single face carrying the stored confidence and
//     landmarks.
//
// The cache runs exclusively on the control loop and is not safe for
// concurrent use.
package facecache
