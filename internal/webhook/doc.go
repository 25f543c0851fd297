// Package webhook authenticates and interprets GitHub push notifications.
//
// Requests are authenticated with the X-Hub-Signature header, an HMAC-SHA1
// of the raw request body keyed with the shared webhook secret and formatted
// as "sha1=<hex>". The digest is always computed over the bytes exactly as
// received; decoding and re-encoding the JSON first would change key order or
// whitespace and reject legitimate deliveries.
//
// A push is matched against the configured deployments by its repository
// identifier ("owner/name"). Matching is exact and case-sensitive and keeps
// configuration order.
package webhook
