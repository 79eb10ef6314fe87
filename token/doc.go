// Package token signs and verifies the compact, tamper-evident tokens carried
// by authgate: HS256 JWTs encoding a subject identity and an expiry.
//
// A [Codec] is bound to one secret and one TTL; the engine holds two distinct
// codecs, one per token purpose, so an access token can never verify under the
// refresh secret or vice versa.
//
// # Architecture boundaries
//
// Verification is pure and side-effect free. This package performs no I/O,
// holds no state beyond its immutable config, and knows nothing about the
// credential store or rotation.
package token
