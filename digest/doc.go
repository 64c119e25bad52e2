// Package digest provides the request digest used to sign calls to the
// Klarna Checkout API.
//
// A digest is the standard base64 encoding of a hash over the payload bytes
// followed by the shared secret:
//
//	h, err := digest.New(digest.AlgorithmSHA256)
//	sig := h.Digest(append(payload, secret...))
//
// SHA-256 is what the Checkout API expects. The other algorithms exist for
// servers that agreed on a different scheme out of band.
package digest
