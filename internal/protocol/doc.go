// Package protocol owns the tracker wire contract.
//
// Ownership boundary:
// - envelope framing (discriminant + packet number)
// - device and server packet taxonomies
// - little-endian configuration sub-codec and calibration reversal
//
// The codec is stateless. Decode never retains the input buffer and Encode
// always returns a freshly allocated one, so both are safe to call from any
// number of goroutines.
package protocol
