// Package scalar converts between 32-bit IEEE floats (the caller-facing
// representation) and the three compact on-disk/in-memory storage kinds:
// Float32 (identity), Float8 (uniform symmetric int8), and E4M3 (an 8-bit
// float with 1 sign, 4 exponent, 3 mantissa bits).
//
// Every Codec is monotonic on finite inputs within its representable range:
// for a <= b, Decode(Encode(a)) <= Decode(Encode(b)). Decode/Encode round
// trips are exact for every code point the encoder produces: Float8 codes
// -127..127 (code -128 decodes below -1 and re-encodes as -127) and every
// non-NaN E4M3 byte (a NaN re-encodes as the positive NaN code).
package scalar
