package store

import (
	"encoding/binary"
	"math"
)

// VectorToBytes encodes a []float32 as a little-endian byte buffer, the
// "raw float32 bytes" layout named by the specification for mean_vec.
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// BytesToVector is VectorToBytes's inverse.
func BytesToVector(b []byte) []float32 {
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
