package hsg

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

var simhashTokenRE = regexp.MustCompile(`[a-zA-Z0-9]+`)

// simhash64 computes a 64-bit locality-sensitive fingerprint of text,
// returned as lowercase hex. Near-duplicate texts produce fingerprints with
// a small Hamming distance; this package only ever compares for exact
// equality (the add() idempotency path), so that property is unused today
// but kept for future near-duplicate detection.
func simhash64(text string) string {
	tokens := simhashTokenRE.FindAllString(strings.ToLower(text), -1)
	var weights [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		for bit := 0; bit < 64; bit++ {
			if sum&(1<<uint(bit)) != 0 {
				weights[bit]++
			} else {
				weights[bit]--
			}
		}
	}
	var out uint64
	for bit := 0; bit < 64; bit++ {
		if weights[bit] > 0 {
			out |= 1 << uint(bit)
		}
	}
	return strconv.FormatUint(out, 16)
}
