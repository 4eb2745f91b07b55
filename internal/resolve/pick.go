package resolve

import (
	"encoding/binary"
	"strings"

	"github.com/zeebo/blake3"
)

// Index maps the seed parts to a position in [0, n). The mapping depends on
// nothing but its inputs, so equal seeds always land on the same index.
func Index(n int, parts ...string) int {
	if n <= 0 {
		return 0
	}
	sum := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}
