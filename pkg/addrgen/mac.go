package addrgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// RandomMAC returns a MAC address with the first three octets of
// base. The fourth octet is taken from base as well unless it is
// "00". All other octets are random.
func RandomMAC(base string) (string, error) {
	parts := strings.Split(base, ":")
	if len(parts) < 4 {
		return "", fmt.Errorf("invalid base MAC %q: need at least four octets", base)
	}

	var mac [6]byte
	for i := 0; i < 4; i++ {
		octet, err := strconv.ParseUint(parts[i], 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid base MAC %q: %w", base, err)
		}
		mac[i] = byte(octet)
	}

	if parts[3] == "00" {
		mac[3] = byte(rand.UintN(256))
	}
	mac[4] = byte(rand.UintN(256))
	mac[5] = byte(rand.UintN(256))

	octets := make([]string, len(mac))
	for i, b := range mac {
		octets[i] = fmt.Sprintf("%02x", b)
	}

	return strings.Join(octets, ":"), nil
}
