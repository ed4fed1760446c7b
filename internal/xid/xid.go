// Package xid generates prefixed entity identifiers. IDs sort roughly by
// creation time and stay unique across stores without coordination.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns an id of the form <prefix>-<unix-millis>-<random hex>.
// The millisecond stamp keeps ids scannable in logs and database dumps;
// the 10 random bytes carry the uniqueness.
func New(prefix string) string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a bare nanosecond stamp rather than panic inside a sale.
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf))
}
