// Package xid generates unique, time-sortable identifiers for ledger
// records: prefix, epoch milliseconds, then random hex so two checkouts
// in the same millisecond still diverge.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

func New(prefix string) string {
	return At(prefix, time.Now())
}

func At(prefix string, t time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, t.UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, t.UnixMilli(), hex.EncodeToString(buf))
}
