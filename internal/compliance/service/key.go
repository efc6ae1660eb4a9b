package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"staywatch/internal/compliance/models"
	"staywatch/internal/engine"
)

// collectionKey hashes everything the day set is a function of: the
// subject's interval collection and the zone rules. The reference date is
// folded in only when an open-ended interval exists, since only then does
// the result depend on it — closed collections stay cache-hot across days.
func collectionKey(records []*models.IntervalRecord, rules []models.ZoneRule, ref engine.Date) string {
	h := sha256.New()
	hasOpen := false
	for _, r := range records {
		end := "open"
		if r.EndDate != nil {
			end = r.EndDate.String()
		} else {
			hasOpen = true
		}
		fmt.Fprintf(h, "i|%s|%s|%s|%s|%t\n", r.ID, r.Zone, r.StartDate, end, r.Excluded)
	}
	for _, rule := range rules {
		fmt.Fprintf(h, "z|%s|%t\n", rule.Zone, rule.Counted)
	}
	if hasOpen {
		io.WriteString(h, "ref|"+ref.String()+"\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}
