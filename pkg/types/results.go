package types

import "time"

// ResultBundle is what one search (or one page) returns: the ranked records,
// an optional user-facing status message for empty or blocked searches, and
// the per-channel cursors to resume from on the next page.
type ResultBundle struct {
	Records        []Record             `json:"records"`
	Message        string               `json:"message,omitempty"`
	ChannelDateMap map[uint64]time.Time `json:"channel_date_map,omitempty"`
}

// Empty reports whether the bundle carries no records.
func (b *ResultBundle) Empty() bool { return len(b.Records) == 0 }

// ChannelIDs returns the distinct channel ids the records came from.
func (b *ResultBundle) ChannelIDs() []uint64 {
	seen := make(map[uint64]struct{}, len(b.Records))
	var ids []uint64
	for _, r := range b.Records {
		if _, ok := seen[r.ChannelID]; ok {
			continue
		}
		seen[r.ChannelID] = struct{}{}
		ids = append(ids, r.ChannelID)
	}
	return ids
}
