package consumption

// MergeBatches unions the authoritative batch list with batches observed in
// consumption data. Authoritative records come first and win on conflict;
// observed records only fill gaps. At most one record without a batch number
// survives, the first one encountered.
func MergeBatches(authoritative, observed []BatchRecord) []BatchRecord {
	merged := make([]BatchRecord, 0, len(authoritative)+len(observed))
	seen := make(map[string]struct{}, len(authoritative)+len(observed))
	nullSeen := false

	add := func(b BatchRecord) {
		if b.BatchNumber == nil {
			if nullSeen {
				return
			}
			nullSeen = true
			merged = append(merged, b)
			return
		}
		if _, ok := seen[*b.BatchNumber]; ok {
			return
		}
		seen[*b.BatchNumber] = struct{}{}
		merged = append(merged, b)
	}

	for _, b := range authoritative {
		add(b)
	}
	for _, b := range observed {
		add(b)
	}

	return merged
}
