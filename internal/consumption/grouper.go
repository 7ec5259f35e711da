package consumption

// Group aggregates records into one group per distinct ingredient code, in
// order of first appearance. Codes are compared exactly as provided.
// A record identical in every field to an earlier member is dropped.
func Group(records []ConsumptionRecord) []ConsumptionGroup {
	groups := make([]ConsumptionGroup, 0)
	index := make(map[string]int)
	members := make(map[string]map[string]struct{})

	for _, rec := range records {
		key := rec.identityKey()

		i, ok := index[rec.IngredientCode]
		if !ok {
			index[rec.IngredientCode] = len(groups)
			members[rec.IngredientCode] = map[string]struct{}{key: {}}
			groups = append(groups, newGroup(rec))
			continue
		}

		seen := members[rec.IngredientCode]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		groups[i].add(rec)
	}

	return groups
}

func newGroup(rec ConsumptionRecord) ConsumptionGroup {
	return ConsumptionGroup{
		IngredientCode:    rec.IngredientCode,
		Lot:               rec.Lot,
		UnitOfMeasurement: rec.UnitOfMeasurement,
		TotalQuantity:     rec.Quantity,
		Items:             []ConsumptionRecord{rec},
		IDs:               []*int64{rec.ID},
		LatestDatetime:    rec.Datetime,
		Status:            rec.Result,
	}
}

func (g *ConsumptionGroup) add(rec ConsumptionRecord) {
	g.Items = append(g.Items, rec)
	g.IDs = append(g.IDs, rec.ID)
	g.TotalQuantity = g.TotalQuantity.Add(rec.Quantity)

	if g.UnitOfMeasurement == "" {
		g.UnitOfMeasurement = rec.UnitOfMeasurement
	}
	if rec.Datetime != nil && (g.LatestDatetime == nil || rec.Datetime.After(*g.LatestDatetime)) {
		g.LatestDatetime = rec.Datetime
	}
}

// FilterByBatch keeps rows whose batch code equals facet. NullBatchFacet
// keeps rows without a batch code; an empty facet keeps everything.
func FilterByBatch(rows []ConsumptionRecord, facet string) []ConsumptionRecord {
	if facet == "" {
		return rows
	}
	out := make([]ConsumptionRecord, 0, len(rows))
	for _, r := range rows {
		if facet == NullBatchFacet {
			if r.BatchCode == nil {
				out = append(out, r)
			}
			continue
		}
		if r.BatchCode != nil && *r.BatchCode == facet {
			out = append(out, r)
		}
	}
	return out
}
