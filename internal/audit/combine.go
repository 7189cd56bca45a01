package audit

// Combine merges static and model findings into one deduplicated list.
//
// Static findings are inserted first and the first occurrence of a dedup key
// wins, so on key collisions static provenance is preserved. Findings with no
// line attribution participate normally: two model findings with the same
// category and severity and no lines collapse into one, which is intentional
// because model output for the same root cause often lacks consistent line
// numbers.
func Combine(static, model []Finding) []Finding {
	combined := make([]Finding, 0, len(static)+len(model))
	for _, f := range static {
		f.Source = SourceStatic
		f.Severity = NormalizeSeverity(string(f.Severity))
		combined = append(combined, f)
	}
	for _, f := range model {
		f.Source = SourceModel
		f.Severity = NormalizeSeverity(string(f.Severity))
		combined = append(combined, f)
	}

	seen := make(map[string]struct{}, len(combined))
	out := make([]Finding, 0, len(combined))
	for _, f := range combined {
		key := f.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
