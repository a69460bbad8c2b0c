package core

import "slices"

// autoMapThreshold is the minimum similarity a header needs to be mapped.
const autoMapThreshold = 0.6

// MappingStats counts the outcome of an auto-map run.
type MappingStats struct {
	Total   int `json:"total"`
	Mapped  int `json:"mapped"`
	Skipped int `json:"skipped"`
}

// MappingConflict reports a field claimed by more than one header.
type MappingConflict struct {
	Field   string   `json:"field"`
	Headers []string `json:"headers"`
}

// FieldSuggestion is the transform advice for one mapped field.
type FieldSuggestion struct {
	Field       string               `json:"field"`
	Header      string               `json:"header"`
	Score       float64              `json:"score"`
	Suggestions []TransformationKind `json:"suggestions"`
	Suggested   TransformationKind   `json:"suggested"`
}

// AutoMapResult is the output of AutoMap.
type AutoMapResult struct {
	Mapping        ColumnMapping            `json:"mapping"`
	Transforms     TransformationAssignment `json:"transformations"`
	Stats          MappingStats             `json:"stats"`
	Suggestions    []FieldSuggestion        `json:"suggestions"`
	Conflicts      []MappingConflict        `json:"conflicts,omitempty"`
	IdentityFields []string                 `json:"identityFields,omitempty"`
}

// AutoMap guesses a field for every header by name similarity.
//
// Identity fields are never candidates. A header maps to the field with the
// highest score above the threshold; on equal scores the earlier field in
// schema order is kept. Several headers may land on the same field; those
// cases are listed in Conflicts rather than resolved.
//
// When data is non-nil, each mapped column is sampled to pick a transform:
// the first suggestion after none, or none when nothing else applies.
func AutoMap(headers []string, schema *TableSchema, data *Dataset) AutoMapResult {
	res := AutoMapResult{
		Mapping:        make(ColumnMapping),
		Transforms:     make(TransformationAssignment),
		Stats:          MappingStats{Total: len(headers)},
		IdentityFields: schema.IdentityFields(),
	}

	candidates := make([]FieldDescriptor, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if !IsIdentityField(f) {
			candidates = append(candidates, f)
		}
	}

	claims := make(map[string][]string)
	var claimOrder []string

	for col, h := range headers {
		best, bestScore := -1, 0.0
		for i, f := range candidates {
			if s := Score(h, f.Name); s > bestScore {
				best, bestScore = i, s
			}
		}
		if best < 0 || bestScore <= autoMapThreshold {
			res.Stats.Skipped++
			continue
		}

		f := candidates[best]
		res.Mapping[h] = f.Name
		res.Stats.Mapped++

		if _, seen := claims[f.Name]; !seen {
			claimOrder = append(claimOrder, f.Name)
		}
		claims[f.Name] = append(claims[f.Name], h)

		sugg := FieldSuggestion{Field: f.Name, Header: h, Score: bestScore}
		if data != nil {
			sugg.Suggestions = SuggestTransformations(data.Column(col), f.Type())
		} else {
			sugg.Suggestions = []TransformationKind{TransformNone}
		}
		sugg.Suggested = TransformNone
		if len(sugg.Suggestions) > 1 {
			sugg.Suggested = sugg.Suggestions[1]
		}
		res.Suggestions = append(res.Suggestions, sugg)

		// First header wins the assignment when a field is contested.
		if _, set := res.Transforms[f.Name]; !set {
			res.Transforms[f.Name] = sugg.Suggested
		}
	}

	for _, name := range claimOrder {
		if hs := claims[name]; len(hs) > 1 {
			res.Conflicts = append(res.Conflicts, MappingConflict{Field: name, Headers: slices.Clone(hs)})
		}
	}
	return res
}

// FindConflicts lists fields targeted by more than one header of an
// existing mapping, in header order.
func FindConflicts(headers []string, mapping ColumnMapping) []MappingConflict {
	claims := make(map[string][]string)
	var order []string
	for _, h := range headers {
		f := mapping[h]
		if f == "" {
			continue
		}
		if _, seen := claims[f]; !seen {
			order = append(order, f)
		}
		claims[f] = append(claims[f], h)
	}

	var out []MappingConflict
	for _, f := range order {
		if len(claims[f]) > 1 {
			out = append(out, MappingConflict{Field: f, Headers: claims[f]})
		}
	}
	return out
}
