package schema

import (
	"fmt"
	"strings"
)

// ============================================================================
// VALIDATION — Fail fast when the spreadsheet does not match the schema
// ============================================================================

// Validate checks that every field the schema references exists.
// overview holds the Overview worksheet columns; sheets maps each category
// worksheet name to its columns. All missing fields are reported at once.
func (s Schema) Validate(overview []string, sheets map[string][]string) error {
	var missing []string

	have := toSet(overview)
	for _, f := range s.OverviewFields() {
		if !have[f] {
			missing = append(missing, fmt.Sprintf("%s.%s", OverviewSheet, f))
		}
	}

	for _, c := range s.categories {
		if len(c.Indicators) == 0 {
			continue
		}
		cols, ok := sheets[c.Sheet()]
		if !ok {
			missing = append(missing, fmt.Sprintf("worksheet %s", c.Sheet()))
			continue
		}
		set := toSet(cols)
		if !set[FieldName] {
			missing = append(missing, fmt.Sprintf("%s.%s", c.Sheet(), FieldName))
		}
		for _, ind := range c.Indicators {
			if !set[ind] {
				missing = append(missing, fmt.Sprintf("%s.%s", c.Sheet(), ind))
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.TrimSpace(item)] = true
	}
	return set
}
