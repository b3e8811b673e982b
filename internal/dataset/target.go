package dataset

import "strings"

// targetNames are checked in order against lower-cased column names.
var targetNames = []string{"label", "target", "class", "y"}

// DetectTarget picks a likely label column: a conventionally named column,
// else the last column when it is not numeric.
func DetectTarget(t *Table) (string, bool) {
	for _, want := range targetNames {
		for _, c := range t.Columns {
			if strings.ToLower(c) == want {
				return c, true
			}
		}
	}
	if len(t.Columns) > 0 {
		last := t.Columns[len(t.Columns)-1]
		if !t.IsNumeric(last) {
			return last, true
		}
	}
	return "", false
}
