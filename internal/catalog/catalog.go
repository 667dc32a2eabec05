// Package catalog parses the requirement catalog CSV file.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/phobologic/reqtrace/internal/model"
)

// Columns is the number of fields in every catalog row:
// ID, Description, Specifications.
const Columns = 3

// ParseFile parses the catalog at path. See Parse.
func ParseFile(path string) ([]model.Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening requirements file: %w", err)
	}
	defer f.Close()

	reqs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// Parse reads comma-separated rows of ID, Description and Specifications,
// where Specifications is itself a comma-joined list. The first row is a
// header and is ignored. Rows whose ID is empty after cleaning are skipped.
// A blank line between rows is a row without columns and fails like any
// other short row; blank lines at the end of the input are ignored.
// The result is sorted by ID as plain strings, so REQ_10 comes before REQ_2.
func Parse(r io.Reader) ([]model.Requirement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var reqs []model.Requirement
	prevEnd := 0 // last line of the previous record
	for first := true; ; first = false {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &model.FormatError{Line: line, Message: "unreadable row", Cause: err}
		}

		line, _ := cr.FieldPos(0)
		if prevEnd > 0 && line > prevEnd+1 {
			return nil, &model.FormatError{
				Line:    prevEnd + 1,
				Message: fmt.Sprintf("expected %d columns, got 0", Columns),
			}
		}
		lastLine, _ := cr.FieldPos(len(record) - 1)
		prevEnd = lastLine + strings.Count(record[len(record)-1], "\n")

		if first {
			continue
		}

		if len(record) != Columns {
			return nil, &model.FormatError{
				Line:    line,
				Record:  record,
				Message: fmt.Sprintf("expected %d columns, got %d", Columns, len(record)),
			}
		}

		id := cleanID(record[0])
		if id == "" {
			continue
		}
		reqs = append(reqs, model.Requirement{
			ID:             id,
			Description:    strings.TrimSpace(record[1]),
			Specifications: splitSpecifications(record[2]),
		})
	}

	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].ID < reqs[j].ID
	})
	return reqs, nil
}

// cleanID drops surrounding whitespace and leading '?' and '_' markers,
// which authors use for draft entries.
func cleanID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimLeft(id, "?_")
	return strings.TrimSpace(id)
}

func splitSpecifications(field string) []string {
	var specs []string
	for _, s := range strings.Split(field, ",") {
		if s = strings.TrimSpace(s); s != "" {
			specs = append(specs, s)
		}
	}
	return specs
}
