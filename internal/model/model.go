// Package model defines core data structures for reqtrace.
package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Requirement is one catalog entry. IDs have the form PREFIX_NNN, where
// PREFIX may itself contain underscores, for example REQ_CLS_STATUSBIT_03.
type Requirement struct {
	ID             string
	Description    string
	Specifications []string
}

// IDParts splits the ID on its last underscore into prefix and number.
func (r Requirement) IDParts() (string, int, error) {
	i := strings.LastIndex(r.ID, "_")
	if i < 0 {
		return "", 0, &FormatError{ID: r.ID, Message: "requirement ID has wrong format"}
	}
	number, err := strconv.Atoi(r.ID[i+1:])
	if err != nil {
		return "", 0, &FormatError{ID: r.ID, Message: "requirement ID has wrong number format", Cause: err}
	}
	return r.ID[:i], number, nil
}

// IDPrefix returns the part of the ID before the last underscore.
func (r Requirement) IDPrefix() (string, error) {
	prefix, _, err := r.IDParts()
	return prefix, err
}

// IDNumber returns the numeric suffix of the ID.
func (r Requirement) IDNumber() (int, error) {
	_, number, err := r.IDParts()
	return number, err
}

// Cites reports whether the requirement lists spec among its specifications.
func (r Requirement) Cites(spec string) bool {
	return slices.Contains(r.Specifications, spec)
}

// Location is a documented function or test case.
// Fixture is only set for test cases.
type Location struct {
	Name           string
	Description    string
	File           string
	Line           int
	Fixture        string
	RequirementIDs []string
}

// Key returns the identity of the location. Two locations with the same
// name are the same entity, even when file, line or description differ.
func (l Location) Key() string {
	return l.Name
}

// IsTestCase reports whether the location was extracted from a test fixture.
func (l Location) IsTestCase() bool {
	return l.Fixture != ""
}

// SameRecord compares every field, unlike Key.
func (l Location) SameRecord(other Location) bool {
	return l.Name == other.Name &&
		l.Description == other.Description &&
		l.File == other.File &&
		l.Line == other.Line &&
		l.Fixture == other.Fixture &&
		slices.Equal(l.RequirementIDs, other.RequirementIDs)
}

// FormatError reports a malformed catalog row or requirement ID.
type FormatError struct {
	Line    int      // 1-based line in the catalog, 0 if not known
	Record  []string // raw fields of the offending row
	ID      string
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Line)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.ID != "" {
		fmt.Fprintf(&b, ": %q", e.ID)
	}
	if e.Record != nil {
		fmt.Fprintf(&b, " (row %q)", e.Record)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}
