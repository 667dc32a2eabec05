package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementIDParts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id         string
		wantPrefix string
		wantNumber int
	}{
		{"REQ_CLS_STATUSBIT_03", "REQ_CLS_STATUSBIT", 3},
		{"REQ_A_01", "REQ_A", 1},
		{"X_10", "X", 10},
		{"_7", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			r := Requirement{ID: tt.id}
			prefix, number, err := r.IDParts()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantNumber, number)

			p, err := r.IDPrefix()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, p)
			n, err := r.IDNumber()
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, n)
		})
	}
}

func TestRequirementIDPartsMalformed(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"REQ", "REQ_A_xx", "REQ_A_", ""} {
		_, _, err := Requirement{ID: id}.IDParts()
		require.Error(t, err, "id %q", id)

		var fe *FormatError
		require.True(t, errors.As(err, &fe), "id %q: want *FormatError, got %T", id, err)
		assert.Equal(t, id, fe.ID)
	}
}

func TestRequirementCites(t *testing.T) {
	t.Parallel()

	r := Requirement{ID: "REQ_A_01", Specifications: []string{"SPEC1", "SPEC2"}}
	assert.True(t, r.Cites("SPEC2"))
	assert.False(t, r.Cites("SPEC3"))
}

func TestLocationIdentity(t *testing.T) {
	t.Parallel()

	a := Location{Name: "foo", File: "a.c", Line: 1, RequirementIDs: []string{"REQ_A_01"}}
	b := Location{Name: "foo", File: "b.c", Line: 9}

	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.SameRecord(b))
	assert.True(t, a.SameRecord(a))
	assert.False(t, a.IsTestCase())
	assert.True(t, Location{Name: "t", Fixture: "FixtureA"}.IsTestCase())
}

func TestFormatErrorMessage(t *testing.T) {
	t.Parallel()

	err := &FormatError{Line: 4, Record: []string{"a", "b"}, Message: "expected 3 columns, got 2"}
	assert.Contains(t, err.Error(), "line 4")
	assert.Contains(t, err.Error(), "expected 3 columns")
	assert.Contains(t, err.Error(), `"a"`)
}
