package querystore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querystore"
)

func TestNewPageTotals(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		size       int
		wantPages  int
	}{
		{"exact fit", 20, 10, 2},
		{"partial last page", 21, 10, 3},
		{"single short page", 3, 10, 1},
		{"empty", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := querystore.NewPage([]string{}, tt.total, 1, tt.size)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalCount)
		})
	}
}

func TestSinglePage(t *testing.T) {
	p := querystore.SinglePage([]string{"a", "b", "c"})
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, int64(3), p.TotalCount)
	assert.False(t, p.HasNext())

	empty := querystore.SinglePage([]string{})
	assert.Equal(t, 1, empty.TotalPages)
	assert.True(t, empty.IsEmpty())
}

func TestPageableValidate(t *testing.T) {
	require.NoError(t, querystore.NewPageable(1, 10).Validate())

	err := querystore.NewPageable(0, 10).Validate()
	require.Error(t, err)
	assert.True(t, querystore.IsValidationError(err))

	err = querystore.NewPageable(1, 0).Validate()
	require.Error(t, err)
	assert.True(t, querystore.IsValidationError(err))

	bad := querystore.NewPageable(1, 10).WithFilter(
		querystore.NewFilter().
			Must().Append(querystore.Predicate{Kind: querystore.KindBetween, Field: "a", Values: []any{1}}).
			Build())
	err = bad.Validate()
	require.Error(t, err)
	assert.True(t, querystore.IsValidationError(err))
}

func TestPageableOffset(t *testing.T) {
	assert.Equal(t, 0, querystore.NewPageable(1, 25).Offset())
	assert.Equal(t, 50, querystore.NewPageable(3, 25).Offset())
}

func TestPageableWithCopies(t *testing.T) {
	base := querystore.NewPageable(1, 10)
	withSort := base.WithSort(querystore.SortBy(querystore.Asc("name")))

	assert.Empty(t, base.Sort, "With* must not mutate the receiver")
	assert.Len(t, withSort.Sort, 1)

	withDistinct := base.WithDistinct("status")
	assert.Empty(t, base.Distinct)
	assert.Equal(t, querystore.Fields{"status"}, withDistinct.Distinct)
}
