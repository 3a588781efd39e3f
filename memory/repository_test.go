package memstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querystore"
	"querystore/entity"
)

type Person struct {
	ID     string `db:"id,pk"`
	Name   string `db:"name"`
	Status string `db:"status"`
	Age    int    `db:"age"`
}

func newPersonRepo(t *testing.T) *Repository[Person] {
	t.Helper()
	repo, err := NewRepository[Person](NewService(), entity.NewRegistry())
	require.NoError(t, err)
	return repo
}

func seedPeople(t *testing.T, repo *Repository[Person], people ...Person) {
	t.Helper()
	_, err := repo.AddAll(context.Background(), people)
	require.NoError(t, err)
}

func names(people []Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return out
}

// Must and Should join at the same level: a row matches when the conjunctive
// clause holds or any should-clause does.
func TestFindByMustWithShould(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "john", Status: "active", Age: 30},
		Person{ID: "2", Name: "joe", Status: "inactive", Age: 40},
		Person{ID: "3", Name: "mary", Status: "inactive", Age: 50},
	)

	filter := querystore.NewFilter().
		Must().Eq("status", "active").
		Should().Contains("name", "jo").
		Build()
	people, err := repo.FindBy(ctx, filter, querystore.SortBy(querystore.Asc("id")), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"john", "joe"}, names(people))

	mustOnly := querystore.NewFilter().Must().Eq("status", "active").Build()
	people, err = repo.FindBy(ctx, mustOnly, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"john"}, names(people))
}

func TestFindByMustNot(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "john", Status: "active"},
		Person{ID: "2", Name: "bot", Status: "active"},
	)

	filter := querystore.NewFilter().
		Must().Eq("status", "active").
		MustNot().Eq("name", "bot").
		Build()
	people, err := repo.FindBy(ctx, filter, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"john"}, names(people))
}

func TestEmptyFilterMatchesAll(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a"},
		Person{ID: "2", Name: "b"},
	)

	people, err := repo.FindBy(ctx, querystore.Filter{}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, people, 2)

	// A predicate with no values compiles to nothing.
	empty := querystore.NewFilter().Must().In("status").Build()
	people, err = repo.FindBy(ctx, empty, nil, nil)
	require.NoError(t, err)
	assert.Len(t, people, 2)
}

func TestFindByRangeInclusive(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Age: 9},
		Person{ID: "2", Name: "b", Age: 10},
		Person{ID: "3", Name: "c", Age: 20},
		Person{ID: "4", Name: "d", Age: 21},
	)

	between := querystore.NewFilter().Must().Between("age", 10, 20).Build()
	people, err := repo.FindBy(ctx, between, querystore.SortBy(querystore.Asc("age")), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(people), "bounds are inclusive")

	notBetween := querystore.NewFilter().Must().NotBetween("age", 10, 20).Build()
	people, err = repo.FindBy(ctx, notBetween, querystore.SortBy(querystore.Asc("age")), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, names(people))
}

// StartsWith keeps the leading wildcard and EndsWith the trailing one, the
// same placement the SQL compiler emits.
func TestFindByWildcardPlacement(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "jason"},
		Person{ID: "2", Name: "sonja"},
	)

	starts := querystore.NewFilter().Must().StartsWith("name", "son").Build()
	people, err := repo.FindBy(ctx, starts, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"jason"}, names(people))

	ends := querystore.NewFilter().Must().EndsWith("name", "son").Build()
	people, err = repo.FindBy(ctx, ends, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sonja"}, names(people))
}

func TestFindByInSet(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Status: "active"},
		Person{ID: "2", Name: "b", Status: "pending"},
		Person{ID: "3", Name: "c", Status: "banned"},
	)

	in := querystore.NewFilter().Must().In("status", "active", "pending").Build()
	people, err := repo.FindBy(ctx, in, querystore.SortBy(querystore.Asc("id")), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(people))

	notIn := querystore.NewFilter().Must().NotIn("status", "active", "pending").Build()
	people, err = repo.FindBy(ctx, notIn, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(people))

	// Single-element membership behaves as scalar equality.
	single := querystore.NewFilter().Must().In("status", "banned").Build()
	people, err = repo.FindBy(ctx, single, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(people))
}

func TestFindByMissingFieldNeverMatches(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "a"})

	filter := querystore.NewFilter().Must().Eq("nickname", "x").Build()
	people, err := repo.FindBy(ctx, filter, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestFindByBadArityFailsFast(t *testing.T) {
	repo := newPersonRepo(t)
	seedPeople(t, repo, Person{ID: "1", Name: "a", Age: 15})

	filter := querystore.NewFilter().
		Must().Append(querystore.Predicate{Kind: querystore.KindBetween, Field: "age", Values: []any{1, 2, 3}}).
		Build()
	_, err := repo.FindBy(context.Background(), filter, nil, nil)
	require.Error(t, err)
	assert.True(t, querystore.IsValidationError(err))
}

func TestFindByMultiKeySort(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Status: "x", Age: 30},
		Person{ID: "2", Name: "b", Status: "y", Age: 20},
		Person{ID: "3", Name: "c", Status: "x", Age: 20},
	)

	srt := querystore.SortBy(querystore.Asc("age"), querystore.Desc("status"))
	people, err := repo.FindBy(ctx, querystore.Filter{}, srt, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, names(people))
}

func TestFindAndProjection(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "ada", Status: "active", Age: 36})

	found, err := repo.Find(ctx, querystore.NewIdentity("1"), querystore.Fields{"id", "name"})
	require.NoError(t, err)
	assert.Equal(t, "ada", found.Name)
	assert.Empty(t, found.Status, "unselected fields stay zero")

	_, err = repo.Find(ctx, querystore.NewIdentity("absent"), nil)
	require.Error(t, err)
	assert.True(t, querystore.IsNotFound(err))
}

func TestExistsMatchesCount(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "ada"})

	exists, err := repo.Exists(ctx, querystore.NewIdentity("1"))
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.Count(ctx, querystore.NewFilter().Must().Eq("id", "1").Build())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err = repo.Exists(ctx, querystore.NewIdentity("absent"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFindAllPagination(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Age: 1},
		Person{ID: "2", Name: "b", Age: 2},
		Person{ID: "3", Name: "c", Age: 3},
		Person{ID: "4", Name: "d", Age: 4},
		Person{ID: "5", Name: "e", Age: 5},
	)

	pageable := querystore.NewPageable(3, 2).WithSort(querystore.SortBy(querystore.Asc("age")))
	page, err := repo.FindAll(ctx, pageable)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, []string{"e"}, names(page.Items), "the last page holds the remainder")
	assert.False(t, page.HasNext())
}

func TestFindAllNilPageableEqualsFindBy(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a"},
		Person{ID: "2", Name: "b"},
	)

	all, err := repo.FindBy(ctx, querystore.Filter{}, nil, nil)
	require.NoError(t, err)

	page, err := repo.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, all, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, int64(len(all)), page.TotalCount)
}

func TestFindAllInvalidPageable(t *testing.T) {
	repo := newPersonRepo(t)
	_, err := repo.FindAll(context.Background(), querystore.NewPageable(1, 0))
	require.Error(t, err)
	assert.True(t, querystore.IsValidationError(err))
}

func TestFindByDistinct(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Status: "active"},
		Person{ID: "2", Name: "b", Status: "active"},
		Person{ID: "3", Name: "c", Status: "inactive"},
	)

	rows, err := repo.FindByDistinct(ctx, querystore.Fields{"status"},
		querystore.Filter{}, querystore.SortBy(querystore.Asc("status")))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "active", rows[0].Status)
	assert.Equal(t, "inactive", rows[1].Status)
}

func TestFindAllDistinctOverridesFields(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Status: "active"},
		Person{ID: "2", Name: "b", Status: "active"},
	)

	pageable := querystore.NewPageable(1, 10).
		WithFields("id", "name").
		WithDistinct("status")
	page, err := repo.FindAll(ctx, pageable)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount, "totals follow the distinct projection")
	require.Len(t, page.Items, 1)
	assert.Equal(t, "active", page.Items[0].Status)
	assert.Empty(t, page.Items[0].Name)
}

func TestAddGeneratesID(t *testing.T) {
	registry := entity.NewRegistry(entity.WithIDStrategy(entity.UUIDStrategy))
	repo, err := NewRepository[Person](NewService(), registry)
	require.NoError(t, err)

	added, err := repo.Add(context.Background(), Person{Name: "ada"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
}

func TestAddDuplicateKey(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "a"})

	_, err := repo.Add(ctx, Person{ID: "1", Name: "dup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, querystore.ErrRecordExists)
}

func TestAddAllFailFast(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()

	_, err := repo.AddAll(ctx, []Person{
		{ID: "1", Name: "a"},
		{ID: "1", Name: "dup"},
		{ID: "3", Name: "never"},
	})
	require.Error(t, err)

	count, err := repo.Count(ctx, querystore.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpdate(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "ada", Age: 36})

	_, err := repo.Update(ctx, Person{ID: "1", Name: "ada lovelace", Age: 37})
	require.NoError(t, err)

	found, err := repo.Find(ctx, querystore.NewIdentity("1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "ada lovelace", found.Name)
	assert.Equal(t, 37, found.Age)

	_, err = repo.Update(ctx, Person{ID: "absent"})
	require.Error(t, err)
	assert.True(t, querystore.IsNotFound(err))
}

func TestRemoveIdempotent(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "a"})

	removed, err := repo.Remove(ctx, querystore.NewIdentity("1"))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, querystore.NewIdentity("1"))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveAllIdempotent(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo,
		Person{ID: "1", Name: "a", Status: "stale"},
		Person{ID: "2", Name: "b", Status: "stale"},
		Person{ID: "3", Name: "c", Status: "fresh"},
	)

	filter := querystore.NewFilter().Must().Eq("status", "stale").Build()
	removed, err := repo.RemoveAll(ctx, filter)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveAll(ctx, filter)
	require.NoError(t, err)
	assert.False(t, removed, "a second identical call removes nothing and raises no error")

	count, err := repo.Count(ctx, querystore.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTransactionalRollback(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()
	seedPeople(t, repo, Person{ID: "1", Name: "a"})

	boom := errors.New("boom")
	err := repo.Transactional(ctx, func(txCtx context.Context) error {
		if _, err := repo.Add(txCtx, Person{ID: "2", Name: "temp"}); err != nil {
			return err
		}
		if _, err := repo.Remove(txCtx, querystore.NewIdentity("1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom, "the callback error comes back unmodified")

	count, err := repo.Count(ctx, querystore.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "the snapshot is restored in full")

	exists, err := repo.Exists(ctx, querystore.NewIdentity("1"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTransactionalCommit(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()

	err := repo.Transactional(ctx, func(txCtx context.Context) error {
		if _, err := repo.Add(txCtx, Person{ID: "1", Name: "a"}); err != nil {
			return err
		}
		_, err := repo.Add(txCtx, Person{ID: "2", Name: "b"})
		return err
	})
	require.NoError(t, err)

	count, err := repo.Count(ctx, querystore.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTransactionalNestedJoins(t *testing.T) {
	repo := newPersonRepo(t)
	ctx := context.Background()

	err := repo.Transactional(ctx, func(outer context.Context) error {
		return repo.Transactional(outer, func(inner context.Context) error {
			_, err := repo.Add(inner, Person{ID: "1", Name: "a"})
			return err
		})
	})
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, querystore.NewIdentity("1"))
	require.NoError(t, err)
	assert.True(t, exists)
}

type Metric struct {
	ID    string  `db:"id,pk"`
	Name  string  `db:"name"`
	Value float64 `db:"value"`
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	service := NewService()
	repo, err := NewRepository[Metric](service, entity.NewRegistry())
	require.NoError(t, err)

	_, err = repo.AddAll(ctx, []Metric{
		{ID: "1", Name: "latency", Value: 12.5},
		{ID: "2", Name: "errors", Value: 3},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tables.json")
	require.NoError(t, service.SaveTo(path))

	restored := NewService()
	require.NoError(t, restored.LoadFrom(path))
	repo2, err := NewRepository[Metric](restored, entity.NewRegistry())
	require.NoError(t, err)

	metrics, err := repo2.FindBy(ctx, querystore.Filter{}, querystore.SortBy(querystore.Asc("id")), nil)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "latency", metrics[0].Name)
	assert.Equal(t, 12.5, metrics[0].Value)
	assert.Equal(t, float64(3), metrics[1].Value)
}
