package querystore_test

import (
	"context"
	"fmt"

	"querystore"
	"querystore/entity"
	memstore "querystore/memory"
)

type Account struct {
	ID     string `db:"id,pk"`
	Name   string `db:"name"`
	Status string `db:"status"`
	Age    int    `db:"age"`
}

// Example demonstrates building declarative filters and running them
// through a repository.
func Example() {
	ctx := context.Background()
	service := memstore.NewService()
	repo, err := memstore.NewRepository[Account](service, entity.NewRegistry())
	if err != nil {
		panic(err)
	}

	_, err = repo.AddAll(ctx, []Account{
		{ID: "1", Name: "john", Status: "active", Age: 34},
		{ID: "2", Name: "joe", Status: "inactive", Age: 51},
		{ID: "3", Name: "mary", Status: "active", Age: 28},
	})
	if err != nil {
		panic(err)
	}

	filter := querystore.NewFilter().
		Must().Eq("status", "active").
		Build()

	accounts, err := repo.FindBy(ctx, filter, querystore.SortBy(querystore.Asc("age")), nil)
	if err != nil {
		panic(err)
	}
	for _, a := range accounts {
		fmt.Println(a.Name, a.Age)
	}

	total, _ := repo.Count(ctx, querystore.Filter{})
	fmt.Println("total:", total)

	// Output:
	// mary 28
	// john 34
	// total: 3
}
