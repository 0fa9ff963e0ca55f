package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id     string
	name   string
	email  string
	status string
}

func (r row) EntityID() string       { return r.id }
func (r row) SearchValues() []string { return []string{r.name, r.email} }

func (r row) ToggleStatus() Entity {
	if r.status == "Active" {
		r.status = "Pending"
	} else {
		r.status = "Active"
	}
	return r
}

func (r row) FieldValue(key string) (string, bool) {
	if key == "status" && r.status != "" {
		return r.status, true
	}
	return "", false
}

func rows(n int) []Entity {
	out := make([]Entity, n)
	for i := range out {
		status := "Active"
		if i%2 == 1 {
			status = "Pending"
		}
		out[i] = row{id: fmt.Sprintf("c%d", i+1), name: fmt.Sprintf("Customer %d", i+1), status: status}
	}
	return out
}

func ids(entities []Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.EntityID()
	}
	return out
}

func TestFilterSearchAndCriteria(t *testing.T) {
	t.Parallel()

	list := []Entity{
		row{id: "1", name: "Ann", email: "a@x.io", status: "Active"},
		row{id: "2", name: "Bob", email: "bob@x.io", status: "Pending"},
		row{id: "3", name: "Ana", email: "", status: "Pending"},
		row{id: "4", name: "Zoë", email: "ZOE@X.IO"},
	}

	tests := []struct {
		name     string
		term     string
		criteria Criteria
		want     []string
	}{
		{name: "case insensitive", term: "AN", criteria: NewCriteria("status"), want: []string{"1", "3"}},
		{name: "matches any field", term: "bob@", want: []string{"2"}},
		{name: "folds unicode", term: "zoë", want: []string{"4"}},
		{name: "criterion exact", criteria: Criteria{"status": "Pending"}, want: []string{"2", "3"}},
		{name: "search and criterion", term: "an", criteria: Criteria{"status": "Pending"}, want: []string{"3"}},
		{name: "missing field never matches", criteria: Criteria{"status": "Active", "category": ""}, want: []string{"1"}},
		{name: "no match", term: "nobody", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Filter(list, tc.term, tc.criteria)))
		})
	}
}

func TestFilterIdentityWhenUnconstrained(t *testing.T) {
	t.Parallel()

	list := rows(5)
	got := Filter(list, "", NewCriteria("status"))
	require.Len(t, got, 5)
	assert.Same(t, &list[0], &got[0], "unconstrained filter should return the input slice")
}

func TestFilterWhitespaceTermIsASearch(t *testing.T) {
	t.Parallel()

	list := rows(3)
	assert.Empty(t, Filter(list, "  ", NewCriteria("status")), "no name holds two spaces")
	assert.Len(t, Filter(list, " 2", NewCriteria("status")), 1)
}

func TestFilterIsSubsetPreservingOrder(t *testing.T) {
	t.Parallel()

	list := rows(30)
	got := Filter(list, "1", Criteria{"status": "Active"})
	last := -1
	for _, e := range got {
		i := IndexOf(list, e.EntityID())
		require.GreaterOrEqual(t, i, 0)
		assert.Greater(t, i, last)
		last = i
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	list := rows(25)

	tests := []struct {
		name       string
		page, size int
		wantIDs    []string
		totalPages int
		first      int
		last       int
	}{
		{name: "first page", page: 1, size: 10, wantIDs: ids(list[0:10]), totalPages: 3, first: 0, last: 10},
		{name: "last partial page", page: 3, size: 10, wantIDs: ids(list[20:25]), totalPages: 3, first: 20, last: 30},
		{name: "past the end", page: 4, size: 10, wantIDs: []string{}, totalPages: 3, first: 30, last: 40},
		{name: "default size", page: 1, size: 0, wantIDs: ids(list[0:10]), totalPages: 3, first: 0, last: 10},
		{name: "page below one", page: 0, size: 5, wantIDs: ids(list[0:5]), totalPages: 5, first: 0, last: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(list, tc.page, tc.size)
			assert.Equal(t, tc.wantIDs, ids(p.Items))
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.first, p.FirstIndex)
			assert.Equal(t, tc.last, p.LastIndex)
			assert.Equal(t, 25, p.Total)
		})
	}
}

func TestPaginateEmptyHasOnePage(t *testing.T) {
	p := Paginate(nil, 1, 10)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
}

func TestPaginatePagesPartitionResult(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 9, 10, 11, 37} {
		list := rows(n)
		for _, size := range []int{1, 3, 10} {
			p := Paginate(list, 1, size)
			var seen []string
			for page := 1; page <= p.TotalPages; page++ {
				seen = append(seen, ids(Paginate(list, page, size).Items)...)
			}
			if n == 0 {
				assert.Empty(t, seen)
				continue
			}
			assert.Equal(t, ids(list), seen, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginateItemsAreNotAppendable(t *testing.T) {
	list := rows(12)
	p := Paginate(list, 1, 5)
	_ = append(p.Items, row{id: "intruder"})
	assert.Equal(t, "c6", list[5].EntityID())
}

func TestCriteria(t *testing.T) {
	t.Parallel()

	base := NewCriteria("status", " category ", "")
	assert.Len(t, base, 2)
	assert.Empty(t, base.Active())

	set := base.With("status", " Open ")
	assert.Equal(t, []string{"status"}, set.Active())
	assert.Equal(t, "Open", set["status"])
	assert.Empty(t, base["status"], "With must not modify the receiver")

	assert.True(t, set.Cleared().Equal(base))
	assert.False(t, set.Equal(base))
	assert.Len(t, set.Cleared(), 2)
}

func TestEntityHelpers(t *testing.T) {
	t.Parallel()

	list := rows(3)
	assert.Equal(t, 1, IndexOf(list, "c2"))
	assert.Equal(t, -1, IndexOf(list, "zz"))

	without := Without(list, "c2")
	assert.Equal(t, []string{"c1", "c3"}, ids(without))
	assert.Len(t, list, 3)

	toggled := list[0].(StatusToggler).ToggleStatus()
	replaced := Replace(list, toggled)
	status, _ := replaced[0].FieldValue("status")
	assert.Equal(t, "Pending", status)
	original, _ := list[0].FieldValue("status")
	assert.Equal(t, "Active", original)

	_, ok := Find(list, "c9")
	assert.False(t, ok)
}

func TestFailureKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("status 500")
	err := fmt.Errorf("delete: %w", MutationFailure("customers", "delete", "could not delete", cause))

	assert.Equal(t, ErrorKindMutation, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorKindFetch, KindOf(FetchFailure("orders", cause)))
	assert.Equal(t, ErrorKind(""), KindOf(cause))

	validation := ValidationFailure("menu-items", "update", map[string]string{"price": "must be positive"})
	assert.Contains(t, validation.Error(), "invalid input")
	assert.Equal(t, "must be positive", validation.Fields["price"])
}
