package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupStackMerge(t *testing.T) {
	t.Parallel()

	stack := NewGroupStack(nil)
	stack.Open(GroupAttributes{
		Prefix:     "api",
		Middleware: []string{"auth"},
		Namespace:  "Api",
		NamePrefix: "api.",
	})
	stack.Open(GroupAttributes{
		Prefix:     "v1",
		Middleware: []string{"throttle"},
		Namespace:  "V1",
		NamePrefix: "v1.",
	})

	current := stack.Current()
	assert.Equal(t, "api/v1", current.Prefix)
	assert.Equal(t, []string{"auth", "throttle"}, current.Middleware, "outer middleware first")
	assert.Equal(t, `Api\V1`, current.Namespace)
	assert.Equal(t, "api.v1.", current.NamePrefix)

	stack.Close()
	assert.Equal(t, "api", stack.Current().Prefix)
	stack.Close()
	assert.Equal(t, 0, stack.Depth())
}

func TestGroupStackCloseEmpty(t *testing.T) {
	t.Parallel()

	stack := NewGroupStack(nil)
	stack.Close()
	assert.Equal(t, 0, stack.Depth())
	assert.Equal(t, GroupAttributes{}, stack.Current())
}

func TestGroupStackConstraintMerge(t *testing.T) {
	t.Parallel()

	stack := NewGroupStack(nil)
	stack.Open(GroupAttributes{Wheres: map[string]string{"id": `\d+`, "slug": `[a-z]+`}})
	stack.Open(GroupAttributes{Wheres: map[string]string{"slug": `[a-z-]+`}})

	current := stack.Current()
	assert.Equal(t, `\d+`, current.Wheres["id"])
	assert.Equal(t, `[a-z-]+`, current.Wheres["slug"], "child constraint wins on collision")
}

func TestGroupStackDomainInheritance(t *testing.T) {
	t.Parallel()

	stack := NewGroupStack(nil)
	stack.Open(GroupAttributes{Domain: "example.com", Subdomain: "api"})
	stack.Open(GroupAttributes{Prefix: "v2"})

	current := stack.Current()
	assert.Equal(t, "example.com", current.Domain, "domain survives when child is silent")
	assert.Equal(t, "api", current.Subdomain)

	stack.Open(GroupAttributes{Subdomain: "internal"})
	assert.Equal(t, "internal", stack.Current().Subdomain, "child overrides only when set")

	constraint := stack.Current().domainConstraint()
	require.NotNil(t, constraint)
	assert.Equal(t, "internal.example.com", constraint.Raw)
}

func TestAutoName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		uri  string
		want string
	}{
		{uri: "/api/v1/users", want: "api.v1.users"},
		{uri: "/Users/{id}", want: "users.id"},
		{uri: "/", want: "home"},
		{uri: "", want: "home"},
		{uri: "/a--b__c", want: "a.b.c"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.uri, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AutoName(tt.uri))
		})
	}
}
