package gen

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/shapegen/compiler/load"
)

// newGraph builds the graph of the schema source src.
func newGraph(t *testing.T, src string, opts ...Option) *Graph {
	t.Helper()
	schemas, err := load.Parse("test.yaml", []byte(src))
	require.NoError(t, err)
	c, err := NewConfig(opts...)
	require.NoError(t, err)
	g, err := NewGraph(context.Background(), c, schemas...)
	require.NoError(t, err)
	return g
}

// userGraph builds the graph of testdata/user.yaml.
func userGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	src, err := os.ReadFile("testdata/user.yaml")
	require.NoError(t, err)
	g := newGraph(t, string(src), opts...)
	require.NoError(t, g.Err())
	return g
}

func TestNewGraph(t *testing.T) {
	g := userGraph(t)
	require.Len(t, g.Nodes, 1)
	require.Len(t, g.Sets, 1)

	user := g.Nodes[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, "test.yaml:2", user.Pos)
	assert.True(t, user.ID)
	require.NotNil(t, user.Root)
	assert.Len(t, user.Root.Fields, 24)

	friends := user.Root.Field("friends")
	require.NotNil(t, friends)
	assert.Equal(t, "UserFriend", friends.Elem.TypeName)
	assert.Same(t, user, friends.Elem.Field("uid").RefType)

	city := user.Root.Field("city")
	assert.False(t, city.Named(), "nested objects of the root are inlined")
	assert.Equal(t, "UserCitySubdocWithoutDefault", city.Field("subdocWithoutDefault").Elem.TypeName)

	model, path, ok := g.registry.Owner("UserFriendDocument")
	require.True(t, ok)
	assert.Equal(t, "User", model)
	assert.Equal(t, "friends", path)
}

func TestNewGraphForwardReference(t *testing.T) {
	g := newGraph(t, `
models:
  - name: Pet
    fields:
      owner:
        type: ObjectId
        ref: User
  - name: User
    fields:
      email: String
`)
	require.NoError(t, g.Err())
	require.Len(t, g.Nodes, 2)
	pet, user := g.Nodes[0], g.Nodes[1]
	assert.Same(t, user, pet.Root.Field("owner").RefType)
}

func TestNewGraphFailures(t *testing.T) {
	t.Run("duplicate model", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: User
    fields:
      email: String
  - name: User
    fields:
      name: String
`)
		require.Len(t, g.Nodes, 1)
		require.Len(t, g.Failures, 1)
		assert.Equal(t, 1, g.Failures[0].Index)
		assert.True(t, IsSchemaError(g.Failures[0].Err))
		assert.NotNil(t, g.Nodes[0].Root.Field("email"), "the first declaration wins")
	})

	t.Run("invalid model name", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: my-model
  - name: Pet
`)
		require.Len(t, g.Failures, 1)
		assert.Equal(t, "my-model", g.Failures[0].Model)
		assert.ErrorIs(t, g.Err(), ErrInvalidSchema)
		require.Len(t, g.Nodes, 1)
	})

	t.Run("fields are not a mapping", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: User
    fields: [email]
`)
		require.Len(t, g.Failures, 1)
		assert.True(t, IsSchemaError(g.Failures[0].Err))
		assert.Nil(t, g.Sets[0])
	})

	t.Run("family collision", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: User
  - name: UserQuery
`)
		require.Len(t, g.Failures, 1)
		var err *NameCollisionError
		require.ErrorAs(t, g.Failures[0].Err, &err)
		assert.Equal(t, "UserQuery", err.Model)
		assert.Equal(t, "UserQuery", err.Name)
		assert.Equal(t, "User", err.OtherModel)
	})

	t.Run("subdocument collision fails the model", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: User
    fields:
      friend:
        type:
          name: String
      friends:
        - name: String
  - name: Pet
    fields:
      owner:
        type: ObjectId
        ref: User
`)
		require.Len(t, g.Failures, 1)
		var err *NameCollisionError
		require.ErrorAs(t, g.Failures[0].Err, &err)
		assert.Equal(t, "UserFriend", err.Name)
		assert.Equal(t, "friends", err.Path)
		assert.Equal(t, "friend", err.OtherPath)
		assert.Nil(t, g.Sets[0])

		// The model is released, its references degrade to unknown targets.
		_, _, ok := g.registry.Owner("UserDocument")
		assert.False(t, ok)
		_, ok = g.Model("User")
		assert.False(t, ok)
		require.NotNil(t, g.Sets[1])
		d, ok := g.Sets[1].Lookup("Pet")
		require.True(t, ok)
		owner := d.Type.(*Object).Prop("owner")
		require.NotNil(t, owner)
		assert.Equal(t, &Union{Types: []Expr{&RefID{Fallback: objectIDRef}, anyType}}, owner.Type)
	})

	t.Run("subdocument collides with the family", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: User
    fields:
      queries:
        type:
          name: String
`)
		require.Len(t, g.Failures, 1)
		assert.True(t, IsNameCollisionError(g.Failures[0].Err))
	})

	t.Run("suffix policy", func(t *testing.T) {
		g := newGraph(t, `
models:
  - name: User
    fields:
      friend:
        type:
          name: String
      friends:
        - name: String
`, WithCollision("suffix"))
		require.NoError(t, g.Err())
		root := g.Nodes[0].Root
		assert.Equal(t, "UserFriend", root.Field("friend").TypeName)
		assert.Equal(t, "UserFriend2", root.Field("friends").Elem.TypeName)
	})

	t.Run("collisions are deterministic", func(t *testing.T) {
		src := `
models:
  - name: A
    fields:
      b:
        type:
          x: String
  - name: AB
`
		for range 10 {
			g := newGraph(t, src, WithWorkers(4))
			require.Len(t, g.Failures, 1)
			assert.Equal(t, "A", g.Failures[0].Model, "model names are claimed before subdocuments")
		}
	})
}

func TestNewGraphDiscriminators(t *testing.T) {
	g := newGraph(t, `
models:
  - name: Event
    options:
      discriminatorKey: kind
    fields:
      at: Date
    discriminators:
      - name: Click
        value: click
        fields:
          x: Number
      - name: Scroll
        fields:
          offset: Number
`)
	require.NoError(t, g.Err())
	require.Len(t, g.Nodes, 1)
	event := g.Nodes[0]
	require.Len(t, event.Discriminators, 2)

	click := event.Discriminators[0]
	assert.True(t, click.IsVariant())
	assert.Equal(t, "Event.Click", click.Label())
	assert.Equal(t, "kind", click.Key)
	assert.Equal(t, "click", click.Value)
	assert.False(t, click.ID)
	assert.Equal(t, "Scroll", event.Discriminators[1].Value)

	set, ok := g.Set("Click")
	require.True(t, ok)
	assert.Same(t, g.Sets[0], set)
	_, ok = set.Lookup("ClickDocument")
	assert.True(t, ok)
}

func TestNewGraphContext(t *testing.T) {
	schemas, err := load.Parse("test.yaml", []byte("models:\n  - name: User\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewGraph(ctx, MustNewConfig(), schemas...)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewGraph(context.Background(), nil, schemas...)
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestNewGraphLogs(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(zerolog.SyncWriter(&buf))
	g := newGraph(t, `
models:
  - name: User
    fields:
      avatar: Image
      owner:
        type: ObjectId
        ref: Account
`, WithLogger(log))
	require.NoError(t, g.Err())
	assert.Contains(t, buf.String(), `unknown type \"Image\", falling back to Mixed`)
	assert.Contains(t, buf.String(), `"ref":"Account"`)
	assert.True(t, g.Nodes[0].Root.Field("avatar").Unknown)
}

func TestGraphDrop(t *testing.T) {
	g := newGraph(t, `
models:
  - name: Pet
    fields:
      name: String
    discriminators:
      - name: Cat
        fields:
          lives: Number
  - name: Owner
    fields:
      pets:
        - type: ObjectId
          ref: Pet
  - name: Shelter
    fields:
      cat:
        type: ObjectId
        ref: Cat
  - name: Vet
    fields:
      name: String
`)
	require.NoError(t, g.Err())
	owner, ok := g.Lookup("Owner")
	require.True(t, ok)
	pets := props(t, owner).Prop("pets").Type.(*Array)
	assert.Equal(t, &Ident{Name: "Pet"}, pets.Elem.(*Union).Types[1])

	rebuilt, err := g.drop(context.Background(), []int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rebuilt, "models referring to Pet or its variants")
	assert.Nil(t, g.Sets[0])
	assert.Empty(t, g.Failures, "dropped models are reported by the caller")
	_, ok = g.Set("Cat")
	assert.False(t, ok)

	owner, ok = g.Lookup("Owner")
	require.True(t, ok)
	pets = props(t, owner).Prop("pets").Type.(*Array)
	assert.Equal(t, &Union{Types: []Expr{&RefID{Fallback: objectIDRef}, anyType}}, pets.Elem)

	shelter, ok := g.Lookup("Shelter")
	require.True(t, ok)
	assert.Equal(t, &Union{Types: []Expr{&RefID{Fallback: objectIDRef}, anyType}}, props(t, shelter).Prop("cat").Type)
	_, ok = g.Lookup("Vet")
	assert.True(t, ok, "unrelated models are kept")
}
