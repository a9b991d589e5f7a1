package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// extract writes the files of a txtar archive from testdata into a temporary
// directory and returns its path.
func extract(t *testing.T, name string) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	dir := t.TempDir()
	for _, f := range ar.Files {
		p := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
	return dir
}

func TestConfigLoad(t *testing.T) {
	dir := extract(t, "models.txtar")
	schemas, err := (&Config{Paths: []string{dir}}).Load()
	require.NoError(t, err)

	// pet.json sorts before user.yaml.
	require.Len(t, schemas, 3)
	assert.Equal(t, "Pet", schemas[0].Name)
	assert.Equal(t, "User", schemas[1].Name)
	assert.Equal(t, "Event", schemas[2].Name)
	assert.Equal(t, filepath.Join(dir, "user.yaml")+":2", schemas[1].Pos)

	pet := schemas[0]
	require.True(t, pet.Fields.IsMapping())
	assert.Equal(t, []string{"name", "owner"}, keys(pet.Fields))
	assert.Equal(t, "User", pet.Fields.Get("owner").Get("ref").Text())
}

func TestConfigFiles(t *testing.T) {
	dir := extract(t, "models.txtar")

	t.Run("directory", func(t *testing.T) {
		files, err := (&Config{Paths: []string{dir}}).Files()
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "pet.json"),
			filepath.Join(dir, "user.yaml"),
		}, files)
	})

	t.Run("glob", func(t *testing.T) {
		files, err := (&Config{Paths: []string{filepath.Join(dir, "*")}}).Files()
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("deduplicated", func(t *testing.T) {
		user := filepath.Join(dir, "user.yaml")
		files, err := (&Config{Paths: []string{user, dir}}).Files()
		require.NoError(t, err)
		assert.Equal(t, []string{user, filepath.Join(dir, "pet.json")}, files)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := (&Config{Paths: []string{filepath.Join(dir, "*.ts")}}).Files()
		require.ErrorIs(t, err, ErrNoSchema)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := (&Config{Paths: []string{filepath.Join(dir, "missing.yaml")}}).Files()
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestParseSchema(t *testing.T) {
	dir := extract(t, "models.txtar")
	data, err := os.ReadFile(filepath.Join(dir, "user.yaml"))
	require.NoError(t, err)
	schemas, err := Parse("user.yaml", data)
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	user := schemas[0]
	assert.Equal(t, []string{"email", "nickname", "tags", "age", "city"}, keys(user.Fields))
	assert.Equal(t, "the display name", user.Fields.Entry("nickname").Comment)
	assert.Equal(t, "in years", user.Fields.Entry("age").Comment)
	assert.Empty(t, user.Fields.Entry("email").Comment)

	required, ok := user.Fields.Get("email").Get("required").Bool()
	assert.True(t, ok)
	assert.True(t, required)

	tags := user.Fields.Get("tags")
	require.True(t, tags.IsSequence())
	assert.Equal(t, "String", tags.Items[0].Text())

	require.NotNil(t, user.Options.Timestamps)
	assert.Equal(t, Timestamps{CreatedAt: "createdAt", UpdatedAt: "updatedAt"}, *user.Options.Timestamps)
	assert.True(t, user.Options.HasID())

	require.Len(t, user.Methods, 2)
	assert.Equal(t, "touch", user.Methods[0].Name)
	assert.Empty(t, user.Methods[0].Signature)
	assert.Equal(t, "isActive", user.Methods[1].Name)
	assert.Equal(t, "(this: UserDocument) => boolean", user.Methods[1].Signature)
	assert.Equal(t, "reports if the user is active", user.Methods[1].Doc)

	require.Len(t, user.Statics, 1)
	assert.Equal(t, "finds a user by email", user.Statics[0].Doc)
	assert.Contains(t, user.Statics[0].Signature, "Promise<UserDocument>")
	require.Len(t, user.Query, 1)
	assert.Equal(t, "active", user.Query[0].Name)

	require.Len(t, user.Virtuals, 2)
	assert.Equal(t, Virtual{Name: "fullName", Get: "string"}, *user.Virtuals[0])
	assert.Equal(t, Virtual{Name: "slug", Get: "string", Set: "string"}, *user.Virtuals[1])

	event := schemas[1]
	assert.False(t, event.Options.HasID())
	assert.Equal(t, Timestamps{CreatedAt: "created"}, *event.Options.Timestamps)
	assert.Equal(t, "kind", event.DiscriminatorKey())
	require.Len(t, event.Discriminators, 2)
	assert.Equal(t, "click", event.Discriminators[0].DiscriminatorValue())
	assert.Equal(t, "Scroll", event.Discriminators[1].DiscriminatorValue())
	assert.Equal(t, DefaultDiscriminatorKey, event.Discriminators[1].DiscriminatorKey())
	assert.NotEmpty(t, event.Discriminators[0].Pos)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "models: [", "parse"},
		{"missing name", "models:\n  - fields: {a: String}\n", "missing a name"},
		{"empty model", "models:\n  - \n", "is empty"},
		{"duplicate field", "models:\n  - name: A\n    fields:\n      a: String\n      a: Number\n", "duplicate key"},
		{"bad methods", "models:\n  - name: A\n    methods: [a]\n", "mapping of function names"},
		{"bad timestamps", "models:\n  - name: A\n    options:\n      timestamps: [a]\n", "timestamps"},
		{"nameless variant", "models:\n  - name: A\n    discriminators:\n      - fields: {a: String}\n", "missing a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.yaml", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValue(t *testing.T) {
	src := `
models:
  - name: A
    fields:
      z: String
      a: [Number]
      m: {}
      n: ~
      b: true
      ref: &r {type: String}
      alias: *r
`
	schemas, err := Parse("value.yaml", []byte(src))
	require.NoError(t, err)
	fields := schemas[0].Fields

	assert.Equal(t, []string{"z", "a", "m", "n", "b", "ref", "alias"}, keys(fields))
	assert.True(t, fields.Get("z").IsScalar())
	assert.True(t, fields.Get("a").IsSequence())
	assert.True(t, fields.Get("m").IsMapping())
	assert.Empty(t, fields.Get("m").Entries)
	assert.True(t, fields.Get("n").IsNull())
	assert.True(t, fields.Get("missing").IsNull())
	assert.False(t, fields.Has("missing"))

	b, ok := fields.Get("b").Bool()
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = fields.Get("z").Bool()
	assert.False(t, ok)

	assert.Equal(t, "String", fields.Get("alias").Get("type").Text())
	assert.Equal(t, "{type: String}", fields.Get("ref").String())
	assert.Equal(t, "[Number]", fields.Get("a").String())
}

func TestComment(t *testing.T) {
	assert.Equal(t, "", Comment(""))
	assert.Equal(t, "one", Comment("# one"))
	assert.Equal(t, "one\ntwo", Comment("# one\n# two"))
	assert.Equal(t, "/** inline */", Comment("# /** inline */"))
	assert.Equal(t, "  indented", Comment("#   indented"))
}

func keys(v *Value) []string {
	var ks []string
	for _, e := range v.Entries {
		ks = append(ks, e.Key)
	}
	return ks
}
