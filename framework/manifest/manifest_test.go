package manifest_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/manifest"
)

type dog struct{ name string }

type human struct{ pet *dog }

func catalog() manifest.Catalog {
	return manifest.Catalog{
		"zoo.dog":   func([]any) (any, error) { return &dog{name: "Rex"}, nil },
		"zoo.human": func(deps []any) (any, error) { return &human{pet: deps[0].(*dog)}, nil },
		"farm.any":  func([]any) (any, error) { return struct{}{}, nil },
	}
}

func TestLoad_Zoo(t *testing.T) {
	t.Parallel()
	m, err := manifest.Load("testdata/zoo.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"dog", "human", "puppy"}, m.IDs())
	assert.Equal(t, 2, m.Beans[0].Line)
	assert.Equal(t, []string{"dog"}, m.Beans[1].DependsOn)
	assert.Equal(t, "prototype", m.Beans[2].Lifetime)
}

func TestApply_WiresContainer(t *testing.T) {
	t.Parallel()
	m, err := manifest.Load("testdata/zoo.yaml")
	require.NoError(t, err)

	c := container.New()
	require.NoError(t, m.Apply(c, catalog()))
	require.NoError(t, c.Validate())

	h, err := container.Resolve[*human](c, "human")
	require.NoError(t, err)
	d, err := container.Resolve[*dog](c, "dog")
	require.NoError(t, err)
	assert.Same(t, d, h.pet)

	owner, err := c.Resolve("owner")
	require.NoError(t, err)
	assert.Same(t, h, owner)

	people, err := c.Tagged("people")
	require.NoError(t, err)
	assert.Equal(t, []any{h}, people)

	assert.NotSame(t, c.Make("puppy"), c.Make("puppy"))
	def, ok := c.Definition("puppy")
	require.True(t, ok)
	assert.Equal(t, container.LifetimeTransient, def.Lifetime)
}

func TestApply_CycleSurfacesOnValidate(t *testing.T) {
	t.Parallel()
	m, err := manifest.Load("testdata/cycle.yaml")
	require.NoError(t, err)

	c := container.New()
	require.NoError(t, m.Apply(c, catalog()))

	assert.ErrorIs(t, c.Validate(), container.ErrCyclicDependency)
	_, err = c.Resolve("chicken")
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
}

func TestApply_UnknownKindRegistersNothing(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse([]byte(`
beans:
  - id: dog
    kind: zoo.dog
  - id: cat
    kind: zoo.cat
`))
	require.NoError(t, err)

	c := container.New()
	err = m.Apply(c, catalog())
	assert.ErrorIs(t, err, manifest.ErrUnknownKind)
	assert.ErrorContains(t, err, `bean "cat": unknown bean kind "zoo.cat"`)
	assert.False(t, c.Bound("dog"))
}

func TestApply_DuplicateWithExistingBean(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse([]byte("beans:\n  - id: dog\n    kind: zoo.dog\n"))
	require.NoError(t, err)

	c := container.New()
	c.Instance("dog", &dog{name: "Fido"})
	assert.ErrorIs(t, m.Apply(c, catalog()), container.ErrDuplicateDefinition)
}

func TestApply_ExistingIDRegistersNothing(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse([]byte(`
beans:
  - id: dog
    kind: zoo.dog
    aliases: [rex]
    tags: [pets]
  - id: human
    kind: zoo.human
    depends_on: [dog]
`))
	require.NoError(t, err)

	c := container.New()
	require.NoError(t, c.Register("human", func([]any) (any, error) { return &human{}, nil }))

	err = m.Apply(c, catalog())
	assert.ErrorIs(t, err, container.ErrDuplicateDefinition)
	assert.ErrorContains(t, err, `bean "human"`)
	assert.False(t, c.Bound("dog"))
	assert.False(t, c.Bound("rex"))
	assert.Empty(t, c.TagsOf("dog"))
}

func TestApply_RollsBackWhenRegistrationFails(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse([]byte(`
beans:
  - id: dog
    kind: zoo.dog
  - id: ghost
    kind: zoo.ghost
`))
	require.NoError(t, err)

	cat := catalog()
	cat["zoo.ghost"] = nil

	c := container.New()
	err = m.Apply(c, cat)
	assert.ErrorIs(t, err, container.ErrInvalidDefinition)
	assert.False(t, c.Bound("dog"))
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown top-level key",
			doc:  "bean:\n  - id: dog\n",
			want: "field bean not found",
		},
		{
			name: "unknown bean field",
			doc:  "beans:\n  - id: dog\n    kind: zoo.dog\n    depends-on: [x]\n",
			want: `line 4: unknown field "depends-on"`,
		},
		{
			name: "missing id",
			doc:  "beans:\n  - kind: zoo.dog\n",
			want: "line 2: id is required",
		},
		{
			name: "missing kind",
			doc:  "beans:\n  - id: dog\n",
			want: `bean "dog" (line 2): kind is required`,
		},
		{
			name: "duplicate id",
			doc:  "beans:\n  - id: dog\n    kind: zoo.dog\n  - id: dog\n    kind: zoo.dog\n",
			want: "duplicate id, first declared on line 2",
		},
		{
			name: "bad lifetime",
			doc:  "beans:\n  - id: dog\n    kind: zoo.dog\n    lifetime: request\n",
			want: `unknown lifetime "request"`,
		},
		{
			name: "self alias",
			doc:  "beans:\n  - id: dog\n    kind: zoo.dog\n    aliases: [dog]\n",
			want: "alias must be non-empty and differ from id",
		},
		{
			name: "bean not a mapping",
			doc:  "beans:\n  - dog\n",
			want: "bean must be a mapping",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := manifest.Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	t.Parallel()
	_, err := manifest.Parse([]byte("beans:\n  - id: a\n  - kind: zoo.dog\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrInvalidManifest)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 2)
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Beans)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := manifest.Load("testdata/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read testdata/nope.yaml")
	assert.False(t, errors.Is(err, manifest.ErrInvalidManifest))
}

func TestCatalog_Kinds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"farm.any", "zoo.dog", "zoo.human"}, catalog().Kinds())
}
