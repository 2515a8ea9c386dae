package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/container"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGraph_BuiltInZoo(t *testing.T) {
	out, err := run(t, "graph")
	require.NoError(t, err)
	assert.Equal(t, "container\ndog\nhuman\n", out)
}

func TestGraph_Edges(t *testing.T) {
	out, err := run(t, "graph", "--edges", "--manifest", "testdata/zoo.yaml")
	require.NoError(t, err)
	assert.Equal(t, "container\ndog\nhuman -> dog\n", out)
}

func TestGraph_CycleFails(t *testing.T) {
	_, err := run(t, "graph", "-m", "testdata/cycle.yaml")
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
}

func TestResolve_PrintsInstance(t *testing.T) {
	out, err := run(t, "resolve", "owner", "--manifest", "testdata/zoo.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, `owner = &app.Human{Name:"Ann"`)
}

func TestResolve_Errors(t *testing.T) {
	_, err := run(t, "resolve", "cat")
	assert.ErrorIs(t, err, container.ErrUnknownDependency)

	_, err = run(t, "resolve")
	assert.ErrorContains(t, err, "accepts 1 arg(s), received 0")
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)
	assert.Equal(t, "ok: 3 beans\n", out)

	_, err = run(t, "validate", "--manifest", "testdata/cycle.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
	assert.ErrorIs(t, err, container.ErrUnknownDependency, "every problem is reported")
}

func TestManifestFromEnv(t *testing.T) {
	t.Setenv("BEANS_MANIFEST", "testdata/cycle.yaml")

	_, err := run(t, "validate")
	assert.ErrorIs(t, err, container.ErrCyclicDependency)

	// the flag wins over the environment
	_, err = run(t, "validate", "-m", "testdata/zoo.yaml")
	assert.NoError(t, err)
}

func TestManifestErrors(t *testing.T) {
	_, err := run(t, "graph", "-m", "testdata/missing.yaml")
	assert.ErrorContains(t, err, "read testdata/missing.yaml")
}

func TestSetVersion(t *testing.T) {
	prev := version
	t.Cleanup(func() { version = prev })

	SetVersion("")
	assert.Equal(t, prev, version, "empty version keeps the default")

	SetVersion("1.2.3")
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1.2.3")
}

func TestKinds(t *testing.T) {
	out, err := run(t, "kinds")
	require.NoError(t, err)
	assert.Equal(t, "zoo.dog\nzoo.human\n", out)
}

func TestServe_FailsBeforeListeningOnBadManifest(t *testing.T) {
	_, err := run(t, "serve", "--env-file", "testdata/none.env", "-m", "testdata/cycle.yaml", "-p", "0")
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
}
