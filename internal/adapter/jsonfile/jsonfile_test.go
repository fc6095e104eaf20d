package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

func sampleLookup() *domain.Lookup {
	l := domain.NewLookup()
	l.Add("hond", "dog", "hound")
	l.Add("straße", "street")
	l.Add("en", "and & more")
	return l
}

func TestWrite_CompactLiteralUTF8(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deu-nld.json")
	size, err := Write(path, sampleLookup())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{"hond":["dog","hound"],"straße":["street"],"en":["and & more"]}`
	assert.Equal(t, want, string(data))
	assert.Equal(t, int64(len(want)), size)
}

func TestWrite_Overwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "eng-nld.json")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer than the new one"), 0o644))

	l := domain.NewLookup()
	l.Add("a", "b")
	size, err := Write(path, l)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":["b"]}`, string(data))
	assert.Equal(t, int64(11), size)
}

func TestWrite_EmptyLookup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	size, err := Write(path, domain.NewLookup())
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestWrite_MissingDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "no", "such", "dir", "x.json")
	_, err := Write(path, sampleLookup())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrite_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	_, err := Write(first, sampleLookup())
	require.NoError(t, err)
	_, err = Write(second, sampleLookup())
	require.NoError(t, err)

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	assert.Equal(t, a, b)
}

func TestRead_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rt.json")
	_, err := Write(path, sampleLookup())
	require.NoError(t, err)

	l, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hond", "straße", "en"}, l.Keys())

	got, ok := l.Get("hond")
	require.True(t, ok)
	assert.Equal(t, []string{"dog", "hound"}, got)
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a":`), 0o644))
	_, err = Read(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
