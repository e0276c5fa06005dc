package backup

import (
	"errors"
	"io"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/addonctl/internal/addons"
)

func entries(names ...string) addons.Collection {
	out := make(addons.Collection, 0, len(names))
	for _, n := range names {
		out = append(out, addons.Entry{
			TransportURL: "https://" + n + ".example.com/manifest.json",
			Manifest:     addons.Manifest{ID: "org." + n, Name: n, Version: "1.0.0"},
			IsEnabled:    true,
		})
	}
	return out
}

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	return j
}

func TestListEmptyJournal(t *testing.T) {
	list, err := openJournal(t).List("me@example.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordAndList(t *testing.T) {
	j := openJournal(t)

	require.NoError(t, j.Record("me@example.com", entries("a")))
	require.NoError(t, j.Record("me@example.com", entries("a", "b")))
	// Identical push is not recorded twice
	require.NoError(t, j.Record("me@example.com", entries("a", "b")))
	require.NoError(t, j.Record("other@example.com", entries("c")))

	list, err := j.List("me@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Count)
	assert.Equal(t, 1, list[1].Count)
	assert.Contains(t, list[0].Message, "Pushed 2 addons for me@example.com")
	assert.Len(t, list[0].ID(), 8)
	assert.Len(t, list[0].Label(), len(TimestampFormat))

	other, err := j.List("other@example.com")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestRestore(t *testing.T) {
	j := openJournal(t)
	require.NoError(t, j.Record("", entries("a")))
	require.NoError(t, j.Record("", entries("a", "b", "c")))

	list, err := j.List("")
	require.NoError(t, err)
	require.Len(t, list, 2)

	byPosition, entry, err := j.Restore("", "2")
	require.NoError(t, err)
	assert.Len(t, byPosition, 1)
	assert.Equal(t, list[1].Hash, entry.Hash)

	byHash, _, err := j.Restore("", list[0].ID())
	require.NoError(t, err)
	assert.Len(t, byHash, 3)
	assert.Equal(t, "https://c.example.com/manifest.json", byHash[2].TransportURL)

	_, _, err = j.Restore("", "9")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	_, _, err = j.Restore("", "ffffffff")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestReopenKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, j.Record("me@example.com", entries("a")))

	reopened, err := Open(dir)
	require.NoError(t, err)
	list, err := reopened.List("me@example.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAccountLabel(t *testing.T) {
	assert.Equal(t, "default", accountLabel(""))
	assert.Equal(t, "me@example.com", accountLabel(" Me@Example.com "))
	assert.Equal(t, "a_b", accountLabel("a/b"))
	assert.Equal(t, "default", accountLabel("../"))
}

// commitIter yields commits then err
type commitIter struct {
	commits []*object.Commit
	err     error
}

func (c *commitIter) Next() (*object.Commit, error) {
	if len(c.commits) == 0 {
		return nil, c.err
	}
	next := c.commits[0]
	c.commits = c.commits[1:]
	return next, nil
}

func (c *commitIter) ForEach(fn func(*object.Commit) error) error {
	for {
		next, err := c.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(next); err != nil {
			return err
		}
	}
}

func (c *commitIter) Close() {}

func TestCollectCommits(t *testing.T) {
	three := func() []*object.Commit {
		return []*object.Commit{{Message: "a"}, {Message: "b"}, {Message: "c"}}
	}

	got, err := collect(&commitIter{commits: three(), err: io.EOF}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = collect(&commitIter{commits: three(), err: io.EOF}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	broken := errors.New("packfile is corrupt")
	_, err = collect(&commitIter{commits: three(), err: broken}, 10)
	assert.ErrorIs(t, err, broken)
}
