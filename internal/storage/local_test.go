package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalForTest(t *testing.T) *LocalStorage {
	t.Helper()

	s, err := NewLocalStorage(Config{
		BasePath: t.TempDir(),
		BaseURL:  "/api/v1/files",
	})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	s := newLocalForTest(t)
	ctx := context.Background()

	err := s.Save(ctx, "documents/u1/report.pdf", strings.NewReader("%PDF-1.4 test"), "application/pdf")
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "documents/u1/report.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Get(ctx, "documents/u1/report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	require.NoError(t, s.Delete(ctx, "documents/u1/report.pdf"))

	exists, err = s.Exists(ctx, "documents/u1/report.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s := newLocalForTest(t)

	_, err := s.Get(context.Background(), "documents/nope.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_DeleteMissingIsNoop(t *testing.T) {
	s := newLocalForTest(t)
	assert.NoError(t, s.Delete(context.Background(), "documents/nope.pdf"))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := newLocalForTest(t)
	ctx := context.Background()

	err := s.Save(ctx, "../../etc/passwd", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)

	_, err = s.Get(ctx, "../secrets.txt")
	assert.Error(t, err)
}

func TestLocalStorage_URL(t *testing.T) {
	s := newLocalForTest(t)
	assert.Equal(t, "/api/v1/files/documents/u1/a.pdf", s.URL("documents/u1/a.pdf"))
}
