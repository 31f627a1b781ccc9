package migrator

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"0001_raw_messages.up.sql":   &fstest.MapFile{Data: []byte("SELECT 1;")},
		"0001_raw_messages.down.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
	}
}

func TestNewWithFS(t *testing.T) {
	m, err := NewWithFS(testFS())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNewWithFS_NilFS(t *testing.T) {
	m, err := NewWithFS(nil)
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestMigrator_Up_EmptyURL(t *testing.T) {
	m, err := NewWithFS(testFS())
	require.NoError(t, err)

	err = m.Up(context.Background(), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestMigrator_Up_InvalidURL(t *testing.T) {
	m, err := NewWithFS(testFS())
	require.NoError(t, err)

	err = m.Up(context.Background(), "invalid://url")
	assert.Error(t, err)
}

func TestConvertToPgx5URL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"postgres scheme", "postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql scheme", "postgresql://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
		{"already pgx5", "pgx5://u:p@localhost:5432/db", "pgx5://u:p@localhost:5432/db"},
		{"other scheme unchanged", "sqlite://file.db", "sqlite://file.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5URL(tt.input))
		})
	}
}
