package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/flexprice/invoicer/internal/clickhouse"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	statements []string
	err        error
}

func (c *recordingConn) Query(ctx context.Context, query string, args ...any) (clickhouse.Rows, error) {
	return nil, errors.New("not supported")
}

func (c *recordingConn) Exec(ctx context.Context, query string, args ...any) error {
	c.statements = append(c.statements, query)
	return c.err
}

func TestApplyDDL_RunsSQLFilesInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"ddl/002_b.sql":   {Data: []byte("CREATE TABLE b")},
		"ddl/001_a.sql":   {Data: []byte("CREATE TABLE a")},
		"ddl/README.md":   {Data: []byte("ignored")},
		"ddl/sub/003.sql": {Data: []byte("nested")},
	}
	conn := &recordingConn{}

	err := applyDDL(context.Background(), conn, fsys, "ddl", logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE a", "CREATE TABLE b"}, conn.statements)
}

func TestApplyDDL_StopsOnError(t *testing.T) {
	fsys := fstest.MapFS{
		"ddl/001_a.sql": {Data: []byte("CREATE TABLE a")},
		"ddl/002_b.sql": {Data: []byte("CREATE TABLE b")},
	}
	conn := &recordingConn{err: errors.New("syntax error")}

	err := applyDDL(context.Background(), conn, fsys, "ddl", logger.NewNopLogger())
	assert.Error(t, err)
	assert.Len(t, conn.statements, 1)
}

func TestEmbeddedClickHouseSchema(t *testing.T) {
	conn := &recordingConn{}
	require.NoError(t, ApplyClickHouse(context.Background(), conn, logger.NewNopLogger()))
	require.Len(t, conn.statements, 1)
	assert.Contains(t, conn.statements[0], "node_usage_daily")

	_, err := migrations.Postgres.ReadFile("postgres/000001_init_schema.up.sql")
	assert.NoError(t, err)
}
