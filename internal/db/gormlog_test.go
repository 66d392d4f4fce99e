package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"membership-app-go/pkg/logger"
)

func traceEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func query() (string, int64) {
	return "SELECT * FROM members WHERE id = 'm-1'", 1
}

func TestGormLogReportsFailuresButNotMissingRows(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLog(logger.New(&buf, slog.LevelDebug, "json"), time.Second)

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))

	entries := traceEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "db: query failed", entries[0]["msg"])
	assert.Equal(t, "ERROR", entries[0]["level"])
	assert.Equal(t, "gorm", entries[0]["component"])
}

func TestGormLogReportsSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLog(logger.New(&buf, slog.LevelDebug, "json"), 10*time.Millisecond)

	l.Trace(context.Background(), time.Now(), query, nil)
	l.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

	entries := traceEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "db: slow query", entries[0]["msg"])
	assert.Equal(t, float64(10), entries[0]["threshold_ms"])
}

func TestGormLogSilentMode(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLog(logger.New(&buf, slog.LevelDebug, "json"), time.Millisecond).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now().Add(-time.Second), query, errors.New("boom"))
	l.Error(context.Background(), "boom %d", 1)

	assert.Zero(t, buf.Len())
}
