package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribebot/scribe/internal/storage"
	"github.com/scribebot/scribe/pkg/todo"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{name: "bytes", size: 512, expected: "512B"},
		{name: "kilobytes", size: 4096, expected: "4.0KB"},
		{name: "megabytes", size: 3 << 20, expected: "3.0MB"},
		{name: "zero", size: 0, expected: "0B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatSize(tt.size))
		})
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "short name", input: "Shopping", expected: "Shopping"},
		{name: "exactly 18 chars", input: strings.Repeat("a", 18), expected: strings.Repeat("a", 18)},
		{name: "19 chars - truncated", input: strings.Repeat("a", 19), expected: strings.Repeat("a", 15) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatName(tt.input))
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "-", formatAge(time.Time{}))
	assert.Equal(t, "5m", formatAge(now.Add(-5*time.Minute)))
	assert.Equal(t, "3h", formatAge(now.Add(-3*time.Hour)))
	assert.Equal(t, "2d", formatAge(now.Add(-49*time.Hour)))
}

func TestFormatStatusTable(t *testing.T) {
	var buf bytes.Buffer
	FormatStatusTable(&buf, []storage.Status{
		{Backend: "sqlite", Path: "/data/scribe.db", Exists: true, SizeBytes: 4096, Lists: 2, Items: 5},
		{Backend: "json", Path: "/data/todo_lists.json", Exists: false},
	})

	out := buf.String()
	assert.Contains(t, out, "BACKEND")
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "4.0KB")
	assert.Contains(t, out, "/data/todo_lists.json")
}

func snapshotFixture() todo.Snapshot {
	shopping := todo.NewList("guild-b", "Shopping", "alice")
	shopping.Items = append(shopping.Items, todo.NewItem("Milk", "alice"))
	chores := todo.NewList("guild-a", "Chores", "bob")
	return todo.Snapshot{
		"guild-b": {shopping},
		"guild-a": {chores},
	}
}

func TestFormatSnapshotTable(t *testing.T) {
	var buf bytes.Buffer
	count := FormatSnapshotTable(&buf, snapshotFixture())
	assert.Equal(t, 2, count)

	out := buf.String()
	assert.Contains(t, out, "Shopping")
	assert.Contains(t, out, "Chores")
	assert.Contains(t, out, "2 lists found")

	// Guilds appear in sorted order
	assert.Less(t, strings.Index(out, "guild-a"), strings.Index(out, "guild-b"))
}

func TestFormatSnapshotTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	count := FormatSnapshotTable(&buf, todo.Snapshot{})
	assert.Equal(t, 0, count)
	assert.Contains(t, buf.String(), "No lists found")
}

func TestFormatSnapshotJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSnapshotJSONL(&buf, snapshotFixture()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	// Each line is a standalone JSON list object
	for _, line := range lines {
		var l todo.List
		require.NoError(t, json.Unmarshal([]byte(line), &l))
		assert.NotEmpty(t, l.Name)
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, map[string]int{"lists": 3}))
	assert.JSONEq(t, `{"lists": 3}`, strings.TrimSpace(buf.String()))
}
