package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuiet = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []DebouncedEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testQuiet)
	d.Add("main.go", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	assert.Equal(t, []DebouncedEvent{{Path: "main.go", Op: OpWrite}}, batch)
}

func Test_Debouncer_EventCollapsing(t *testing.T) {
	d := NewDebouncer(testQuiet)
	d.Add("main.go", OpCreate)
	d.Add("main.go", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	require.Len(t, batch, 1)
	assert.Equal(t, OpWrite, batch[0].Op)
}

func Test_Debouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(testQuiet)
	d.Add("util.go", OpCreate)
	d.Add("main.go", OpWrite)
	d.Add("README.md", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	assert.Equal(t, []DebouncedEvent{
		{Path: "README.md", Op: OpRemove},
		{Path: "main.go", Op: OpWrite},
		{Path: "util.go", Op: OpCreate},
	}, batch)
}

func Test_Debouncer_QuietPeriodRestarts(t *testing.T) {
	d := NewDebouncer(testQuiet)
	d.Add("main.go", OpWrite)

	time.Sleep(testQuiet / 2)
	d.Add("util.go", OpWrite)
	assert.Equal(t, 2, d.Pending())

	batch := receiveBatch(t, d, 500*time.Millisecond)
	assert.Len(t, batch, 2)
	assert.Zero(t, d.Pending())
}

func Test_Debouncer_Stop(t *testing.T) {
	d := NewDebouncer(testQuiet)
	d.Add("main.go", OpWrite)
	d.Stop()

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch after Stop: %v", batch)
	case <-time.After(3 * testQuiet):
	}
}

func Test_EventOp_String(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "rename", OpRename.String())
	assert.Equal(t, "unknown", EventOp(42).String())
}
