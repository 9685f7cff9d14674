package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
)

func testConfig(saveDir string) *config.Config {
	cfg := &config.Config{}
	cfg.Paths.SaveFilePath = saveDir
	cfg.Import.Threads = 2
	cfg.Monitor.PollingIntervalSeconds = 0.5
	return cfg
}

// touch backdates a file so collection order follows a known timeline.
func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	when := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, when, when))
}

func TestFilterByName(t *testing.T) {
	files := []string{
		filepath.Join("c", "autosave_2250.sav"),
		filepath.Join("c", "ironman.sav"),
		filepath.Join("c", "IronMan_backup.sav"),
	}

	assert.Equal(t, files, filterByName(files, ""))
	assert.Equal(t, files[1:], filterByName(files, "ironman"))
	assert.Empty(t, filterByName(files, "nomatch"))
}

func TestApplySkipSaves(t *testing.T) {
	files := []string{"a.sav", "b.sav", "c.sav", "d.sav"}

	encountered := 0
	assert.Equal(t, files, applySkipSaves(files, 0, &encountered))
	assert.Zero(t, encountered)

	// skip_saves=1 keeps every second save, counting across calls.
	encountered = 0
	kept := applySkipSaves(files[:3], 1, &encountered)
	assert.Equal(t, []string{"b.sav"}, kept)
	kept = applySkipSaves(files[3:], 1, &encountered)
	assert.Equal(t, []string{"d.sav"}, kept)
	assert.Equal(t, 4, encountered)
}

func TestCollectSaveFilesOrdersByModTime(t *testing.T) {
	dir := t.TempDir()
	newest := filepath.Join(dir, "campaign_a", "newest.sav")
	oldest := filepath.Join(dir, "campaign_b", "oldest.sav")
	middle := filepath.Join(dir, "campaign_b", "middle.sav")
	for _, p := range []string{newest, oldest, middle} {
		writeSaveArchive(t, p, `date="2250.05.10"`)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "campaign_a", "notes.txt"), []byte("not a save"), 0o644))
	touch(t, oldest, -3*time.Hour)
	touch(t, middle, -2*time.Hour)
	touch(t, newest, -1*time.Hour)

	files, err := CollectSaveFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{oldest, middle, newest}, files)
}

func TestBatchParsesInTimestampOrder(t *testing.T) {
	dir := t.TempDir()
	dates := []string{"2250.01.01", "2250.02.01", "2250.03.01"}
	paths := make([]string, len(dates))
	for i, date := range dates {
		// Name order deliberately runs against timestamp order.
		paths[i] = filepath.Join(dir, "campaign", string(rune('z'-i))+".sav")
		writeSaveArchive(t, paths[i], `date="`+date+`"`)
		touch(t, paths[i], time.Duration(i-10)*time.Minute)
	}

	results, total, err := Batch(testConfig(dir), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	var got []string
	for res := range results {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Snapshot)
		assert.Equal(t, "campaign", res.SeriesName)
		got = append(got, res.Snapshot.Date)
	}
	assert.Equal(t, dates, got)
}

func TestBatchAppliesVersionGate(t *testing.T) {
	dir := t.TempDir()
	supported := filepath.Join(dir, "campaign", "current.sav")
	unsupported := filepath.Join(dir, "campaign", "ancient.sav")
	writeSaveArchive(t, supported, `
version="Pyxis v4.0.2"
date="2250.02.01"
`)
	writeSaveArchive(t, unsupported, `
version="Cepheus v2.8.1"
date="2250.01.01"
`)
	touch(t, unsupported, -2*time.Hour)
	touch(t, supported, -1*time.Hour)

	cfg := testConfig(dir)
	cfg.Monitor.CheckVersion = true

	results, total, err := Batch(cfg, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	first := <-results
	assert.ErrorIs(t, first.Err, errors.ErrUnsupportedVersion)
	second := <-results
	require.NoError(t, second.Err)
	assert.Equal(t, "2250.02.01", second.Snapshot.Date)
	_, more := <-results
	assert.False(t, more)
}

func TestMonitorScanHandsBackSnapshots(t *testing.T) {
	dir := t.TempDir()
	writeSaveArchive(t, filepath.Join(dir, "alpha", "save1.sav"), `date="2250.01.01"`)
	writeSaveArchive(t, filepath.Join(dir, "beta", "save1.sav"), `date="2250.02.01"`)

	m, err := NewMonitor(testConfig(dir))
	require.NoError(t, err)
	defer m.watcher.Close()

	m.scan()
	m.pool.Close()

	series := map[string]bool{}
	for res := range m.Snapshots() {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Snapshot)
		series[res.SeriesName] = true
	}
	assert.Equal(t, map[string]bool{"alpha": true, "beta": true}, series)
}

func TestMonitorIgnoresMarkedSaves(t *testing.T) {
	dir := t.TempDir()
	writeSaveArchive(t, filepath.Join(dir, "alpha", "save1.sav"), `date="2250.01.01"`)

	m, err := NewMonitor(testConfig(dir))
	require.NoError(t, err)
	defer m.watcher.Close()

	require.NoError(t, m.MarkExistingProcessed())
	m.scan()
	m.pool.Close()

	for res := range m.Snapshots() {
		t.Fatalf("unexpected result for %s", res.Path)
	}
}

func TestMonitorPicksUpRewrittenSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alpha", "ironman.sav")
	writeSaveArchive(t, path, `date="2250.01.01"`)
	touch(t, path, -time.Hour)

	m, err := NewMonitor(testConfig(dir))
	require.NoError(t, err)
	defer m.watcher.Close()
	defer m.pool.Close()

	first, err := m.newSaveFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, first)

	second, err := m.newSaveFiles()
	require.NoError(t, err)
	assert.Empty(t, second)

	// The game overwrites ironman saves in place; a newer timestamp makes
	// the same path eligible again.
	writeSaveArchive(t, path, `date="2250.02.01"`)
	touch(t, path, time.Hour)

	third, err := m.newSaveFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, third)
}

func TestNewMonitorRequiresSaveDir(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := NewMonitor(cfg)
	assert.Error(t, err)
}
