package commands

import (
	"sort"
	"strconv"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/loader"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/timeline"
)

// seriesStats counts import outcomes for one series.
type seriesStats struct {
	imported int
	failed   int
}

// importer feeds parsed snapshots into the timeline database. Results must
// arrive in timestamp order per series; the loader guarantees that, and a
// single importer consumes them sequentially so extraction stays ordered.
type importer struct {
	cfg        *config.Config
	manager    *storage.Manager
	extractors map[string]*timeline.Extractor
	stats      map[string]*seriesStats
}

func newImporter(cfg *config.Config) *importer {
	return &importer{
		cfg:        cfg,
		manager:    storage.NewManager(cfg.DBDir()),
		extractors: make(map[string]*timeline.Extractor),
		stats:      make(map[string]*seriesStats),
	}
}

// handle imports one loader result. Failures are logged and counted, never
// fatal: a broken save must not stop the saves behind it.
func (im *importer) handle(res loader.Result) error {
	st := im.seriesStats(res.SeriesName)
	if res.Err != nil {
		st.failed++
		logger.Errorw("failed to parse save archive",
			"path", res.Path,
			"error", res.Err,
		)
		return res.Err
	}

	ex, err := im.extractor(res.SeriesName)
	if err != nil {
		st.failed++
		logger.Errorw("failed to open series database",
			"series", res.SeriesName,
			"error", err,
		)
		return err
	}

	if err := ex.Process(res.Snapshot.Gamestate); err != nil {
		st.failed++
		logger.Errorw("failed to import snapshot",
			"series", res.SeriesName,
			"path", res.Path,
			"error", err,
		)
		return err
	}

	st.imported++
	loader.RunPostImportHook(im.cfg.Hooks.PostImport, res.SeriesName, res.Snapshot.DateDays)
	return nil
}

// extractor returns the cached extractor for a series, opening its store on
// first use. One extractor per series keeps snapshot ordering intact.
func (im *importer) extractor(seriesName string) (*timeline.Extractor, error) {
	if ex, ok := im.extractors[seriesName]; ok {
		return ex, nil
	}
	store, err := im.manager.GetStore(seriesName)
	if err != nil {
		return nil, err
	}
	ex := timeline.NewExtractor(store, im.cfg.Import)
	im.extractors[seriesName] = ex
	return ex, nil
}

func (im *importer) seriesStats(seriesName string) *seriesStats {
	st, ok := im.stats[seriesName]
	if !ok {
		st = &seriesStats{}
		im.stats[seriesName] = st
	}
	return st
}

// summaryTable renders per-series import counts as table rows, sorted by
// series name, with a header row first.
func (im *importer) summaryTable() [][]string {
	names := make([]string, 0, len(im.stats))
	for name := range im.stats {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]string{{"Series", "Imported", "Failed"}}
	for _, name := range names {
		st := im.stats[name]
		rows = append(rows, []string{name, strconv.Itoa(st.imported), strconv.Itoa(st.failed)})
	}
	return rows
}

// totals sums the per-series counts.
func (im *importer) totals() (imported, failed int) {
	for _, st := range im.stats {
		imported += st.imported
		failed += st.failed
	}
	return imported, failed
}

func (im *importer) Close() error {
	return im.manager.Close()
}
