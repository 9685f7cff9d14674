// Package timeline turns parsed snapshots into persistent history. Each
// snapshot runs through an ordered list of processors inside one storage
// transaction: processors keep the entity registries current, write the
// per-snapshot statistics, and append historical events.
//
// Processors communicate through published outputs. A processor declares the
// ids of the outputs it needs; the extractor runs the processors in
// registration order and skips any whose dependencies are missing, so a
// processor that cannot run never poisons the rest of the import. Any
// processor error aborts the snapshot and rolls the transaction back, leaving
// the stored history exactly as it was.
package timeline

import (
	"sort"
	"strings"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// BasicInfo describes the snapshot being processed.
type BasicInfo struct {
	SeriesName string
	DateDays   int

	// ObserverID is the in-game id of the observer country. It is nil when
	// the snapshot is watched from observer mode, in which case no country
	// is privileged and visibility rules hide everything not explicitly
	// disclosed.
	ObserverID *int64

	// OtherPlayerIDs holds the in-game country ids of the other human
	// players of a multiplayer series. Their countries are never treated as
	// AI empires even when their diplomatic state would disclose details.
	OtherPlayerIDs map[int64]bool
}

// IsObserver reports whether the given in-game country id is the observer.
func (b BasicInfo) IsObserver(countryID int64) bool {
	return b.ObserverID != nil && *b.ObserverID == countryID
}

// Run is the shared state of one snapshot extraction.
type Run struct {
	Gamestate *save.Object
	Info      BasicInfo
	Tx        *storage.SnapshotTx
	Import    config.ImportConfig

	outputs map[string]any
}

// Output returns the published output of an earlier processor, or nil when
// that processor has not run.
func (r *Run) Output(id string) any { return r.outputs[id] }

// Processor is one extraction stage of the snapshot pipeline.
type Processor interface {
	// ID names the processor. Its output is published under this id.
	ID() string

	// Dependencies lists the processor ids whose outputs must have been
	// published before Extract may run.
	Dependencies() []string

	// Extract reads the gamestate and writes history through run.Tx. The
	// returned value is published to dependent processors; it may be nil
	// for processors that only write.
	Extract(run *Run) (any, error)
}

// Extractor drives the processors over successive snapshots of one series.
// It is not safe for concurrent use; snapshots of one series are imported in
// order through a single Extractor.
type Extractor struct {
	store *storage.Store
	imp   config.ImportConfig
	procs []Processor

	// otherPlayers accumulates the in-game country ids of other human
	// players over the lifetime of the series. A player seen in any earlier
	// snapshot stays excluded even when absent from the current one.
	otherPlayers map[int64]bool
}

// NewExtractor returns an Extractor writing to the given store.
func NewExtractor(store *storage.Store, imp config.ImportConfig) *Extractor {
	return &Extractor{
		store:        store,
		imp:          imp,
		procs:        defaultProcessors(),
		otherPlayers: make(map[int64]bool),
	}
}

// defaultProcessors returns the standard pipeline in execution order. The
// order matters: each processor may depend only on outputs published before
// it.
func defaultProcessors() []Processor {
	return []Processor{
		&systemsProcessor{},
		&countriesProcessor{},
		&fleetOwnershipProcessor{},
		&systemOwnershipProcessor{},
		&diplomacyProcessor{},
		&countryDataProcessor{},
		&speciesProcessor{},
		&leadersProcessor{},
		&planetsProcessor{},
		&rulersProcessor{},
		&governmentProcessor{},
		&researchProcessor{},
		&factionsProcessor{},
		&warsProcessor{},
		&trucesProcessor{},
		&coloniesProcessor{},
		&popStatsProcessor{},
	}
}

// Process imports one snapshot into the series. The gamestate's own date
// determines the snapshot date; importing a date that already exists
// supersedes the earlier import.
func (e *Extractor) Process(gamestate *save.Object) error {
	dateStr, ok := gamestate.GetString("date")
	if !ok {
		return errors.New("gamestate has no date")
	}
	dateDays, err := model.DateToDays(dateStr)
	if err != nil {
		return errors.Wrap(err, "gamestate has an invalid date")
	}

	observerID, err := e.identifyObserver(gamestate)
	if err != nil {
		return err
	}
	if err := e.recordObserverName(gamestate, observerID); err != nil {
		return err
	}

	tx, err := e.store.BeginSnapshot(dateDays)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	run := &Run{
		Gamestate: gamestate,
		Info: BasicInfo{
			SeriesName:     e.store.Name(),
			DateDays:       dateDays,
			ObserverID:     observerID,
			OtherPlayerIDs: e.otherPlayers,
		},
		Tx:      tx,
		Import:  e.imp,
		outputs: make(map[string]any, len(e.procs)),
	}

	logger.Infow("processing snapshot",
		"series", run.Info.SeriesName,
		"date", dateStr,
		"superseded", tx.Superseded,
	)
	for _, p := range e.procs {
		missing := missingDependencies(p, run.outputs)
		if len(missing) > 0 {
			logger.Warnw("skipping processor, missing dependencies",
				"series", run.Info.SeriesName,
				"date", dateStr,
				"processor", p.ID(),
				"missing", strings.Join(missing, ", "),
			)
			continue
		}
		logger.Debugw("running processor",
			"series", run.Info.SeriesName,
			"date", dateStr,
			"processor", p.ID(),
		)
		out, err := p.Extract(run)
		if err != nil {
			return errors.Wrapf(err, "processor %s failed", p.ID())
		}
		run.outputs[p.ID()] = out
	}

	return tx.Commit()
}

func missingDependencies(p Processor, outputs map[string]any) []string {
	var missing []string
	for _, dep := range p.Dependencies() {
		if _, ok := outputs[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	sort.Strings(missing)
	return missing
}

// identifyObserver resolves the observer country from the snapshot's player
// list. A single entry names the observer directly. With multiple entries the
// configured multiplayer username picks the observer and the remaining
// players are remembered as other humans. No player list at all means the
// series is watched from observer mode.
func (e *Extractor) identifyObserver(gamestate *save.Object) (*int64, error) {
	players := gamestate.GetSeq("player")
	if len(players) == 0 {
		return nil, nil
	}
	if len(players) == 1 {
		obj, ok := players[0].Object()
		if !ok {
			return nil, errors.New("malformed player entry in gamestate")
		}
		id, ok := obj.GetInt("country")
		if !ok {
			return nil, errors.New("player entry has no country id")
		}
		return &id, nil
	}

	if e.imp.MPUsername == "" {
		return nil, errors.WithHint(
			errors.New("multiplayer snapshot without a configured username"),
			"Set import.mp_username to the name you play under so the importer can tell your country apart from the other players.",
		)
	}
	var observer *int64
	for _, p := range players {
		obj, ok := p.Object()
		if !ok {
			continue
		}
		id, ok := obj.GetInt("country")
		if !ok {
			continue
		}
		if name, _ := obj.GetString("name"); name == e.imp.MPUsername {
			observer = &id
		} else {
			e.otherPlayers[id] = true
		}
	}
	if observer == nil {
		return nil, errors.Newf("no player matches multiplayer username %q", e.imp.MPUsername)
	}
	return observer, nil
}

// recordObserverName stores the observer country's name on the series row the
// first time a snapshot is imported.
func (e *Extractor) recordObserverName(gamestate *save.Object, observerID *int64) error {
	series, err := e.store.Series()
	if err != nil {
		return err
	}
	if series.ObserverCountryName != "" {
		return nil
	}
	name := "Observer Mode"
	if observerID != nil {
		countries, _ := gamestate.GetObject("country")
		if v, ok := countries.GetID(*observerID); ok {
			if obj, ok := v.Object(); ok {
				name = objectName(obj, "name", "Observer Mode")
			}
		}
	}
	return e.store.SetObserverCountryName(name)
}
