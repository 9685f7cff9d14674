package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	m := storage.NewManager(t.TempDir())
	t.Cleanup(func() { _ = m.Close() })
	s, err := m.GetStore("unitednationsofearth_-15512622")
	require.NoError(t, err)
	return s
}

func newTestPipeline(t *testing.T, imp config.ImportConfig) (*Extractor, *storage.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewExtractor(s, imp), s
}

func parseGamestate(t *testing.T, text string) *save.Object {
	t.Helper()
	obj, err := save.Parse(text)
	require.NoError(t, err)
	return obj
}

func countryByName(t *testing.T, s *storage.Store, name string) model.Country {
	t.Helper()
	countries, err := s.Countries()
	require.NoError(t, err)
	for _, c := range countries {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no country named %q", name)
	return model.Country{}
}

func eventsOfKind(t *testing.T, s *storage.Store, kinds ...model.EventKind) []model.HistoricalEvent {
	t.Helper()
	events, err := s.Events(storage.EventFilter{Kinds: kinds})
	require.NoError(t, err)
	return events
}

func TestProcessRequiresValidDate(t *testing.T) {
	e, _ := newTestPipeline(t, config.ImportConfig{})

	err := e.Process(parseGamestate(t, `name="no date at all"`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "no date")

	err = e.Process(parseGamestate(t, `date="not.a.date"`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid date")
}

func TestSinglePlayerObserver(t *testing.T) {
	e, s := newTestPipeline(t, config.ImportConfig{})

	require.NoError(t, e.Process(parseGamestate(t, `
date="2200.01.01"
player={ { name="Commodore" country=0 } }
country={
	0={ name="United Nations of Earth" type="default" }
	1={ name="Blorg Commonality" type="default" }
}
`)))

	exists, err := s.SnapshotExists(0)
	require.NoError(t, err)
	assert.True(t, exists)

	series, err := s.Series()
	require.NoError(t, err)
	assert.Equal(t, "United Nations of Earth", series.ObserverCountryName)

	une := countryByName(t, s, "United Nations of Earth")
	assert.True(t, une.IsObserver)
	require.NotNil(t, une.FirstContactWithObserverDays)
	assert.Zero(t, *une.FirstContactWithObserverDays)

	blorg := countryByName(t, s, "Blorg Commonality")
	assert.False(t, blorg.IsObserver)
	assert.False(t, blorg.HasMetObserver())
}

func TestObserverModeWithoutPlayerList(t *testing.T) {
	e, s := newTestPipeline(t, config.ImportConfig{})

	require.NoError(t, e.Process(parseGamestate(t, `
date="2200.01.01"
country={
	0={ name="United Nations of Earth" type="default" }
}
`)))

	series, err := s.Series()
	require.NoError(t, err)
	assert.Equal(t, "Observer Mode", series.ObserverCountryName)

	une := countryByName(t, s, "United Nations of Earth")
	assert.False(t, une.IsObserver)
}

func TestMultiplayerObserverResolution(t *testing.T) {
	gamestate := `
date="2200.01.01"
player={
	{ name="alice" country=0 }
	{ name="bob" country=1 }
}
country={
	0={ name="Terran Alliance" type="default" }
	1={ name="Xanid Suzerainty" type="default" }
}
`
	e, s := newTestPipeline(t, config.ImportConfig{})
	err := e.Process(parseGamestate(t, gamestate))
	require.Error(t, err)
	assert.ErrorContains(t, err, "multiplayer")

	exists, err := s.SnapshotExists(0)
	require.NoError(t, err)
	assert.False(t, exists)

	e = NewExtractor(s, config.ImportConfig{MPUsername: "alice"})
	require.NoError(t, e.Process(parseGamestate(t, gamestate)))

	series, err := s.Series()
	require.NoError(t, err)
	assert.Equal(t, "Terran Alliance", series.ObserverCountryName)

	terran := countryByName(t, s, "Terran Alliance")
	assert.True(t, terran.IsObserver)
	assert.False(t, terran.IsOtherPlayer)

	xanid := countryByName(t, s, "Xanid Suzerainty")
	assert.False(t, xanid.IsObserver)
	assert.True(t, xanid.IsOtherPlayer)
}

func TestUnknownMultiplayerUsername(t *testing.T) {
	e, _ := newTestPipeline(t, config.ImportConfig{MPUsername: "mallory"})

	err := e.Process(parseGamestate(t, `
date="2200.01.01"
player={
	{ name="alice" country=0 }
	{ name="bob" country=1 }
}
country={
	0={ name="Terran Alliance" type="default" }
	1={ name="Xanid Suzerainty" type="default" }
}
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "mallory")
}

type stubProcessor struct {
	id      string
	deps    []string
	extract func(run *Run) (any, error)
}

func (p stubProcessor) ID() string             { return p.id }
func (p stubProcessor) Dependencies() []string { return p.deps }
func (p stubProcessor) Extract(run *Run) (any, error) {
	return p.extract(run)
}

func TestProcessorSkipsOnMissingDependency(t *testing.T) {
	s := newTestStore(t)

	var ran []string
	record := func(id string) func(*Run) (any, error) {
		return func(*Run) (any, error) {
			ran = append(ran, id)
			return id + "-output", nil
		}
	}
	e := &Extractor{
		store: s,
		procs: []Processor{
			stubProcessor{id: "alpha", extract: record("alpha")},
			stubProcessor{id: "bravo", deps: []string{"never-published"}, extract: record("bravo")},
			stubProcessor{id: "charlie", deps: []string{"alpha"}, extract: func(run *Run) (any, error) {
				ran = append(ran, "charlie")
				assert.Equal(t, "alpha-output", run.Output("alpha"))
				return nil, nil
			}},
		},
		otherPlayers: make(map[int64]bool),
	}

	require.NoError(t, e.Process(parseGamestate(t, `date="2200.01.01"`)))
	assert.Equal(t, []string{"alpha", "charlie"}, ran)

	// A skipped processor must not abort the snapshot.
	exists, err := s.SnapshotExists(0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProcessorFailureRollsBackSnapshot(t *testing.T) {
	s := newTestStore(t)

	e := &Extractor{
		store: s,
		procs: []Processor{
			stubProcessor{id: "doomed", extract: func(run *Run) (any, error) {
				err := run.Tx.UpsertCountry(&model.Country{InGameID: 9, Name: "Partial", CountryType: "default"})
				require.NoError(t, err)
				return nil, errors.New("boom")
			}},
		},
		otherPlayers: make(map[int64]bool),
	}

	err := e.Process(parseGamestate(t, `date="2200.01.01"`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "processor doomed failed")

	exists, err := s.SnapshotExists(0)
	require.NoError(t, err)
	assert.False(t, exists)

	countries, err := s.Countries()
	require.NoError(t, err)
	assert.Empty(t, countries)
}
