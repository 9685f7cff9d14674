package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// rulerSnapshot runs the write flow of a ruler import for one snapshot:
// get-or-add the country and leader, then extend, close, or open the
// ruled_empire interval depending on whether the ruler changed.
func rulerSnapshot(t *testing.T, s *Store, date int, leaderInGameID int64, leaderName string) {
	t.Helper()
	tx, err := s.BeginSnapshot(date)
	require.NoError(t, err)
	defer tx.Rollback()

	country, err := tx.GetCountry(0)
	require.NoError(t, err)
	if country == nil {
		country = &model.Country{InGameID: 0, Name: "Empire", CountryType: "default", IsObserver: true}
		require.NoError(t, tx.UpsertCountry(country))
	}

	leader, err := tx.GetLeader(leaderInGameID)
	require.NoError(t, err)
	if leader == nil {
		leader = &model.Leader{
			InGameID:      leaderInGameID,
			CountryID:     &country.ID,
			Name:          leaderName,
			Class:         "ruler",
			IsActive:      true,
			DateHiredDays: date,
			LastSeenDays:  date,
		}
		require.NoError(t, tx.UpsertLeader(leader))
	}

	open, err := tx.FindLatestEvent(EventQuery{
		Kind: model.EventRuledEmpire, CountryID: &country.ID, OnlyOpen: true,
	})
	require.NoError(t, err)
	switch {
	case open != nil && open.LeaderID != nil && *open.LeaderID == leader.ID:
		// Unchanged ruler: the open interval simply keeps running.
	case open != nil:
		require.NoError(t, tx.SetEventEnd(open.ID, date-1))
		fallthrough
	default:
		require.NoError(t, tx.InsertEvent(&model.HistoricalEvent{
			Kind:            model.EventRuledEmpire,
			CountryID:       &country.ID,
			LeaderID:        &leader.ID,
			StartDateDays:   date,
			KnownToObserver: true,
		}))
	}
	require.NoError(t, tx.Commit())
}

type rulerInterval struct {
	Start  int
	End    int // -1 while open
	Leader int64
}

func ruledEmpireIntervals(t *testing.T, s *Store) []rulerInterval {
	t.Helper()
	events, err := s.Events(EventFilter{Kinds: []model.EventKind{model.EventRuledEmpire}})
	require.NoError(t, err)
	out := make([]rulerInterval, 0, len(events))
	for _, e := range events {
		iv := rulerInterval{Start: e.StartDateDays, End: -1}
		if e.EndDateDays != nil {
			iv.End = *e.EndDateDays
		}
		if e.LeaderID != nil {
			iv.Leader = *e.LeaderID
		}
		out = append(out, iv)
	}
	return out
}

func TestSupersedeReimportIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	rulerSnapshot(t, s, 0, 1, "First Ruler")
	rulerSnapshot(t, s, 3600, 2, "Second Ruler")

	before := ruledEmpireIntervals(t, s)
	require.Len(t, before, 2)
	assert.Equal(t, rulerInterval{Start: 0, End: 3599, Leader: before[0].Leader}, before[0])
	assert.Equal(t, -1, before[1].End)

	// Importing the same snapshot content again must produce the same
	// timeline.
	rulerSnapshot(t, s, 3600, 2, "Second Ruler")

	after := ruledEmpireIntervals(t, s)
	assert.Equal(t, before, after)

	snapshots, err := s.Snapshots()
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestSupersedeChangedContentRewritesTimeline(t *testing.T) {
	s := newTestStore(t)

	rulerSnapshot(t, s, 0, 1, "First Ruler")
	rulerSnapshot(t, s, 3600, 2, "Second Ruler")
	require.Len(t, ruledEmpireIntervals(t, s), 2)

	// Re-import the second date with the first ruler still in office. The
	// close of the first interval is undone and the second interval's
	// event disappears with its superseded snapshot.
	rulerSnapshot(t, s, 3600, 1, "First Ruler")

	intervals := ruledEmpireIntervals(t, s)
	require.Len(t, intervals, 1)
	assert.Equal(t, 0, intervals[0].Start)
	assert.Equal(t, -1, intervals[0].End)
}

func TestSupersedeReopensIntervalsAndTechnologies(t *testing.T) {
	s := newTestStore(t)

	// Day 0: country Alpha owns the system, tech_lasers_1 is in progress.
	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	alpha := &model.Country{InGameID: 0, Name: "Alpha", CountryType: "default"}
	beta := &model.Country{InGameID: 1, Name: "Beta", CountryType: "default"}
	sys := &model.System{InGameID: 7, Name: "Border"}
	require.NoError(t, tx.UpsertCountry(alpha))
	require.NoError(t, tx.UpsertCountry(beta))
	require.NoError(t, tx.UpsertSystem(sys))
	require.NoError(t, tx.AddSystemOwnership(&model.SystemOwnership{
		SystemID: sys.ID, CountryID: alpha.ID, StartDateDays: 0,
	}))
	tech := &model.Technology{CountryID: alpha.ID, Name: "tech_lasers_1"}
	require.NoError(t, tx.AddTechnology(tech))
	require.NoError(t, tx.Commit())

	// Day 100: the system changes hands and the technology completes.
	tx, err = s.BeginSnapshot(100)
	require.NoError(t, err)
	cur, err := tx.CurrentSystemOwnership(sys.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	require.NoError(t, tx.CloseSystemOwnership(cur.ID, 99))
	require.NoError(t, tx.AddSystemOwnership(&model.SystemOwnership{
		SystemID: sys.ID, CountryID: beta.ID, StartDateDays: 100,
	}))
	require.NoError(t, tx.CompleteTechnology(tech.ID))
	require.NoError(t, tx.Commit())

	// Re-import day 100 from a save where nothing happened after day 0: the
	// close is undone, the conqueror's interval is gone with its snapshot,
	// and the completion is reverted.
	tx, err = s.BeginSnapshot(100)
	require.NoError(t, err)
	require.True(t, tx.Superseded)

	cur, err = tx.CurrentSystemOwnership(sys.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, alpha.ID, cur.CountryID)
	assert.Equal(t, 0, cur.StartDateDays)

	got, err := tx.GetTechnology(alpha.ID, "tech_lasers_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsCompleted)
	require.NoError(t, tx.Commit())

	history, err := s.OwnershipHistory(sys.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, alpha.ID, history[0].CountryID)
	assert.Nil(t, history[0].EndDateDays)
}

func TestSupersedeCascadesSnapshotRecords(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(100)
	require.NoError(t, err)
	c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))
	require.NoError(t, tx.InsertEvent(&model.HistoricalEvent{
		Kind: model.EventTradition, CountryID: &c.ID,
		Description: "tr_expansion_adopt", StartDateDays: 100,
	}))
	require.NoError(t, tx.InsertCountryData(&model.CountryData{
		CountryID: c.ID, MilitaryPower: 100, AttitudeTowardObserver: model.AttitudeUnknown,
	}))
	require.NoError(t, tx.Commit())
	firstSnapshotID := tx.SnapshotID

	tx, err = s.BeginSnapshot(100)
	require.NoError(t, err)
	assert.True(t, tx.Superseded)
	assert.NotEqual(t, firstSnapshotID, tx.SnapshotID)
	require.NoError(t, tx.Commit())

	// Records created by the superseded snapshot are gone; the entity
	// registry is untouched.
	events, err := s.Events(EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)

	history, err := s.CountryDataHistory(c.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	countries, err := s.Countries()
	require.NoError(t, err)
	assert.Len(t, countries, 1)

	snapshots, err := s.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 100, snapshots[0].DateDays)
}
