package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	m := NewManager(t.TempDir())
	s, err := m.GetStore("unitednationsofearth_-15512622")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return s
}

func pint(v int) *int { return &v }

func TestGetStoreCachesPerSeries(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.Close()

	s1, err := m.GetStore("alpha")
	require.NoError(t, err)
	s2, err := m.GetStore("alpha")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	_, err = m.GetStore("")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestListSeries(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.Close()

	names, err := m.ListSeries()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = m.GetStore("bravo")
	require.NoError(t, err)
	_, err = m.GetStore("alpha")
	require.NoError(t, err)

	names, err = m.ListSeries()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo"}, names)
}

func TestSeriesBootstrap(t *testing.T) {
	s := newTestStore(t)

	series, err := s.Series()
	require.NoError(t, err)
	assert.Equal(t, "unitednationsofearth_-15512622", series.Name)
	assert.Zero(t, series.SnapshotCount)
	assert.Zero(t, series.LastSnapshotDays)

	require.NoError(t, s.SetObserverCountryName("United Nations of Earth"))
	series, err = s.Series()
	require.NoError(t, err)
	assert.Equal(t, "United Nations of Earth", series.ObserverCountryName)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(100)
	require.NoError(t, err)
	defer tx.Rollback()
	assert.False(t, tx.Superseded)

	country := &model.Country{InGameID: 0, Name: "United Nations of Earth", CountryType: "default", IsObserver: true}
	require.NoError(t, tx.UpsertCountry(country))
	require.NotZero(t, country.ID)

	system := &model.System{InGameID: 42, Name: "Sol", OriginalName: "Sol", X: 15.2, Y: -3.7}
	require.NoError(t, tx.UpsertSystem(system))

	event := &model.HistoricalEvent{
		Kind:            model.EventRuledEmpire,
		CountryID:       &country.ID,
		StartDateDays:   100,
		KnownToObserver: true,
	}
	require.NoError(t, tx.InsertEvent(event))
	assert.Equal(t, tx.SnapshotID, event.SnapshotID)

	require.NoError(t, tx.Commit())

	exists, err := s.SnapshotExists(100)
	require.NoError(t, err)
	assert.True(t, exists)

	snapshots, err := s.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 100, snapshots[0].DateDays)

	countries, err := s.Countries()
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "United Nations of Earth", countries[0].Name)
	assert.True(t, countries[0].IsObserver)

	events, err := s.Events(EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventRuledEmpire, events[0].Kind)
	assert.True(t, events[0].Open())

	series, err := s.Series()
	require.NoError(t, err)
	assert.Equal(t, 1, series.SnapshotCount)
	assert.Equal(t, 100, series.LastSnapshotDays)
}

func TestUpsertCountryUpdatesInPlace(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	c := &model.Country{InGameID: 5, Name: "Blorg Commonality", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))
	firstID := c.ID
	require.NoError(t, tx.Commit())

	tx, err = s.BeginSnapshot(30)
	require.NoError(t, err)
	got, err := tx.GetCountry(5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, firstID, got.ID)

	got.Name = "Blorg Star Commonality"
	got.FirstContactWithObserverDays = pint(30)
	require.NoError(t, tx.UpsertCountry(got))
	require.NoError(t, tx.Commit())

	countries, err := s.Countries()
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, firstID, countries[0].ID)
	assert.Equal(t, "Blorg Star Commonality", countries[0].Name)
	require.NotNil(t, countries[0].FirstContactWithObserverDays)
	assert.Equal(t, 30, *countries[0].FirstContactWithObserverDays)
	assert.True(t, countries[0].HasMetObserver())
}

func TestGetCountryUnknownIsNil(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	defer tx.Rollback()

	got, err := tx.GetCountry(999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRollbackDiscardsEverything(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(50)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertCountry(&model.Country{InGameID: 1, Name: "Doomed", CountryType: "default"}))
	tx.Rollback()
	tx.Rollback() // second call must be harmless

	exists, err := s.SnapshotExists(50)
	require.NoError(t, err)
	assert.False(t, exists)

	countries, err := s.Countries()
	require.NoError(t, err)
	assert.Empty(t, countries)

	// The write lock must be released again.
	tx, err = s.BeginSnapshot(50)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func TestActiveLeaders(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))
	for i, name := range []string{"Ellen Koht", "Bnobar Kruxix"} {
		require.NoError(t, tx.UpsertLeader(&model.Leader{
			InGameID:      int64(i + 10),
			CountryID:     &c.ID,
			Name:          name,
			Class:         "scientist",
			Subclass:      "subclass_scientist_explorer",
			Gender:        "female",
			Traits:        []string{"trait_intelligent", "trait_meticulous"},
			Level:         1,
			DateHiredDays: 0,
			DateBornDays:  -7200,
			LastSeenDays:  0,
			IsActive:      true,
		}))
	}
	require.NoError(t, tx.Commit())

	tx, err = s.BeginSnapshot(360)
	require.NoError(t, err)
	active, err := tx.ActiveLeaders()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "subclass_scientist_explorer", active[0].Subclass)
	assert.Equal(t, []string{"trait_intelligent", "trait_meticulous"}, active[0].Traits)

	// Retire one of them.
	retired := active[0]
	retired.IsActive = false
	retired.LastSeenDays = 360
	require.NoError(t, tx.UpsertLeader(retired))
	require.NoError(t, tx.Commit())

	tx, err = s.BeginSnapshot(720)
	require.NoError(t, err)
	defer tx.Rollback()
	active, err = tx.ActiveLeaders()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Bnobar Kruxix", active[0].Name)

	// Dead leaders stay reachable for historical references.
	all, err := tx.AllLeaders()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSystemOwnershipIntervals(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	c1 := &model.Country{InGameID: 0, Name: "First", CountryType: "default"}
	c2 := &model.Country{InGameID: 1, Name: "Second", CountryType: "default"}
	sys := &model.System{InGameID: 7, Name: "Alpha Centauri"}
	require.NoError(t, tx.UpsertCountry(c1))
	require.NoError(t, tx.UpsertCountry(c2))
	require.NoError(t, tx.UpsertSystem(sys))

	cur, err := tx.CurrentSystemOwnership(sys.ID)
	require.NoError(t, err)
	assert.Nil(t, cur)

	require.NoError(t, tx.AddSystemOwnership(&model.SystemOwnership{
		SystemID: sys.ID, CountryID: c1.ID, StartDateDays: 0,
	}))
	require.NoError(t, tx.Commit())

	tx, err = s.BeginSnapshot(10)
	require.NoError(t, err)
	cur, err = tx.CurrentSystemOwnership(sys.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, c1.ID, cur.CountryID)

	require.NoError(t, tx.CloseSystemOwnership(cur.ID, 9))
	require.NoError(t, tx.AddSystemOwnership(&model.SystemOwnership{
		SystemID: sys.ID, CountryID: c2.ID, StartDateDays: 10,
	}))
	require.NoError(t, tx.Commit())

	history, err := s.OwnershipHistory(sys.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, c1.ID, history[0].CountryID)
	require.NotNil(t, history[0].EndDateDays)
	assert.Equal(t, 9, *history[0].EndDateDays)
	assert.Equal(t, c2.ID, history[1].CountryID)
	assert.Nil(t, history[1].EndDateDays)
}

func TestGovernmentIntervals(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))

	require.NoError(t, tx.AddGovernment(&model.Government{
		CountryID:     c.ID,
		StartDateDays: 0,
		Name:          "Earth Custodianship",
		Type:          "gov_representative_democracy",
		Authority:     "auth_democratic",
		Personality:   "federation_builders",
		Ethics:        []string{"ethic_egalitarian", "ethic_xenophile"},
		Civics:        []string{"civic_beacon_of_liberty", "civic_idealistic_foundation"},
	}))
	require.NoError(t, tx.Commit())

	tx, err = s.BeginSnapshot(300)
	require.NoError(t, err)
	cur, err := tx.CurrentGovernment(c.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, []string{"ethic_egalitarian", "ethic_xenophile"}, cur.Ethics)
	assert.Equal(t, []string{"civic_beacon_of_liberty", "civic_idealistic_foundation"}, cur.Civics)

	require.NoError(t, tx.CloseGovernment(cur.ID, 299))
	require.NoError(t, tx.AddGovernment(&model.Government{
		CountryID:     c.ID,
		StartDateDays: 300,
		Name:          "Earth Hegemony",
		Type:          "gov_star_empire",
		Authority:     "auth_dictatorial",
		Personality:   "hegemonic_imperialists",
		Ethics:        []string{"ethic_authoritarian"},
		Civics:        []string{"civic_feudal_realm"},
	}))
	require.NoError(t, tx.Commit())

	history, err := s.GovernmentHistory(c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].EndDateDays)
	assert.Equal(t, 299, *history[0].EndDateDays)
	assert.Equal(t, "Earth Hegemony", history[1].Name)
	assert.Nil(t, history[1].EndDateDays)
}

func TestTechnologyLifecycle(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	defer tx.Rollback()
	c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))

	got, err := tx.GetTechnology(c.ID, "tech_lasers_2")
	require.NoError(t, err)
	assert.Nil(t, got)

	tech := &model.Technology{CountryID: c.ID, Name: "tech_lasers_2"}
	require.NoError(t, tx.AddTechnology(tech))
	require.NotZero(t, tech.ID)

	got, err = tx.GetTechnology(c.ID, "tech_lasers_2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsCompleted)

	require.NoError(t, tx.CompleteTechnology(tech.ID))
	got, err = tx.GetTechnology(c.ID, "tech_lasers_2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsCompleted)
}

func TestFindLatestEventPrefersNewest(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(200)
	require.NoError(t, err)
	c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
	l1 := &model.Leader{InGameID: 1, Name: "First Ruler", Class: "ruler", IsActive: true}
	l2 := &model.Leader{InGameID: 2, Name: "Second Ruler", Class: "ruler", IsActive: true}
	require.NoError(t, tx.UpsertCountry(c))
	require.NoError(t, tx.UpsertLeader(l1))
	require.NoError(t, tx.UpsertLeader(l2))

	old := &model.HistoricalEvent{
		Kind: model.EventRuledEmpire, CountryID: &c.ID, LeaderID: &l1.ID,
		StartDateDays: 0, EndDateDays: pint(99),
	}
	require.NoError(t, tx.InsertEvent(old))
	current := &model.HistoricalEvent{
		Kind: model.EventRuledEmpire, CountryID: &c.ID, LeaderID: &l2.ID,
		StartDateDays: 100,
	}
	require.NoError(t, tx.InsertEvent(current))

	latest, err := tx.FindLatestEvent(EventQuery{Kind: model.EventRuledEmpire, CountryID: &c.ID})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 100, latest.StartDateDays)

	open, err := tx.FindLatestEvent(EventQuery{Kind: model.EventRuledEmpire, CountryID: &c.ID, OnlyOpen: true})
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, current.ID, open.ID)

	require.NoError(t, tx.SetEventEnd(current.ID, 199))
	open, err = tx.FindLatestEvent(EventQuery{Kind: model.EventRuledEmpire, CountryID: &c.ID, OnlyOpen: true})
	require.NoError(t, err)
	assert.Nil(t, open)

	require.NoError(t, tx.Commit())
}

func TestHasEventDedupsByDescription(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	defer tx.Rollback()
	c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))

	e := &model.HistoricalEvent{
		Kind:          model.EventResearchedTechnology,
		CountryID:     &c.ID,
		Description:   "tech_hyper_drive_1",
		StartDateDays: 0,
	}
	require.NoError(t, tx.InsertEvent(e))
	require.NotNil(t, e.DescriptionID)

	seen, err := tx.HasEvent(EventQuery{
		Kind: model.EventResearchedTechnology, CountryID: &c.ID, DescriptionID: e.DescriptionID,
	})
	require.NoError(t, err)
	assert.True(t, seen)

	otherID, err := tx.DescriptionID("tech_hyper_drive_2")
	require.NoError(t, err)
	seen, err = tx.HasEvent(EventQuery{
		Kind: model.EventResearchedTechnology, CountryID: &c.ID, DescriptionID: &otherID,
	})
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestSharedDescriptionsAreDeduplicated(t *testing.T) {
	s := newTestStore(t)

	for _, date := range []int{0, 30} {
		tx, err := s.BeginSnapshot(date)
		require.NoError(t, err)
		c := &model.Country{InGameID: int64(date), Name: "Empire", CountryType: "default"}
		require.NoError(t, tx.UpsertCountry(c))
		require.NoError(t, tx.InsertEvent(&model.HistoricalEvent{
			Kind:          model.EventTradition,
			CountryID:     &c.ID,
			Description:   "tr_discovery_adopt",
			StartDateDays: date,
		}))
		require.NoError(t, tx.Commit())
	}

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM shared_descriptions WHERE text = ?", "tr_discovery_adopt",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	events, err := s.Events(EventFilter{Kinds: []model.EventKind{model.EventTradition}})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "tr_discovery_adopt", events[0].Description)
	assert.Equal(t, "tr_discovery_adopt", events[1].Description)
}

func TestEventsFilter(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	c1 := &model.Country{InGameID: 0, Name: "Observer", CountryType: "default", IsObserver: true}
	c2 := &model.Country{InGameID: 1, Name: "Neighbor", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c1))
	require.NoError(t, tx.UpsertCountry(c2))

	for _, e := range []*model.HistoricalEvent{
		{Kind: model.EventRuledEmpire, CountryID: &c1.ID, StartDateDays: 0, KnownToObserver: true},
		{Kind: model.EventTradition, CountryID: &c1.ID, StartDateDays: 120, KnownToObserver: true},
		{Kind: model.EventRuledEmpire, CountryID: &c2.ID, StartDateDays: 60},
	} {
		require.NoError(t, tx.InsertEvent(e))
	}
	require.NoError(t, tx.Commit())

	events, err := s.Events(EventFilter{Kinds: []model.EventKind{model.EventRuledEmpire}})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = s.Events(EventFilter{CountryID: &c1.ID})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = s.Events(EventFilter{OnlyKnown: true})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = s.Events(EventFilter{MinDateDays: pint(60), MaxDateDays: pint(120)})
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Ordered by start date.
	assert.Equal(t, 60, events[0].StartDateDays)
	assert.Equal(t, 120, events[1].StartDateDays)
}

func TestMarkEventKnownWidensVisibility(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(0)
	require.NoError(t, err)
	c := &model.Country{InGameID: 1, Name: "Hidden Empire", CountryType: "default"}
	require.NoError(t, tx.UpsertCountry(c))
	e := &model.HistoricalEvent{Kind: model.EventRuledEmpire, CountryID: &c.ID, StartDateDays: 0}
	require.NoError(t, tx.InsertEvent(e))
	require.NoError(t, tx.Commit())

	events, err := s.Events(EventFilter{OnlyKnown: true})
	require.NoError(t, err)
	assert.Empty(t, events)

	tx, err = s.BeginSnapshot(30)
	require.NoError(t, err)
	require.NoError(t, tx.MarkEventKnown(e.ID))
	require.NoError(t, tx.Commit())

	events, err = s.Events(EventFilter{OnlyKnown: true})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].ID)
}

func TestWarsParticipantsAndCombats(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginSnapshot(500)
	require.NoError(t, err)
	attacker := &model.Country{InGameID: 0, Name: "Attacker", CountryType: "default"}
	defender := &model.Country{InGameID: 1, Name: "Defender", CountryType: "default"}
	sys := &model.System{InGameID: 3, Name: "Contested"}
	require.NoError(t, tx.UpsertCountry(attacker))
	require.NoError(t, tx.UpsertCountry(defender))
	require.NoError(t, tx.UpsertSystem(sys))

	war := &model.War{InGameID: 900, Name: "War in Heaven", StartDateDays: 480}
	require.NoError(t, tx.UpsertWar(war))
	assert.Equal(t, model.WarOutcomeInProgress, war.Outcome)

	// Recording the same participant twice must not duplicate the row.
	for i := 0; i < 2; i++ {
		require.NoError(t, tx.AddWarParticipant(&model.WarParticipant{
			WarID: war.ID, CountryID: attacker.ID, CallType: "primary", WarGoal: "wg_conquest", IsAttacker: true,
		}))
	}
	// The defender's war goal is unknown at first and backfilled when a later
	// snapshot reveals it. A goal once recorded is kept.
	require.NoError(t, tx.AddWarParticipant(&model.WarParticipant{
		WarID: war.ID, CountryID: defender.ID, CallType: "primary",
	}))
	require.NoError(t, tx.AddWarParticipant(&model.WarParticipant{
		WarID: war.ID, CountryID: defender.ID, CallType: "primary", WarGoal: "wg_survival",
	}))
	require.NoError(t, tx.AddWarParticipant(&model.WarParticipant{
		WarID: war.ID, CountryID: defender.ID, CallType: "primary", WarGoal: "wg_conquest",
	}))
	participants, err := tx.WarParticipants(war.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	for _, p := range participants {
		if p.CountryID == defender.ID {
			assert.Equal(t, "wg_survival", p.WarGoal)
		}
	}

	combat := &model.Combat{
		WarID:                 war.ID,
		SystemID:              &sys.ID,
		DateDays:              500,
		Type:                  model.CombatTypeShips,
		AttackerVictory:       true,
		AttackerWarExhaustion: 0.05,
		DefenderWarExhaustion: 0.21,
	}
	seen, err := tx.FindCombat(combat)
	require.NoError(t, err)
	assert.Nil(t, seen)

	require.NoError(t, tx.AddCombat(combat))
	require.NoError(t, tx.AddCombatParticipant(combat.ID, attacker.ID, true))
	require.NoError(t, tx.AddCombatParticipant(combat.ID, defender.ID, false))

	seen, err = tx.FindCombat(combat)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, combat.ID, seen.ID)

	// The same battle reported under a shifted date is still the same battle;
	// one with a different outcome is not.
	shifted := *combat
	shifted.DateDays = 510
	seen, err = tx.FindCombat(&shifted)
	require.NoError(t, err)
	assert.NotNil(t, seen)

	other := *combat
	other.AttackerVictory = false
	seen, err = tx.FindCombat(&other)
	require.NoError(t, err)
	assert.Nil(t, seen)

	require.NoError(t, tx.Commit())

	tx, err = s.BeginSnapshot(520)
	require.NoError(t, err)
	defer tx.Rollback()
	open, err := tx.OpenWars()
	require.NoError(t, err)
	require.Len(t, open, 1)
	open[0].EndDateDays = pint(519)
	open[0].Outcome = model.WarOutcomeTruce
	require.NoError(t, tx.UpsertWar(open[0]))

	open, err = tx.OpenWars()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCountryDataHistoryOrderedByDate(t *testing.T) {
	s := newTestStore(t)

	var countryID int64
	// Import the later snapshot first; history must still come back in
	// date order.
	for _, snap := range []struct {
		date  int
		power float64
	}{{720, 1800.0}, {360, 950.5}} {
		tx, err := s.BeginSnapshot(snap.date)
		require.NoError(t, err)
		c := &model.Country{InGameID: 0, Name: "Empire", CountryType: "default"}
		require.NoError(t, tx.UpsertCountry(c))
		countryID = c.ID

		cd := &model.CountryData{
			CountryID:              c.ID,
			MilitaryPower:          snap.power,
			FleetSize:              20,
			TechCount:              12,
			EmpireSize:             40,
			OwnedPlanets:           3,
			ControlledSystems:      9,
			NetEnergy:              14.25,
			AttitudeTowardObserver: model.AttitudeFriendly,
		}
		require.NoError(t, tx.InsertCountryData(cd))
		require.NotZero(t, cd.ID)

		require.NoError(t, tx.AddPopStatsSpecies(&model.PopStatsBySpecies{
			CountryDataID: cd.ID, SpeciesID: mustSpecies(t, tx, 1, "Human"), PopCount: 36,
			Crime: 4.2, Happiness: 0.62, Power: 210,
		}))
		require.NoError(t, tx.AddPopStatsJob(&model.PopStatsByJob{
			CountryDataID: cd.ID, Job: "researcher", PopCount: 8, Happiness: 0.7,
		}))
		require.NoError(t, tx.AddPopStatsStratum(&model.PopStatsByStratum{
			CountryDataID: cd.ID, Stratum: "specialist", PopCount: 12, Happiness: 0.68,
		}))
		require.NoError(t, tx.Commit())
	}

	history, err := s.CountryDataHistory(countryID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 950.5, history[0].MilitaryPower)
	assert.Equal(t, 1800.0, history[1].MilitaryPower)
	assert.Equal(t, model.AttitudeFriendly, history[0].AttitudeTowardObserver)

	var popRows int
	err = s.db.QueryRow("SELECT COUNT(*) FROM pop_stats_species").Scan(&popRows)
	require.NoError(t, err)
	assert.Equal(t, 2, popRows)
}

func mustSpecies(t *testing.T, tx *SnapshotTx, inGameID int64, name string) int64 {
	t.Helper()
	sp := &model.Species{InGameID: inGameID, Name: name, Archetype: "BIOLOGICAL"}
	require.NoError(t, tx.UpsertSpecies(sp))
	return sp.ID
}
