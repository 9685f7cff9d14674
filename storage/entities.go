package storage

import (
	"database/sql"
	"strings"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// GetCountry returns the country with the given in-game id, or nil when it
// has never been stored.
func (t *SnapshotTx) GetCountry(inGameID int64) (*model.Country, error) {
	if c, ok := t.countries[inGameID]; ok {
		return c, nil
	}
	row := t.tx.QueryRow(`
		SELECT id, in_game_id, name, country_type, is_observer, is_other_player,
		       first_contact_with_observer_days, capital_planet_id, ruler_leader_id
		FROM countries WHERE series_id = ? AND in_game_id = ?`,
		t.store.seriesID, inGameID)
	c, err := scanCountry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.countries[inGameID] = &c
	return &c, nil
}

// AllCountries loads every known country of the series into the transaction
// cache and returns them. The result includes countries absent from the
// current snapshot, so history referring to destroyed countries still
// resolves.
func (t *SnapshotTx) AllCountries() ([]*model.Country, error) {
	rows, err := t.tx.Query(`
		SELECT id, in_game_id, name, country_type, is_observer, is_other_player,
		       first_contact_with_observer_days, capital_planet_id, ruler_leader_id
		FROM countries WHERE series_id = ?`, t.store.seriesID)
	if err != nil {
		return nil, storeErr(err, "failed to query countries")
	}
	defer rows.Close()

	var out []*model.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		if cached, ok := t.countries[c.InGameID]; ok {
			out = append(out, cached)
			continue
		}
		country := c
		t.countries[c.InGameID] = &country
		out = append(out, &country)
	}
	return out, rows.Err()
}

// UpsertCountry inserts or updates a country and caches it for the rest of
// the snapshot.
func (t *SnapshotTx) UpsertCountry(c *model.Country) error {
	if c.ID == 0 {
		if existing, ok := t.countries[c.InGameID]; ok && existing.ID != 0 {
			c.ID = existing.ID
		}
	}
	if c.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO countries (series_id, in_game_id, name, country_type, is_observer,
			                       is_other_player, first_contact_with_observer_days,
			                       capital_planet_id, ruler_leader_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.store.seriesID, c.InGameID, c.Name, c.CountryType, c.IsObserver,
			c.IsOtherPlayer, nullableInt(c.FirstContactWithObserverDays),
			nullableID(c.CapitalPlanetID), nullableID(c.RulerLeaderID))
		if err != nil {
			return storeErr(err, "failed to insert country")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read country id")
		}
		c.ID = id
	} else {
		_, err := t.tx.Exec(`
			UPDATE countries SET name = ?, country_type = ?, is_observer = ?,
			       is_other_player = ?, first_contact_with_observer_days = ?,
			       capital_planet_id = ?, ruler_leader_id = ?
			WHERE id = ?`,
			c.Name, c.CountryType, c.IsObserver, c.IsOtherPlayer,
			nullableInt(c.FirstContactWithObserverDays),
			nullableID(c.CapitalPlanetID), nullableID(c.RulerLeaderID), c.ID)
		if err != nil {
			return storeErr(err, "failed to update country")
		}
	}
	t.countries[c.InGameID] = c
	return nil
}

// GetSystem returns the system with the given in-game id, or nil.
func (t *SnapshotTx) GetSystem(inGameID int64) (*model.System, error) {
	if s, ok := t.systems[inGameID]; ok {
		return s, nil
	}
	var s model.System
	err := t.tx.QueryRow(`
		SELECT id, in_game_id, name, original_name, coordinate_x, coordinate_y
		FROM systems WHERE series_id = ? AND in_game_id = ?`,
		t.store.seriesID, inGameID,
	).Scan(&s.ID, &s.InGameID, &s.Name, &s.OriginalName, &s.X, &s.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan system")
	}
	t.systems[inGameID] = &s
	return &s, nil
}

// AllSystems loads every known system of the series into the transaction
// cache and returns them. Importers call this once per snapshot so the
// per-system lookups that follow stay in memory.
func (t *SnapshotTx) AllSystems() ([]*model.System, error) {
	rows, err := t.tx.Query(`
		SELECT id, in_game_id, name, original_name, coordinate_x, coordinate_y
		FROM systems WHERE series_id = ?`, t.store.seriesID)
	if err != nil {
		return nil, storeErr(err, "failed to query systems")
	}
	defer rows.Close()

	var out []*model.System
	for rows.Next() {
		var s model.System
		if err := rows.Scan(&s.ID, &s.InGameID, &s.Name, &s.OriginalName, &s.X, &s.Y); err != nil {
			return nil, storeErr(err, "failed to scan system")
		}
		if cached, ok := t.systems[s.InGameID]; ok {
			out = append(out, cached)
			continue
		}
		sys := s
		t.systems[s.InGameID] = &sys
		out = append(out, &sys)
	}
	return out, rows.Err()
}

func (t *SnapshotTx) UpsertSystem(s *model.System) error {
	if s.ID == 0 {
		if existing, ok := t.systems[s.InGameID]; ok && existing.ID != 0 {
			s.ID = existing.ID
		}
	}
	if s.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO systems (series_id, in_game_id, name, original_name, coordinate_x, coordinate_y)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.store.seriesID, s.InGameID, s.Name, s.OriginalName, s.X, s.Y)
		if err != nil {
			return storeErr(err, "failed to insert system")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read system id")
		}
		s.ID = id
	} else {
		_, err := t.tx.Exec(`
			UPDATE systems SET name = ?, original_name = ?, coordinate_x = ?, coordinate_y = ?
			WHERE id = ?`,
			s.Name, s.OriginalName, s.X, s.Y, s.ID)
		if err != nil {
			return storeErr(err, "failed to update system")
		}
	}
	t.systems[s.InGameID] = s
	return nil
}

// GetPlanet returns the planet with the given in-game id, or nil.
func (t *SnapshotTx) GetPlanet(inGameID int64) (*model.Planet, error) {
	if p, ok := t.planets[inGameID]; ok {
		return p, nil
	}
	var p model.Planet
	var systemID sql.NullInt64
	var colonized sql.NullInt64
	err := t.tx.QueryRow(`
		SELECT id, in_game_id, system_id, name, planet_class, colonized_days
		FROM planets WHERE series_id = ? AND in_game_id = ?`,
		t.store.seriesID, inGameID,
	).Scan(&p.ID, &p.InGameID, &systemID, &p.Name, &p.PlanetClass, &colonized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan planet")
	}
	p.SystemID = idPtr(systemID)
	p.ColonizedDays = intPtr(colonized)
	t.planets[inGameID] = &p
	return &p, nil
}

// AllPlanets loads every planet of the series into the cache and returns
// them.
func (t *SnapshotTx) AllPlanets() ([]*model.Planet, error) {
	rows, err := t.tx.Query(`
		SELECT id, in_game_id, system_id, name, planet_class, colonized_days
		FROM planets WHERE series_id = ?`, t.store.seriesID)
	if err != nil {
		return nil, storeErr(err, "failed to query planets")
	}
	defer rows.Close()

	var out []*model.Planet
	for rows.Next() {
		var p model.Planet
		var systemID sql.NullInt64
		var colonized sql.NullInt64
		if err := rows.Scan(&p.ID, &p.InGameID, &systemID, &p.Name, &p.PlanetClass, &colonized); err != nil {
			return nil, storeErr(err, "failed to scan planet")
		}
		if cached, ok := t.planets[p.InGameID]; ok {
			out = append(out, cached)
			continue
		}
		p.SystemID = idPtr(systemID)
		p.ColonizedDays = intPtr(colonized)
		planet := p
		t.planets[p.InGameID] = &planet
		out = append(out, &planet)
	}
	return out, rows.Err()
}

func (t *SnapshotTx) UpsertPlanet(p *model.Planet) error {
	if p.ID == 0 {
		if existing, ok := t.planets[p.InGameID]; ok && existing.ID != 0 {
			p.ID = existing.ID
		}
	}
	if p.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO planets (series_id, in_game_id, system_id, name, planet_class, colonized_days)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.store.seriesID, p.InGameID, nullableID(p.SystemID), p.Name, p.PlanetClass,
			nullableInt(p.ColonizedDays))
		if err != nil {
			return storeErr(err, "failed to insert planet")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read planet id")
		}
		p.ID = id
	} else {
		_, err := t.tx.Exec(`
			UPDATE planets SET system_id = ?, name = ?, planet_class = ?, colonized_days = ?
			WHERE id = ?`,
			nullableID(p.SystemID), p.Name, p.PlanetClass, nullableInt(p.ColonizedDays), p.ID)
		if err != nil {
			return storeErr(err, "failed to update planet")
		}
	}
	t.planets[p.InGameID] = p
	return nil
}

// GetLeader returns the leader with the given in-game id, or nil.
func (t *SnapshotTx) GetLeader(inGameID int64) (*model.Leader, error) {
	if l, ok := t.leaders[inGameID]; ok {
		return l, nil
	}
	row := t.tx.QueryRow(leaderSelect+" WHERE series_id = ? AND in_game_id = ?",
		t.store.seriesID, inGameID)
	l, err := scanLeader(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.leaders[inGameID] = &l
	return &l, nil
}

// AllLeaders returns every leader of the series, active or not. Downstream
// references (rulers, faction leadership) may point at leaders who have
// already died.
func (t *SnapshotTx) AllLeaders() ([]*model.Leader, error) {
	rows, err := t.tx.Query(leaderSelect+" WHERE series_id = ?", t.store.seriesID)
	if err != nil {
		return nil, storeErr(err, "failed to query leaders")
	}
	defer rows.Close()

	var out []*model.Leader
	for rows.Next() {
		l, err := scanLeader(rows)
		if err != nil {
			return nil, err
		}
		if cached, ok := t.leaders[l.InGameID]; ok {
			out = append(out, cached)
			continue
		}
		leader := l
		t.leaders[l.InGameID] = &leader
		out = append(out, &leader)
	}
	return out, rows.Err()
}

// ActiveLeaders returns all leaders currently marked active, so leaders
// absent from the snapshot can be retired.
func (t *SnapshotTx) ActiveLeaders() ([]*model.Leader, error) {
	all, err := t.AllLeaders()
	if err != nil {
		return nil, err
	}
	var out []*model.Leader
	for _, l := range all {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

const leaderSelect = `
	SELECT id, in_game_id, country_id, species_id, name, leader_class, subclass,
	       gender, traits, level, date_hired_days, date_born_days, last_seen_days, is_active
	FROM leaders`

func scanLeader(r rowScanner) (model.Leader, error) {
	var l model.Leader
	var countryID, speciesID sql.NullInt64
	var traits string
	err := r.Scan(&l.ID, &l.InGameID, &countryID, &speciesID, &l.Name, &l.Class,
		&l.Subclass, &l.Gender, &traits, &l.Level, &l.DateHiredDays, &l.DateBornDays,
		&l.LastSeenDays, &l.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return l, err
		}
		return l, storeErr(err, "failed to scan leader")
	}
	l.CountryID = idPtr(countryID)
	l.SpeciesID = idPtr(speciesID)
	l.Traits = splitList(traits)
	return l, nil
}

func (t *SnapshotTx) UpsertLeader(l *model.Leader) error {
	if l.ID == 0 {
		if existing, ok := t.leaders[l.InGameID]; ok && existing.ID != 0 {
			l.ID = existing.ID
		}
	}
	if l.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO leaders (series_id, in_game_id, country_id, species_id, name,
			                     leader_class, subclass, gender, traits, level,
			                     date_hired_days, date_born_days, last_seen_days, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.store.seriesID, l.InGameID, nullableID(l.CountryID), nullableID(l.SpeciesID),
			l.Name, l.Class, l.Subclass, l.Gender, joinList(l.Traits), l.Level,
			l.DateHiredDays, l.DateBornDays, l.LastSeenDays, l.IsActive)
		if err != nil {
			return storeErr(err, "failed to insert leader")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read leader id")
		}
		l.ID = id
	} else {
		_, err := t.tx.Exec(`
			UPDATE leaders SET country_id = ?, species_id = ?, name = ?, leader_class = ?,
			       subclass = ?, gender = ?, traits = ?, level = ?, date_hired_days = ?,
			       date_born_days = ?, last_seen_days = ?, is_active = ?
			WHERE id = ?`,
			nullableID(l.CountryID), nullableID(l.SpeciesID), l.Name, l.Class, l.Subclass,
			l.Gender, joinList(l.Traits), l.Level, l.DateHiredDays, l.DateBornDays,
			l.LastSeenDays, l.IsActive, l.ID)
		if err != nil {
			return storeErr(err, "failed to update leader")
		}
	}
	t.leaders[l.InGameID] = l
	return nil
}

// GetSpecies returns the species with the given in-game id, or nil.
func (t *SnapshotTx) GetSpecies(inGameID int64) (*model.Species, error) {
	if sp, ok := t.species[inGameID]; ok {
		return sp, nil
	}
	var sp model.Species
	err := t.tx.QueryRow(`
		SELECT id, in_game_id, name, archetype
		FROM species WHERE series_id = ? AND in_game_id = ?`,
		t.store.seriesID, inGameID,
	).Scan(&sp.ID, &sp.InGameID, &sp.Name, &sp.Archetype)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan species")
	}
	t.species[inGameID] = &sp
	return &sp, nil
}

func (t *SnapshotTx) UpsertSpecies(sp *model.Species) error {
	if sp.ID == 0 {
		if existing, ok := t.species[sp.InGameID]; ok && existing.ID != 0 {
			sp.ID = existing.ID
		}
	}
	if sp.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO species (series_id, in_game_id, name, archetype)
			VALUES (?, ?, ?, ?)`,
			t.store.seriesID, sp.InGameID, sp.Name, sp.Archetype)
		if err != nil {
			return storeErr(err, "failed to insert species")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read species id")
		}
		sp.ID = id
	} else {
		_, err := t.tx.Exec(
			"UPDATE species SET name = ?, archetype = ? WHERE id = ?",
			sp.Name, sp.Archetype, sp.ID)
		if err != nil {
			return storeErr(err, "failed to update species")
		}
	}
	t.species[sp.InGameID] = sp
	return nil
}

// GetFaction returns the faction with the given in-game id, or nil.
// Synthetic pop groupings use negative in-game ids.
func (t *SnapshotTx) GetFaction(inGameID int64) (*model.Faction, error) {
	if f, ok := t.factions[inGameID]; ok {
		return f, nil
	}
	var f model.Faction
	err := t.tx.QueryRow(`
		SELECT id, in_game_id, country_id, name, faction_type
		FROM factions WHERE series_id = ? AND in_game_id = ?`,
		t.store.seriesID, inGameID,
	).Scan(&f.ID, &f.InGameID, &f.CountryID, &f.Name, &f.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan faction")
	}
	t.factions[inGameID] = &f
	return &f, nil
}

func (t *SnapshotTx) UpsertFaction(f *model.Faction) error {
	if f.ID == 0 {
		if existing, ok := t.factions[f.InGameID]; ok && existing.ID != 0 {
			f.ID = existing.ID
		}
	}
	if f.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO factions (series_id, in_game_id, country_id, name, faction_type)
			VALUES (?, ?, ?, ?, ?)`,
			t.store.seriesID, f.InGameID, f.CountryID, f.Name, f.Type)
		if err != nil {
			return storeErr(err, "failed to insert faction")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read faction id")
		}
		f.ID = id
	} else {
		_, err := t.tx.Exec(
			"UPDATE factions SET country_id = ?, name = ?, faction_type = ? WHERE id = ?",
			f.CountryID, f.Name, f.Type, f.ID)
		if err != nil {
			return storeErr(err, "failed to update faction")
		}
	}
	t.factions[f.InGameID] = f
	return nil
}

// GetWar returns the war with the given in-game id, or nil.
func (t *SnapshotTx) GetWar(inGameID int64) (*model.War, error) {
	if w, ok := t.wars[inGameID]; ok {
		return w, nil
	}
	var w model.War
	var end sql.NullInt64
	var outcome string
	err := t.tx.QueryRow(`
		SELECT id, in_game_id, name, start_date_days, end_date_days, outcome,
		       attacker_war_exhaustion, defender_war_exhaustion
		FROM wars WHERE series_id = ? AND in_game_id = ?`,
		t.store.seriesID, inGameID,
	).Scan(&w.ID, &w.InGameID, &w.Name, &w.StartDateDays, &end, &outcome,
		&w.AttackerWarExhaustion, &w.DefenderWarExhaustion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan war")
	}
	w.EndDateDays = intPtr(end)
	w.Outcome = model.WarOutcome(outcome)
	t.wars[inGameID] = &w
	return &w, nil
}

// OpenWars returns wars still marked in progress, so wars that vanished from
// the snapshot can be resolved.
func (t *SnapshotTx) OpenWars() ([]*model.War, error) {
	return t.warsWhere("outcome = ?", string(model.WarOutcomeInProgress))
}

// ClosedWars returns wars whose outcome has been resolved. Re-imports use it
// to restore peace events discarded along with a superseded snapshot.
func (t *SnapshotTx) ClosedWars() ([]*model.War, error) {
	return t.warsWhere("outcome <> ?", string(model.WarOutcomeInProgress))
}

func (t *SnapshotTx) warsWhere(cond string, args ...any) ([]*model.War, error) {
	rows, err := t.tx.Query(`
		SELECT id, in_game_id, name, start_date_days, end_date_days, outcome,
		       attacker_war_exhaustion, defender_war_exhaustion
		FROM wars WHERE series_id = ? AND `+cond,
		append([]any{t.store.seriesID}, args...)...)
	if err != nil {
		return nil, storeErr(err, "failed to query wars")
	}
	defer rows.Close()

	var out []*model.War
	for rows.Next() {
		var w model.War
		var end sql.NullInt64
		var outcome string
		if err := rows.Scan(&w.ID, &w.InGameID, &w.Name, &w.StartDateDays, &end,
			&outcome, &w.AttackerWarExhaustion, &w.DefenderWarExhaustion); err != nil {
			return nil, storeErr(err, "failed to scan war")
		}
		w.EndDateDays = intPtr(end)
		w.Outcome = model.WarOutcome(outcome)
		if cached, ok := t.wars[w.InGameID]; ok {
			out = append(out, cached)
			continue
		}
		war := w
		t.wars[w.InGameID] = &war
		out = append(out, &war)
	}
	return out, rows.Err()
}

func (t *SnapshotTx) UpsertWar(w *model.War) error {
	if w.ID == 0 {
		if existing, ok := t.wars[w.InGameID]; ok && existing.ID != 0 {
			w.ID = existing.ID
		}
	}
	if w.Outcome == "" {
		w.Outcome = model.WarOutcomeInProgress
	}
	if w.ID == 0 {
		res, err := t.tx.Exec(`
			INSERT INTO wars (series_id, in_game_id, name, start_date_days, end_date_days,
			                  outcome, attacker_war_exhaustion, defender_war_exhaustion)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.store.seriesID, w.InGameID, w.Name, w.StartDateDays,
			nullableInt(w.EndDateDays), string(w.Outcome),
			w.AttackerWarExhaustion, w.DefenderWarExhaustion)
		if err != nil {
			return storeErr(err, "failed to insert war")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr(err, "failed to read war id")
		}
		w.ID = id
	} else {
		_, err := t.tx.Exec(`
			UPDATE wars SET name = ?, start_date_days = ?, end_date_days = ?, outcome = ?,
			       attacker_war_exhaustion = ?, defender_war_exhaustion = ?
			WHERE id = ?`,
			w.Name, w.StartDateDays, nullableInt(w.EndDateDays), string(w.Outcome),
			w.AttackerWarExhaustion, w.DefenderWarExhaustion, w.ID)
		if err != nil {
			return storeErr(err, "failed to update war")
		}
	}
	t.wars[w.InGameID] = w
	return nil
}

// WarParticipants returns the recorded participants of a war.
func (t *SnapshotTx) WarParticipants(warID int64) ([]model.WarParticipant, error) {
	rows, err := t.tx.Query(`
		SELECT id, war_id, country_id, caller_country_id, call_type, war_goal, is_attacker
		FROM war_participants WHERE war_id = ?`, warID)
	if err != nil {
		return nil, storeErr(err, "failed to query war participants")
	}
	defer rows.Close()

	var out []model.WarParticipant
	for rows.Next() {
		var p model.WarParticipant
		var caller sql.NullInt64
		if err := rows.Scan(&p.ID, &p.WarID, &p.CountryID, &caller, &p.CallType,
			&p.WarGoal, &p.IsAttacker); err != nil {
			return nil, storeErr(err, "failed to scan war participant")
		}
		p.CallerCountryID = idPtr(caller)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddWarParticipant records a country's participation once per war. The war
// goal is only backfilled: defenders join without one and receive it when a
// later snapshot reveals it, and a goal once known is never overwritten.
func (t *SnapshotTx) AddWarParticipant(p *model.WarParticipant) error {
	res, err := t.tx.Exec(`
		INSERT INTO war_participants (war_id, country_id, caller_country_id, call_type, war_goal, is_attacker)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (war_id, country_id) DO UPDATE SET
		    war_goal = CASE WHEN war_participants.war_goal = '' THEN excluded.war_goal
		                    ELSE war_participants.war_goal END`,
		p.WarID, p.CountryID, nullableID(p.CallerCountryID), p.CallType, p.WarGoal, p.IsAttacker)
	if err != nil {
		return storeErr(err, "failed to upsert war participant")
	}
	if p.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			p.ID = id
		}
	}
	return nil
}

// FindCombat returns the stored battle with these attributes, or nil.
// Battles have no in-game id, so attribute equality is their identity. The
// date is deliberately not part of the key: the save reports battle dates
// relative to the snapshot, so the same battle can surface under different
// dates across snapshots.
func (t *SnapshotTx) FindCombat(c *model.Combat) (*model.Combat, error) {
	var found model.Combat
	var systemID, planetID sql.NullInt64
	var combatType string
	err := t.tx.QueryRow(`
		SELECT id, war_id, system_id, planet_id, date_days, combat_type,
		       attacker_victory, attacker_war_exhaustion, defender_war_exhaustion
		FROM combats
		WHERE war_id = ? AND system_id IS ? AND planet_id IS ?
		  AND combat_type = ? AND attacker_victory = ?
		  AND attacker_war_exhaustion = ? AND defender_war_exhaustion = ?
		ORDER BY id LIMIT 1`,
		c.WarID, nullableID(c.SystemID), nullableID(c.PlanetID),
		string(c.Type), c.AttackerVictory, c.AttackerWarExhaustion, c.DefenderWarExhaustion,
	).Scan(&found.ID, &found.WarID, &systemID, &planetID, &found.DateDays, &combatType,
		&found.AttackerVictory, &found.AttackerWarExhaustion, &found.DefenderWarExhaustion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan combat")
	}
	found.SystemID = idPtr(systemID)
	found.PlanetID = idPtr(planetID)
	found.Type = model.CombatType(combatType)
	return &found, nil
}

// AddCombat stores a battle and sets its id.
func (t *SnapshotTx) AddCombat(c *model.Combat) error {
	res, err := t.tx.Exec(`
		INSERT INTO combats (war_id, system_id, planet_id, date_days, combat_type,
		                     attacker_victory, attacker_war_exhaustion, defender_war_exhaustion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.WarID, nullableID(c.SystemID), nullableID(c.PlanetID), c.DateDays,
		string(c.Type), c.AttackerVictory, c.AttackerWarExhaustion, c.DefenderWarExhaustion)
	if err != nil {
		return storeErr(err, "failed to insert combat")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read combat id")
	}
	c.ID = id
	return nil
}

// AddCombatParticipant links a country to a battle.
func (t *SnapshotTx) AddCombatParticipant(combatID, countryID int64, isAttacker bool) error {
	_, err := t.tx.Exec(`
		INSERT INTO combat_participants (combat_id, country_id, is_attacker)
		VALUES (?, ?, ?)`, combatID, countryID, isAttacker)
	if err != nil {
		return storeErr(err, "failed to insert combat participant")
	}
	return nil
}

// joinList renders a string slice into the comma-joined column form used for
// ethics and civics.
func joinList(vs []string) string {
	return strings.Join(vs, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
