package storage

import (
	"database/sql"
	"strings"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// EventQuery selects events by kind and subject ids during timeline
// extraction. Nil fields do not constrain the match.
type EventQuery struct {
	Kind            model.EventKind
	CountryID       *int64
	TargetCountryID *int64
	LeaderID        *int64
	SystemID        *int64
	PlanetID        *int64
	WarID           *int64
	FactionID       *int64
	CombatID        *int64
	DescriptionID   *int64

	// EndDateDays matches events closed on exactly this day. Edict renewals
	// are distinguished by their expiry date.
	EndDateDays *int

	// OnlyOpen restricts the match to events without an end date.
	OnlyOpen bool
}

func (q EventQuery) where() (string, []any) {
	clauses := []string{"event_type = ?"}
	args := []any{string(q.Kind)}
	for _, f := range []struct {
		column string
		id     *int64
	}{
		{"country_id", q.CountryID},
		{"target_country_id", q.TargetCountryID},
		{"leader_id", q.LeaderID},
		{"system_id", q.SystemID},
		{"planet_id", q.PlanetID},
		{"war_id", q.WarID},
		{"faction_id", q.FactionID},
		{"combat_id", q.CombatID},
		{"description_id", q.DescriptionID},
	} {
		if f.id != nil {
			clauses = append(clauses, f.column+" = ?")
			args = append(args, *f.id)
		}
	}
	if q.EndDateDays != nil {
		clauses = append(clauses, "end_date_days = ?")
		args = append(args, *q.EndDateDays)
	}
	if q.OnlyOpen {
		clauses = append(clauses, "end_date_days IS NULL")
	}
	return strings.Join(clauses, " AND "), args
}

const eventColumns = `
	id, snapshot_id, event_type, country_id, target_country_id, leader_id,
	system_id, planet_id, war_id, faction_id, combat_id, description_id,
	start_date_days, end_date_days, is_known_to_observer`

// FindLatestEvent returns the most recent event matching the query, or nil
// when none matches. Continuous facts are extended or closed through the
// event returned here.
func (t *SnapshotTx) FindLatestEvent(q EventQuery) (*model.HistoricalEvent, error) {
	where, args := q.where()
	row := t.tx.QueryRow(
		"SELECT "+eventColumns+" FROM historical_events WHERE "+where+
			" ORDER BY start_date_days DESC, id DESC LIMIT 1", args...)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// HasEvent reports whether any event matches the query. Momentary kinds use
// this to write each occurrence exactly once.
func (t *SnapshotTx) HasEvent(q EventQuery) (bool, error) {
	where, args := q.where()
	var exists bool
	err := t.tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM historical_events WHERE "+where+")", args...,
	).Scan(&exists)
	if err != nil {
		return false, storeErr(err, "failed to check event")
	}
	return exists, nil
}

// InsertEvent appends an event created by this snapshot. When Description is
// set without a DescriptionID the text is interned first.
func (t *SnapshotTx) InsertEvent(e *model.HistoricalEvent) error {
	if e.DescriptionID == nil && e.Description != "" {
		id, err := t.DescriptionID(e.Description)
		if err != nil {
			return err
		}
		e.DescriptionID = &id
	}
	e.SnapshotID = t.SnapshotID
	var endSnapshot any
	if e.EndDateDays != nil {
		endSnapshot = t.SnapshotID
	}
	res, err := t.tx.Exec(`
		INSERT INTO historical_events (snapshot_id, end_snapshot_id, event_type,
		        country_id, target_country_id, leader_id, system_id, planet_id,
		        war_id, faction_id, combat_id, description_id,
		        start_date_days, end_date_days, is_known_to_observer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SnapshotID, endSnapshot, string(e.Kind),
		nullableID(e.CountryID), nullableID(e.TargetCountryID), nullableID(e.LeaderID),
		nullableID(e.SystemID), nullableID(e.PlanetID), nullableID(e.WarID),
		nullableID(e.FactionID), nullableID(e.CombatID), nullableID(e.DescriptionID),
		e.StartDateDays, nullableInt(e.EndDateDays), e.KnownToObserver)
	if err != nil {
		return storeErr(err, "failed to insert event")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read event id")
	}
	e.ID = id
	return nil
}

// SetEventEnd closes an event interval. The closing snapshot is recorded so
// a superseding import can reopen the interval.
func (t *SnapshotTx) SetEventEnd(eventID int64, endDays int) error {
	_, err := t.tx.Exec(
		"UPDATE historical_events SET end_date_days = ?, end_snapshot_id = ? WHERE id = ?",
		endDays, t.SnapshotID, eventID)
	if err != nil {
		return storeErr(err, "failed to close event")
	}
	return nil
}

// MarkEventKnown widens an event's visibility to the observer. Visibility is
// never narrowed again.
func (t *SnapshotTx) MarkEventKnown(eventID int64) error {
	_, err := t.tx.Exec(
		"UPDATE historical_events SET is_known_to_observer = 1 WHERE id = ?", eventID)
	if err != nil {
		return storeErr(err, "failed to mark event known")
	}
	return nil
}

// EventFilter selects events on the read side.
type EventFilter struct {
	Kinds       []model.EventKind
	CountryID   *int64
	LeaderID    *int64
	SystemID    *int64
	PlanetID    *int64
	WarID       *int64
	MinDateDays *int
	MaxDateDays *int

	// OnlyKnown drops events the observer has not discovered.
	OnlyKnown bool
}

// Events returns events ordered by start date, with description text joined
// in.
func (s *Store) Events(f EventFilter) ([]model.HistoricalEvent, error) {
	clauses := []string{"1=1"}
	var args []any
	if len(f.Kinds) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Kinds)), ",")
		clauses = append(clauses, "e.event_type IN ("+placeholders+")")
		for _, k := range f.Kinds {
			args = append(args, string(k))
		}
	}
	for _, c := range []struct {
		column string
		id     *int64
	}{
		{"e.country_id", f.CountryID},
		{"e.leader_id", f.LeaderID},
		{"e.system_id", f.SystemID},
		{"e.planet_id", f.PlanetID},
		{"e.war_id", f.WarID},
	} {
		if c.id != nil {
			clauses = append(clauses, c.column+" = ?")
			args = append(args, *c.id)
		}
	}
	if f.MinDateDays != nil {
		clauses = append(clauses, "e.start_date_days >= ?")
		args = append(args, *f.MinDateDays)
	}
	if f.MaxDateDays != nil {
		clauses = append(clauses, "e.start_date_days <= ?")
		args = append(args, *f.MaxDateDays)
	}
	if f.OnlyKnown {
		clauses = append(clauses, "e.is_known_to_observer = 1")
	}

	rows, err := s.db.Query(`
		SELECT e.id, e.snapshot_id, e.event_type, e.country_id, e.target_country_id,
		       e.leader_id, e.system_id, e.planet_id, e.war_id, e.faction_id,
		       e.combat_id, e.description_id, e.start_date_days, e.end_date_days,
		       e.is_known_to_observer, COALESCE(d.text, '')
		FROM historical_events e
		LEFT JOIN shared_descriptions d ON d.id = e.description_id
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY e.start_date_days, e.id`, args...)
	if err != nil {
		return nil, storeErr(err, "failed to query events")
	}
	defer rows.Close()

	var out []model.HistoricalEvent
	for rows.Next() {
		var e model.HistoricalEvent
		var country, target, leader, system, planet, war, faction, combat, desc sql.NullInt64
		var end sql.NullInt64
		var kind string
		if err := rows.Scan(&e.ID, &e.SnapshotID, &kind, &country, &target, &leader,
			&system, &planet, &war, &faction, &combat, &desc, &e.StartDateDays,
			&end, &e.KnownToObserver, &e.Description); err != nil {
			return nil, storeErr(err, "failed to scan event")
		}
		e.Kind = model.EventKind(kind)
		e.CountryID = idPtr(country)
		e.TargetCountryID = idPtr(target)
		e.LeaderID = idPtr(leader)
		e.SystemID = idPtr(system)
		e.PlanetID = idPtr(planet)
		e.WarID = idPtr(war)
		e.FactionID = idPtr(faction)
		e.CombatID = idPtr(combat)
		e.DescriptionID = idPtr(desc)
		e.EndDateDays = intPtr(end)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(r rowScanner) (model.HistoricalEvent, error) {
	var e model.HistoricalEvent
	var country, target, leader, system, planet, war, faction, combat, desc sql.NullInt64
	var end sql.NullInt64
	var kind string
	err := r.Scan(&e.ID, &e.SnapshotID, &kind, &country, &target, &leader, &system,
		&planet, &war, &faction, &combat, &desc, &e.StartDateDays, &end, &e.KnownToObserver)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, storeErr(err, "failed to scan event")
	}
	e.Kind = model.EventKind(kind)
	e.CountryID = idPtr(country)
	e.TargetCountryID = idPtr(target)
	e.LeaderID = idPtr(leader)
	e.SystemID = idPtr(system)
	e.PlanetID = idPtr(planet)
	e.WarID = idPtr(war)
	e.FactionID = idPtr(faction)
	e.CombatID = idPtr(combat)
	e.DescriptionID = idPtr(desc)
	e.EndDateDays = intPtr(end)
	return e, nil
}
