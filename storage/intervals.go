package storage

import (
	"database/sql"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// CurrentSystemOwnership returns the open ownership interval for a system,
// or nil when nobody holds it. At most one interval per system is open.
func (t *SnapshotTx) CurrentSystemOwnership(systemID int64) (*model.SystemOwnership, error) {
	var o model.SystemOwnership
	err := t.tx.QueryRow(`
		SELECT id, system_id, country_id, start_date_days
		FROM system_ownership
		WHERE system_id = ? AND end_date_days IS NULL
		ORDER BY start_date_days DESC, id DESC LIMIT 1`, systemID,
	).Scan(&o.ID, &o.SystemID, &o.CountryID, &o.StartDateDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan system ownership")
	}
	return &o, nil
}

// AddSystemOwnership opens a new ownership interval. The interval is tied to
// the current snapshot so re-importing the same date discards it.
func (t *SnapshotTx) AddSystemOwnership(o *model.SystemOwnership) error {
	res, err := t.tx.Exec(`
		INSERT INTO system_ownership (system_id, country_id, snapshot_id, start_date_days, end_date_days)
		VALUES (?, ?, ?, ?, ?)`,
		o.SystemID, o.CountryID, t.SnapshotID, o.StartDateDays, nullableInt(o.EndDateDays))
	if err != nil {
		return storeErr(err, "failed to insert system ownership")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read system ownership id")
	}
	o.ID = id
	return nil
}

// CloseSystemOwnership sets the end of an ownership interval and remembers
// which snapshot closed it, so superseding that snapshot reopens the interval.
func (t *SnapshotTx) CloseSystemOwnership(ownershipID int64, endDays int) error {
	_, err := t.tx.Exec(
		"UPDATE system_ownership SET end_date_days = ?, end_snapshot_id = ? WHERE id = ?",
		endDays, t.SnapshotID, ownershipID)
	if err != nil {
		return storeErr(err, "failed to close system ownership")
	}
	return nil
}

// OwnershipHistory returns all ownership intervals of a system ordered by
// start date.
func (s *Store) OwnershipHistory(systemID int64) ([]model.SystemOwnership, error) {
	rows, err := s.db.Query(`
		SELECT id, system_id, country_id, start_date_days, end_date_days
		FROM system_ownership WHERE system_id = ?
		ORDER BY start_date_days, id`, systemID)
	if err != nil {
		return nil, storeErr(err, "failed to query ownership history")
	}
	defer rows.Close()

	var out []model.SystemOwnership
	for rows.Next() {
		var o model.SystemOwnership
		var end sql.NullInt64
		if err := rows.Scan(&o.ID, &o.SystemID, &o.CountryID, &o.StartDateDays, &end); err != nil {
			return nil, storeErr(err, "failed to scan system ownership")
		}
		o.EndDateDays = intPtr(end)
		out = append(out, o)
	}
	return out, rows.Err()
}

// CurrentGovernment returns the open government interval of a country, or
// nil when none has been recorded yet.
func (t *SnapshotTx) CurrentGovernment(countryID int64) (*model.Government, error) {
	var g model.Government
	var ethics, civics string
	err := t.tx.QueryRow(`
		SELECT id, country_id, start_date_days, gov_name, gov_type, authority,
		       personality, ethics, civics
		FROM governments
		WHERE country_id = ? AND end_date_days IS NULL
		ORDER BY start_date_days DESC, id DESC LIMIT 1`, countryID,
	).Scan(&g.ID, &g.CountryID, &g.StartDateDays, &g.Name, &g.Type,
		&g.Authority, &g.Personality, &ethics, &civics)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan government")
	}
	g.Ethics = splitList(ethics)
	g.Civics = splitList(civics)
	return &g, nil
}

// AddGovernment opens a new government interval tied to the current snapshot.
func (t *SnapshotTx) AddGovernment(g *model.Government) error {
	res, err := t.tx.Exec(`
		INSERT INTO governments (country_id, snapshot_id, start_date_days, end_date_days,
		                         gov_name, gov_type, authority, personality, ethics, civics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.CountryID, t.SnapshotID, g.StartDateDays, nullableInt(g.EndDateDays), g.Name,
		g.Type, g.Authority, g.Personality, joinList(g.Ethics), joinList(g.Civics))
	if err != nil {
		return storeErr(err, "failed to insert government")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read government id")
	}
	g.ID = id
	return nil
}

// CloseGovernment sets the end of a government interval and remembers the
// closing snapshot.
func (t *SnapshotTx) CloseGovernment(governmentID int64, endDays int) error {
	_, err := t.tx.Exec(
		"UPDATE governments SET end_date_days = ?, end_snapshot_id = ? WHERE id = ?",
		endDays, t.SnapshotID, governmentID)
	if err != nil {
		return storeErr(err, "failed to close government")
	}
	return nil
}

// GovernmentHistory returns all government intervals of a country ordered by
// start date.
func (s *Store) GovernmentHistory(countryID int64) ([]model.Government, error) {
	rows, err := s.db.Query(`
		SELECT id, country_id, start_date_days, end_date_days, gov_name, gov_type,
		       authority, personality, ethics, civics
		FROM governments WHERE country_id = ?
		ORDER BY start_date_days, id`, countryID)
	if err != nil {
		return nil, storeErr(err, "failed to query government history")
	}
	defer rows.Close()

	var out []model.Government
	for rows.Next() {
		var g model.Government
		var end sql.NullInt64
		var ethics, civics string
		if err := rows.Scan(&g.ID, &g.CountryID, &g.StartDateDays, &end, &g.Name,
			&g.Type, &g.Authority, &g.Personality, &ethics, &civics); err != nil {
			return nil, storeErr(err, "failed to scan government")
		}
		g.EndDateDays = intPtr(end)
		g.Ethics = splitList(ethics)
		g.Civics = splitList(civics)
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetTechnology returns a country's research record for a technology name,
// or nil when the technology has never been seen for that country.
func (t *SnapshotTx) GetTechnology(countryID int64, name string) (*model.Technology, error) {
	var tech model.Technology
	err := t.tx.QueryRow(`
		SELECT id, country_id, name, is_completed
		FROM technologies WHERE country_id = ? AND name = ?`, countryID, name,
	).Scan(&tech.ID, &tech.CountryID, &tech.Name, &tech.IsCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to scan technology")
	}
	return &tech, nil
}

// AddTechnology records a technology the first time it shows up for a
// country. The (country, name) pair is unique and never re-created.
func (t *SnapshotTx) AddTechnology(tech *model.Technology) error {
	res, err := t.tx.Exec(`
		INSERT INTO technologies (country_id, name, snapshot_id, is_completed)
		VALUES (?, ?, ?, ?)`, tech.CountryID, tech.Name, t.SnapshotID, tech.IsCompleted)
	if err != nil {
		return storeErr(err, "failed to insert technology")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err, "failed to read technology id")
	}
	tech.ID = id
	return nil
}

// CompleteTechnology flips a research record to completed and remembers the
// completing snapshot.
func (t *SnapshotTx) CompleteTechnology(technologyID int64) error {
	_, err := t.tx.Exec(
		"UPDATE technologies SET is_completed = 1, completed_snapshot_id = ? WHERE id = ?",
		t.SnapshotID, technologyID)
	if err != nil {
		return storeErr(err, "failed to complete technology")
	}
	return nil
}
