package storage

import (
	"database/sql"
	"sync"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// ErrStore marks persistence failures. A store error aborts the in-flight
// snapshot and rolls its transaction back; committed history is never
// affected.
var ErrStore = errors.New("store error")

func storeErr(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrStore)
}

// Store is the persistence handle for one series. Snapshot writes are
// serialized by an internal lock; reads can run concurrently thanks to WAL
// mode.
type Store struct {
	db       *sql.DB
	seriesID int64
	name     string

	// writeMu serializes snapshot transactions for this series.
	writeMu sync.Mutex
}

// newStore binds a Store to the series row, creating it when the database is
// fresh.
func newStore(conn *sql.DB, seriesName string) (*Store, error) {
	s := &Store{db: conn, name: seriesName}

	err := conn.QueryRow("SELECT id FROM series WHERE name = ?", seriesName).Scan(&s.seriesID)
	if errors.Is(err, sql.ErrNoRows) {
		res, insErr := conn.Exec("INSERT INTO series (name) VALUES (?)", seriesName)
		if insErr != nil {
			return nil, storeErr(insErr, "failed to create series")
		}
		s.seriesID, insErr = res.LastInsertId()
		if insErr != nil {
			return nil, storeErr(insErr, "failed to read series id")
		}
		return s, nil
	}
	if err != nil {
		return nil, storeErr(err, "failed to look up series")
	}
	return s, nil
}

func (s *Store) Name() string { return s.name }

func (s *Store) Close() error { return s.db.Close() }

// Series returns the series row with its snapshot statistics.
func (s *Store) Series() (model.Series, error) {
	info := model.Series{ID: s.seriesID, Name: s.name}
	err := s.db.QueryRow(
		"SELECT observer_country_name FROM series WHERE id = ?", s.seriesID,
	).Scan(&info.ObserverCountryName)
	if err != nil {
		return info, storeErr(err, "failed to read series")
	}
	var last sql.NullInt64
	err = s.db.QueryRow(
		"SELECT COUNT(*), MAX(date_days) FROM snapshots WHERE series_id = ?", s.seriesID,
	).Scan(&info.SnapshotCount, &last)
	if err != nil {
		return info, storeErr(err, "failed to read snapshot stats")
	}
	if last.Valid {
		info.LastSnapshotDays = int(last.Int64)
	}
	return info, nil
}

// SetObserverCountryName records the name of the empire the dashboard's
// perspective belongs to.
func (s *Store) SetObserverCountryName(name string) error {
	_, err := s.db.Exec("UPDATE series SET observer_country_name = ? WHERE id = ?", name, s.seriesID)
	if err != nil {
		return storeErr(err, "failed to set observer country")
	}
	return nil
}

// SnapshotExists reports whether a snapshot for the given day index is
// already stored.
func (s *Store) SnapshotExists(dateDays int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM snapshots WHERE series_id = ? AND date_days = ?)",
		s.seriesID, dateDays,
	).Scan(&exists)
	if err != nil {
		return false, storeErr(err, "failed to check snapshot")
	}
	return exists, nil
}

// Snapshots returns all snapshots of the series ordered by date.
func (s *Store) Snapshots() ([]model.Snapshot, error) {
	rows, err := s.db.Query(
		"SELECT id, series_id, date_days FROM snapshots WHERE series_id = ? ORDER BY date_days",
		s.seriesID,
	)
	if err != nil {
		return nil, storeErr(err, "failed to query snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		if err := rows.Scan(&snap.ID, &snap.SeriesID, &snap.DateDays); err != nil {
			return nil, storeErr(err, "failed to scan snapshot")
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Countries returns all countries of the series ordered by in-game id.
func (s *Store) Countries() ([]model.Country, error) {
	rows, err := s.db.Query(`
		SELECT id, in_game_id, name, country_type, is_observer, is_other_player,
		       first_contact_with_observer_days, capital_planet_id, ruler_leader_id
		FROM countries WHERE series_id = ? ORDER BY in_game_id`, s.seriesID)
	if err != nil {
		return nil, storeErr(err, "failed to query countries")
	}
	defer rows.Close()

	var out []model.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCountry(r rowScanner) (model.Country, error) {
	var c model.Country
	var firstContact, capital, ruler sql.NullInt64
	err := r.Scan(&c.ID, &c.InGameID, &c.Name, &c.CountryType, &c.IsObserver,
		&c.IsOtherPlayer, &firstContact, &capital, &ruler)
	if err != nil {
		return c, storeErr(err, "failed to scan country")
	}
	if firstContact.Valid {
		v := int(firstContact.Int64)
		c.FirstContactWithObserverDays = &v
	}
	if capital.Valid {
		c.CapitalPlanetID = &capital.Int64
	}
	if ruler.Valid {
		c.RulerLeaderID = &ruler.Int64
	}
	return c, nil
}

// nullableInt converts *int to a driver-friendly value.
func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// nullableID converts *int64 to a driver-friendly value.
func nullableID(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
