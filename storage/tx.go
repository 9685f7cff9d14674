package storage

import (
	"database/sql"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// SnapshotTx is the unit of persistence for one snapshot: every entity
// update, statistic and event derived from a snapshot is written inside one
// transaction, so a failed import leaves no trace of the snapshot.
//
// The transaction also carries the per-snapshot identity cache: entities are
// looked up by their in-game id once and then served from memory, which keeps
// processors free of repeated point queries.
type SnapshotTx struct {
	SnapshotID int64
	DateDays   int
	// Superseded is set when this snapshot replaced a previously imported
	// snapshot with the same date.
	Superseded bool

	tx    *sql.Tx
	store *Store
	done  bool

	countries    map[int64]*model.Country
	systems      map[int64]*model.System
	planets      map[int64]*model.Planet
	leaders      map[int64]*model.Leader
	species      map[int64]*model.Species
	factions     map[int64]*model.Faction
	wars         map[int64]*model.War
	descriptions map[string]int64
}

// BeginSnapshot opens the snapshot transaction for the given day index.
// If a snapshot with the same date already exists it is superseded: events and
// intervals it closed are reopened, technology completions it recorded are
// reverted, and the snapshot row with all its dependent records (created
// events, intervals and country statistics) is deleted before the new row is
// inserted. Snapshot writes per series are serialized; BeginSnapshot blocks
// while another snapshot transaction is in flight.
func (s *Store) BeginSnapshot(dateDays int) (*SnapshotTx, error) {
	s.writeMu.Lock()

	tx, err := s.db.Begin()
	if err != nil {
		s.writeMu.Unlock()
		return nil, storeErr(err, "failed to begin snapshot transaction")
	}

	t := &SnapshotTx{
		DateDays:     dateDays,
		tx:           tx,
		store:        s,
		countries:    make(map[int64]*model.Country),
		systems:      make(map[int64]*model.System),
		planets:      make(map[int64]*model.Planet),
		leaders:      make(map[int64]*model.Leader),
		species:      make(map[int64]*model.Species),
		factions:     make(map[int64]*model.Faction),
		wars:         make(map[int64]*model.War),
		descriptions: make(map[string]int64),
	}

	var oldID int64
	err = tx.QueryRow(
		"SELECT id FROM snapshots WHERE series_id = ? AND date_days = ?",
		s.seriesID, dateDays,
	).Scan(&oldID)
	switch {
	case err == nil:
		// Same date imported before: reopen everything the old snapshot
		// closed, then drop the old snapshot together with everything it
		// created.
		reopen := []string{
			"UPDATE historical_events SET end_date_days = NULL, end_snapshot_id = NULL WHERE end_snapshot_id = ?",
			"UPDATE system_ownership SET end_date_days = NULL, end_snapshot_id = NULL WHERE end_snapshot_id = ?",
			"UPDATE governments SET end_date_days = NULL, end_snapshot_id = NULL WHERE end_snapshot_id = ?",
			"UPDATE technologies SET is_completed = 0, completed_snapshot_id = NULL WHERE completed_snapshot_id = ?",
		}
		for _, q := range reopen {
			if _, err := tx.Exec(q, oldID); err != nil {
				t.finish()
				return nil, storeErr(err, "failed to reopen records of superseded snapshot")
			}
		}
		if _, err := tx.Exec("DELETE FROM snapshots WHERE id = ?", oldID); err != nil {
			t.finish()
			return nil, storeErr(err, "failed to delete superseded snapshot")
		}
		t.Superseded = true
	case errors.Is(err, sql.ErrNoRows):
		// First import for this date.
	default:
		t.finish()
		return nil, storeErr(err, "failed to check for existing snapshot")
	}

	res, err := tx.Exec(
		"INSERT INTO snapshots (series_id, date_days) VALUES (?, ?)",
		s.seriesID, dateDays,
	)
	if err != nil {
		t.finish()
		return nil, storeErr(err, "failed to insert snapshot")
	}
	t.SnapshotID, err = res.LastInsertId()
	if err != nil {
		t.finish()
		return nil, storeErr(err, "failed to read snapshot id")
	}
	return t, nil
}

// Commit makes the snapshot durable.
func (t *SnapshotTx) Commit() error {
	if t.done {
		return errors.New("snapshot transaction already finished")
	}
	t.done = true
	defer t.store.writeMu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return storeErr(err, "failed to commit snapshot")
	}
	return nil
}

// Rollback discards the snapshot. Calling Rollback after Commit is a no-op,
// so it is safe to defer.
func (t *SnapshotTx) Rollback() {
	if t.done {
		return
	}
	t.finish()
}

func (t *SnapshotTx) finish() {
	t.done = true
	t.tx.Rollback()
	t.store.writeMu.Unlock()
}

// DescriptionID returns the id of the shared description row for text,
// inserting it on first use. Repeated event payloads (technology names, war
// goals, trait names) share one row.
func (t *SnapshotTx) DescriptionID(text string) (int64, error) {
	if id, ok := t.descriptions[text]; ok {
		return id, nil
	}
	var id int64
	err := t.tx.QueryRow("SELECT id FROM shared_descriptions WHERE text = ?", text).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		res, insErr := t.tx.Exec("INSERT INTO shared_descriptions (text) VALUES (?)", text)
		if insErr != nil {
			return 0, storeErr(insErr, "failed to insert description")
		}
		id, insErr = res.LastInsertId()
		if insErr != nil {
			return 0, storeErr(insErr, "failed to read description id")
		}
	} else if err != nil {
		return 0, storeErr(err, "failed to look up description")
	}
	t.descriptions[text] = id
	return id, nil
}
