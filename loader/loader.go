// Package loader reads save archives from disk and turns them into parsed
// snapshots ready for timeline extraction. It covers the whole path from a
// file appearing in the save directory to an ordered stream of gamestates:
// archive extraction with retries, version gating, a parse worker pool, and
// a directory monitor.
package loader

import (
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/zip"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// Snapshot is one parsed save archive.
type Snapshot struct {
	// SeriesName identifies the campaign, derived from the archive's parent
	// directory name. The game keeps one directory per campaign.
	SeriesName string
	Path       string
	Date       string
	DateDays   int
	Version    string
	Gamestate  *save.Object
}

const (
	gamestateMember = "gamestate"
	readAttempts    = 3
	readRetryDelay  = 500 * time.Millisecond
)

// LoadFile reads and parses one save archive.
func LoadFile(path string) (*Snapshot, error) {
	text, err := ReadGamestate(path)
	if err != nil {
		return nil, err
	}
	gamestate, err := save.Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	dateStr, ok := gamestate.GetString("date")
	if !ok {
		return nil, errors.Newf("save %s has no date", path)
	}
	days, err := model.DateToDays(dateStr)
	if err != nil {
		return nil, errors.Wrapf(err, "save %s", path)
	}
	version, _ := gamestate.GetString("version")
	return &Snapshot{
		SeriesName: SeriesName(path),
		Path:       path,
		Date:       dateStr,
		DateDays:   days,
		Version:    version,
		Gamestate:  gamestate,
	}, nil
}

// SeriesName derives the campaign name from a save file path. Saves live in
// one directory per campaign, so the parent directory names the series.
func SeriesName(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// ReadGamestate extracts the gamestate member from a save archive. The game
// may still be writing the file when the watcher reports it, so a broken
// archive is retried a few times before giving up.
func ReadGamestate(path string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		if attempt > 1 {
			logger.Infow("retrying save archive read",
				"path", path,
				"attempt", attempt,
				"error", lastErr)
			time.Sleep(readRetryDelay)
		}
		text, err := readGamestateMember(path)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", errors.Wrapf(lastErr, "reading save archive %s", path)
}

func readGamestateMember(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()
	for _, f := range archive.File {
		if f.Name != gamestateMember {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", errors.Newf("save archive has no %s member", gamestateMember)
}

// The save format the importer understands. Saves from releases below the
// floor are rejected; saves above the tested ceiling import with a warning,
// since format changes have historically been additive.
const oldestSupportedMajor = 3

var testedVersions = mustConstraint("< 5.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// CheckVersion validates the game release that wrote a save. Only versions
// with a major release below the supported floor are rejected, with
// errors.ErrUnsupportedVersion; an unparseable version string is let through
// with a warning.
func CheckVersion(raw string) error {
	ver, err := parseGameVersion(raw)
	if err != nil {
		logger.Warnw("could not parse game version, skipping version check",
			"version", raw)
		return nil
	}
	if ver.Major() < oldestSupportedMajor {
		return errors.Wrapf(errors.ErrUnsupportedVersion, "game version %q", raw)
	}
	if !testedVersions.Check(ver) {
		logger.Warnw("game version is newer than the last tested release",
			"version", raw,
			"tested", testedVersions.String())
	}
	return nil
}

// parseGameVersion extracts the numeric version from a release string like
// "Pyxis v4.0.2": everything before the first digit is the release name.
func parseGameVersion(raw string) (*semver.Version, error) {
	start := strings.IndexFunc(raw, unicode.IsDigit)
	if start < 0 {
		return nil, errors.Newf("no version number in %q", raw)
	}
	return semver.NewVersion(strings.TrimSpace(raw[start:]))
}
