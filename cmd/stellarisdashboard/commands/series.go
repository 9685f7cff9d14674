package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// SeriesCmd represents the series command
var SeriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List and inspect stored timeline series",
	Long: `List and inspect stored timeline series.

Each imported campaign is one series with its own database. Use list to see
what has been imported and show to look at one campaign's history.

Examples:
  stellarisdashboard series list
  stellarisdashboard series show unitednationsofearth_-15512622
  stellarisdashboard series show mycampaign --events 50`,
}

var seriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all imported series",
	RunE:  runSeriesList,
}

var seriesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show snapshots and recent events of one series",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeriesShow,
}

var seriesShowEvents int

func init() {
	seriesShowCmd.Flags().IntVar(&seriesShowEvents, "events", 20, "Number of recent events to show")

	SeriesCmd.AddCommand(seriesListCmd)
	SeriesCmd.AddCommand(seriesShowCmd)
}

func runSeriesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	manager := storage.NewManager(cfg.DBDir())
	defer manager.Close()

	names, err := manager.ListSeries()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		pterm.Info.Println("No series imported yet")
		return nil
	}

	rows := [][]string{{"Series", "Observer", "Snapshots", "Last date"}}
	for _, name := range names {
		store, err := manager.GetStore(name)
		if err != nil {
			return err
		}
		s, err := store.Series()
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			name,
			s.ObserverCountryName,
			strconv.Itoa(s.SnapshotCount),
			model.DaysToDate(s.LastSnapshotDays),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runSeriesShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	manager := storage.NewManager(cfg.DBDir())
	defer manager.Close()

	// Opening a store creates its database, so check for the file first to
	// avoid creating an empty series on a typo.
	if _, err := os.Stat(manager.DBPath(name)); err != nil {
		return fmt.Errorf("no stored series %q", name)
	}
	store, err := manager.GetStore(name)
	if err != nil {
		return err
	}

	s, err := store.Series()
	if err != nil {
		return err
	}
	snapshots, err := store.Snapshots()
	if err != nil {
		return err
	}
	countries, err := store.Countries()
	if err != nil {
		return err
	}

	pterm.DefaultHeader.WithFullWidth().Printf("Series %s", name)
	pterm.Println()
	if s.ObserverCountryName != "" {
		pterm.Info.Printf("Observer: %s\n", s.ObserverCountryName)
	}
	if len(snapshots) > 0 {
		first := snapshots[0].DateDays
		last := snapshots[len(snapshots)-1].DateDays
		pterm.Info.Printf("Snapshots: %d (%s to %s)\n",
			len(snapshots), model.DaysToDate(first), model.DaysToDate(last))
	} else {
		pterm.Info.Println("Snapshots: 0")
	}
	pterm.Info.Printf("Countries: %d\n", len(countries))

	events, err := store.Events(storage.EventFilter{})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	if seriesShowEvents > 0 && len(events) > seriesShowEvents {
		events = events[len(events)-seriesShowEvents:]
	}

	countryNames := make(map[int64]string, len(countries))
	for _, c := range countries {
		countryNames[c.ID] = c.Name
	}

	pterm.Println()
	rows := [][]string{{"Date", "Event", "Country", "Until"}}
	for _, e := range events {
		rows = append(rows, []string{
			model.DaysToDate(e.StartDateDays),
			eventLabel(e),
			eventCountry(e, countryNames),
			eventEnd(e),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func eventLabel(e model.HistoricalEvent) string {
	if e.Description != "" {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Description)
	}
	return string(e.Kind)
}

func eventCountry(e model.HistoricalEvent, names map[int64]string) string {
	if e.CountryID == nil {
		return ""
	}
	if name, ok := names[*e.CountryID]; ok {
		return name
	}
	return strconv.FormatInt(*e.CountryID, 10)
}

func eventEnd(e model.HistoricalEvent) string {
	if e.EndDateDays == nil {
		return ""
	}
	return model.DaysToDate(*e.EndDateDays)
}
