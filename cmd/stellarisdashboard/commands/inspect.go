package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/loader"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// InspectCmd represents the inspect command
var InspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Parse one save archive and print its value tree",
	Long: `Parse one save archive and print its value tree as YAML.

Intended for debugging the parser and exploring the gamestate format. The
output can be large; pipe it through a pager or filter.

Examples:
  stellarisdashboard inspect mysave.sav | less
  stellarisdashboard inspect --raw gamestate.txt   # Already-extracted text`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectRaw bool

func init() {
	InspectCmd.Flags().BoolVar(&inspectRaw, "raw", false,
		"Read the file as plain gamestate text instead of a zip archive")
}

func runInspect(cmd *cobra.Command, args []string) error {
	var text string
	if inspectRaw {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		text = string(data)
	} else {
		var err error
		text, err = loader.ReadGamestate(args[0])
		if err != nil {
			return err
		}
	}

	gamestate, err := save.Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse gamestate: %w", err)
	}

	data, err := yaml.Marshal(gamestate.Plain())
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate to YAML: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
