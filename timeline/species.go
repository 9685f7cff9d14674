package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// speciesOutput indexes the species registry and marks the machine species,
// which the faction fallback and pop statistics treat specially.
type speciesOutput struct {
	byID  map[int64]*model.Species
	robot map[int64]bool
}

// speciesProcessor keeps the species registry current. Species keep their
// attributes for the whole game, so existing entries are reused unchanged.
type speciesProcessor struct{}

func (speciesProcessor) ID() string             { return "species" }
func (speciesProcessor) Dependencies() []string { return nil }

func (speciesProcessor) Extract(run *Run) (any, error) {
	out := &speciesOutput{
		byID:  make(map[int64]*model.Species),
		robot: make(map[int64]bool),
	}
	table, _ := run.Gamestate.GetObject("species_db")
	for _, e := range sortedIDEntries(table) {
		obj, ok := e.Value.Object()
		if !ok {
			continue
		}
		id := e.Key.Num
		class, hasClass := obj.GetString("class")

		sp, err := run.Tx.GetSpecies(id)
		if err != nil {
			return nil, err
		}
		if sp == nil {
			archetype := class
			if !hasClass {
				archetype = "Unknown Class"
			}
			sp = &model.Species{
				InGameID:  id,
				Name:      objectName(obj, "name", "Unnamed Species"),
				Archetype: archetype,
			}
			if err := run.Tx.UpsertSpecies(sp); err != nil {
				return nil, err
			}
		}
		out.byID[id] = sp
		if class == "ROBOT" {
			out.robot[id] = true
		}
	}
	return out, nil
}
