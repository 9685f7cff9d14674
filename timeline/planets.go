package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// planetsProcessor registers the planets sitting inside known systems. Name
// and class refreshes are deferred to the colony processor, which must see
// the stored class from before a planet was destroyed or terraformed.
type planetsProcessor struct{}

func (planetsProcessor) ID() string             { return "planets" }
func (planetsProcessor) Dependencies() []string { return []string{"systems"} }

func (planetsProcessor) Extract(run *Run) (any, error) {
	systems := run.Output("systems").(*systemIndex)

	out := make(map[int64]*model.Planet)
	known, err := run.Tx.AllPlanets()
	if err != nil {
		return nil, err
	}
	for _, p := range known {
		out[p.InGameID] = p
	}

	planetTable := planetsTable(run.Gamestate)
	galactic, _ := run.Gamestate.GetObject("galactic_object")
	for _, e := range sortedIDEntries(galactic) {
		sysObj, ok := e.Value.Object()
		if !ok {
			continue
		}
		for _, pv := range sysObj.GetSeq("planet") {
			planetID, ok := pv.Int()
			if !ok {
				continue
			}
			if _, ok := out[planetID]; ok {
				continue
			}
			dv, _ := planetTable.GetID(planetID)
			obj, ok := dv.Object()
			if !ok {
				continue
			}
			class, _ := obj.GetString("planet_class")
			planet := &model.Planet{
				InGameID:    planetID,
				Name:        objectName(obj, "name", ""),
				PlanetClass: class,
			}
			if system := systems.byID[e.Key.Num]; system != nil {
				planet.SystemID = &system.ID
			}
			if raw, ok := obj.GetString("colonize_date"); ok && raw != "" {
				if days, err := model.DateToDays(raw); err == nil {
					planet.ColonizedDays = &days
				}
			}
			if err := run.Tx.UpsertPlanet(planet); err != nil {
				return nil, err
			}
			out[planetID] = planet
		}
	}
	return out, nil
}

// planetsTable returns the nested planet dictionary of the gamestate.
func planetsTable(gamestate *save.Object) *save.Object {
	outer, _ := gamestate.GetObject("planets")
	inner, _ := outer.GetObject("planet")
	return inner
}
