package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
)

// systemIndex is the systems processor output: the full system registry plus
// the mapping from starbase ids to the systems holding them, which the
// ownership processor needs to resolve starbases back to territory.
type systemIndex struct {
	byID             map[int64]*model.System
	systemByStarbase map[int64]int64
}

// systemsProcessor keeps the system registry current. Systems never vanish
// from the source, so the registry only grows; a renamed system keeps its
// original name alongside the current one.
type systemsProcessor struct{}

func (systemsProcessor) ID() string             { return "systems" }
func (systemsProcessor) Dependencies() []string { return nil }

func (systemsProcessor) Extract(run *Run) (any, error) {
	idx := &systemIndex{
		byID:             make(map[int64]*model.System),
		systemByStarbase: make(map[int64]int64),
	}
	known, err := run.Tx.AllSystems()
	if err != nil {
		return nil, err
	}
	for _, s := range known {
		idx.byID[s.InGameID] = s
	}

	galactic, _ := run.Gamestate.GetObject("galactic_object")
	for _, e := range sortedIDEntries(galactic) {
		sysObj, ok := e.Value.Object()
		if !ok {
			continue
		}
		id := e.Key.Num
		for _, sb := range sysObj.GetSeq("starbases") {
			if sbID, ok := sb.Int(); ok {
				idx.systemByStarbase[sbID] = id
			}
		}

		if existing, ok := idx.byID[id]; ok {
			if name := objectName(sysObj, "name", existing.Name); name != existing.Name {
				existing.Name = name
				if err := run.Tx.UpsertSystem(existing); err != nil {
					return nil, err
				}
			}
			continue
		}

		coord, _ := sysObj.GetObject("coordinate")
		x, _ := coord.GetNumber("x")
		y, _ := coord.GetNumber("y")
		name := objectName(sysObj, "name", "")
		s := &model.System{
			InGameID:     id,
			Name:         name,
			OriginalName: name,
			X:            x,
			Y:            y,
		}
		if err := run.Tx.UpsertSystem(s); err != nil {
			return nil, err
		}
		idx.byID[id] = s
	}
	return idx, nil
}
