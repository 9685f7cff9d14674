package timeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/model"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/storage"
)

// A save scrubbed to exercise every event path at once: a leader who rules,
// leads physics research, and fronts a faction; an adopted tradition,
// ascension perk, and perpetual edict; an owned system with a colony
// underway; and a war with one battle.
const supersedeFirstSnapshot = `
date="2200.01.01"
player={ { name="Commodore" country=0 } }
galactic_object={
	10={ name="Sol" coordinate={ x=12.5 y=-4.25 } starbases={ 5 } planet={ 4 } }
	11={ name="Alpha Centauri" coordinate={ x=14.0 y=-2.0 } }
}
planets={
	planet={
		4={ name="Mars" planet_class="pc_desert" is_under_colonization=yes }
	}
}
species_db={ 1={ name="Human" class="HUMANOID" } }
country={
	0={
		name="United Nations of Earth"
		type="default"
		ruler=11
		owned_leaders={ 11 }
		owned_planets={ 4 }
		fleets_manager={ owned_fleets={ { fleet=200 } } }
		tech_status={
			leaders={ physics=11 }
			technology={ "tech_lasers_1" "tech_corvettes" }
			level={ 1 1 }
		}
		traditions={ "tr_discovery_adopt" }
		ascension_perks={ "ap_interstellar_dominion" }
		edicts={ { edict="education_campaign" date="2200.01.01" perpetual=yes } }
		ethos={
			ethic="ethic_egalitarian"
			ethic="ethic_xenophile"
		}
		government={
			type="gov_democratic_crusaders"
			authority="auth_democratic"
			civics={ "civic_beacon_of_liberty" }
		}
		relations_manager={ relation={ { country=1 communications=yes } } }
		budget={ current_month={ balance={ trade_routes={ energy=12.5 } } } }
	}
	1={
		name="Blorg Commonality"
		type="default"
		relations_manager={ relation={ { country=0 communications=yes } } }
	}
}
leaders={
	11={ name={ first_name="Annika" second_name="Larsson" } class="official" gender="female" species=1 age=42.5 level=2 date="2199.01.01" traits={ "subclass_official_governor" "trait_ruler_charismatic" } }
}
pop={
	900={ planet=4 species=1 job="farmer" category="worker" pop_faction=30 crime=0.05 happiness=0.62 power=1.0 }
	901={ planet=4 species=1 job="clerk" category="worker" crime=0.02 happiness=0.58 power=1.0 }
}
pop_factions={
	30={ country=0 type="progressive" leader=11 name="Progressive Alliance" support=0.4 faction_approval=0.6 }
}
ships={ 100={ fleet=200 } }
starbase_mgr={ starbases={ 5={ station=100 } } }
war={
	5={
		name="War in Heaven"
		start_date="2200.01.01"
		attacker_war_exhaustion=0.05
		defender_war_exhaustion=0.10
		attackers={ { country=0 call_type="primary" } }
		defenders={ { country=1 call_type="primary" } }
		attacker_war_goal={ type="wg_conquest" }
		defender_war_goal={ type="wg_surrender" }
		battles={
			{
				attackers={ 0 }
				defenders={ 1 }
				attacker_victory=yes
				system=10
				type="ships"
				attacker_war_exhaustion=0.05
				defender_war_exhaustion=0.10
				date="2200.01.01"
			}
		}
	}
}
`

// One month on: the colony has landed, and the war has given way to a truce.
const supersedeSecondSnapshot = `
date="2200.02.01"
player={ { name="Commodore" country=0 } }
galactic_object={
	10={ name="Sol" coordinate={ x=12.5 y=-4.25 } starbases={ 5 } planet={ 4 } }
	11={ name="Alpha Centauri" coordinate={ x=14.0 y=-2.0 } }
}
planets={
	planet={
		4={ name="Mars" planet_class="pc_desert" colonize_date="2200.01.20" }
	}
}
species_db={ 1={ name="Human" class="HUMANOID" } }
country={
	0={
		name="United Nations of Earth"
		type="default"
		ruler=11
		owned_leaders={ 11 }
		owned_planets={ 4 }
		fleets_manager={ owned_fleets={ { fleet=200 } } }
		tech_status={
			leaders={ physics=11 }
			technology={ "tech_lasers_1" "tech_corvettes" }
			level={ 1 1 }
		}
		traditions={ "tr_discovery_adopt" }
		ascension_perks={ "ap_interstellar_dominion" }
		edicts={ { edict="education_campaign" date="2200.01.01" perpetual=yes } }
		ethos={
			ethic="ethic_egalitarian"
			ethic="ethic_xenophile"
		}
		government={
			type="gov_democratic_crusaders"
			authority="auth_democratic"
			civics={ "civic_beacon_of_liberty" }
		}
		relations_manager={ relation={ { country=1 communications=yes } } }
		budget={ current_month={ balance={ trade_routes={ energy=12.5 } } } }
	}
	1={
		name="Blorg Commonality"
		type="default"
		relations_manager={ relation={ { country=0 communications=yes truce=77 } } }
	}
}
leaders={
	11={ name={ first_name="Annika" second_name="Larsson" } class="official" gender="female" species=1 age=42.5 level=2 date="2199.01.01" traits={ "subclass_official_governor" "trait_ruler_charismatic" } }
}
pop={
	900={ planet=4 species=1 job="farmer" category="worker" pop_faction=30 crime=0.05 happiness=0.62 power=1.0 }
	901={ planet=4 species=1 job="clerk" category="worker" crime=0.02 happiness=0.58 power=1.0 }
}
pop_factions={
	30={ country=0 type="progressive" leader=11 name="Progressive Alliance" support=0.4 faction_approval=0.6 }
}
ships={ 100={ fleet=200 } }
starbase_mgr={ starbases={ 5={ station=100 } } }
truce={
	77={ truce_type="war" start_date="2200.01.25" }
}
`

func eventCensus(t *testing.T, s *storage.Store) map[string]int {
	t.Helper()
	events, err := s.Events(storage.EventFilter{})
	require.NoError(t, err)
	census := make(map[string]int)
	for _, ev := range events {
		end := "open"
		if ev.EndDateDays != nil {
			end = fmt.Sprint(*ev.EndDateDays)
		}
		key := fmt.Sprintf("%s|%d|%s|%t", ev.Kind, ev.StartDateDays, end, ev.KnownToObserver)
		census[key]++
	}
	return census
}

// Re-importing a date that was already processed supersedes the stored
// snapshot. The cascade wipes everything tied to it, so each processor has
// to rebuild the history it owns without duplicating what later snapshots
// still anchor.
func TestSupersededReimportKeepsHistory(t *testing.T) {
	e, s := newTestPipeline(t, config.ImportConfig{})

	mustProcess(t, e, supersedeFirstSnapshot)
	mustProcess(t, e, supersedeSecondSnapshot)

	before := eventCensus(t, s)
	assert.Len(t, before, 13)
	total := 0
	for _, n := range before {
		total += n
	}
	assert.Equal(t, 15, total)

	mustProcess(t, e, supersedeFirstSnapshot)

	after := eventCensus(t, s)
	assert.Equal(t, before, after)

	snapshots, err := s.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 0, snapshots[0].DateDays)
	assert.Equal(t, 30, snapshots[1].DateDays)

	series, err := s.Series()
	require.NoError(t, err)
	assert.Equal(t, 2, series.SnapshotCount)

	colonizations := eventsOfKind(t, s, model.EventColonization)
	require.Len(t, colonizations, 1)
	assert.Equal(t, 0, colonizations[0].StartDateDays)
	require.NotNil(t, colonizations[0].EndDateDays)
	assert.Equal(t, 19, *colonizations[0].EndDateDays)

	expanded := eventsOfKind(t, s, model.EventExpandedToSystem)
	require.Len(t, expanded, 1)
	history, err := s.OwnershipHistory(*expanded[0].SystemID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].EndDateDays)
}
