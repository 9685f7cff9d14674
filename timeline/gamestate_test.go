package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

func TestYesAndHasKey(t *testing.T) {
	o := parseGamestate(t, `a=yes b=no c={ 1 2 }`)

	assert.True(t, yes(o, "a"))
	assert.False(t, yes(o, "b"))
	assert.False(t, yes(o, "missing"))
	assert.True(t, hasKey(o, "c"))
	assert.False(t, hasKey(o, "missing"))
}

func TestIntSeqSingleAndList(t *testing.T) {
	o := parseGamestate(t, `single=5 list={ 1 2 3 } mixed={ 1 "x" 2 }`)

	assert.Equal(t, []int64{5}, intSeq(o, "single"))
	assert.Equal(t, []int64{1, 2, 3}, intSeq(o, "list"))
	assert.Equal(t, []int64{1, 2}, intSeq(o, "mixed"))
	assert.Nil(t, intSeq(o, "missing"))
}

func TestSortedIDEntriesSkipsMarkers(t *testing.T) {
	o := parseGamestate(t, `coll={ 9={ } 2={ } none={ } 5={ } }`)
	coll, ok := o.GetObject("coll")
	require.True(t, ok)

	entries := sortedIDEntries(coll)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(2), entries[0].Key.Num)
	assert.Equal(t, int64(5), entries[1].Key.Num)
	assert.Equal(t, int64(9), entries[2].Key.Num)

	assert.Empty(t, sortedIDEntries(nil))
}

func TestStringSetDedupesAndSorts(t *testing.T) {
	o := parseGamestate(t, `civics={ "civic_b" "civic_a" "civic_b" }`)

	assert.Equal(t, []string{"civic_a", "civic_b"}, stringSet(o.GetSeq("civics")))
	assert.Empty(t, stringSet(nil))
}

func TestCountrySetKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "1,2,3", countrySetKey([]int64{3, 1, 2}))
	assert.Equal(t, countrySetKey([]int64{3, 1, 2}), countrySetKey([]int64{2, 3, 1}))
	assert.Equal(t, "", countrySetKey(nil))
}

func TestLeaderTraitsSplitsSubclass(t *testing.T) {
	o := parseGamestate(t, `traits={ "trait_z" "subclass_official_governor" "trait_a" }`)

	subclass, traits := leaderTraits(o)
	assert.Equal(t, "subclass_official_governor", subclass)
	assert.Equal(t, []string{"trait_a", "trait_z"}, traits)

	subclass, traits = leaderTraits(parseGamestate(t, `level=1`))
	assert.Empty(t, subclass)
	assert.Empty(t, traits)
}

func TestTraitDelta(t *testing.T) {
	gained, lost := traitDelta(
		[]string{"trait_adaptable", "trait_slow_learner"},
		[]string{"trait_adaptable", "trait_eager"},
	)
	assert.Equal(t, []string{"trait_eager"}, gained)
	assert.Equal(t, []string{"trait_slow_learner"}, lost)

	// An in-place upgrade gains the new tier without losing the old one.
	gained, lost = traitDelta(
		[]string{"trait_ruler_charismatic"},
		[]string{"trait_ruler_charismatic_2"},
	)
	assert.Equal(t, []string{"trait_ruler_charismatic_2"}, gained)
	assert.Empty(t, lost)

	gained, lost = traitDelta(
		[]string{"trait_ruler_charismatic_2"},
		[]string{"trait_ruler_charismatic"},
	)
	assert.Equal(t, []string{"trait_ruler_charismatic"}, gained)
	assert.Empty(t, lost)

	gained, lost = traitDelta([]string{"trait_adaptable"}, []string{"trait_adaptable"})
	assert.Empty(t, gained)
	assert.Empty(t, lost)
}

func TestLeaderName(t *testing.T) {
	o := parseGamestate(t, `name={ first_name="Erkhart" second_name="Dossene" }`)
	assert.Equal(t, "Erkhart Dossene", leaderName(o))

	o = parseGamestate(t, `name={ full_names="Vrrbrrbl" }`)
	assert.Equal(t, "Vrrbrrbl", leaderName(o))

	o = parseGamestate(t, `name={ first_name="Solo" }`)
	assert.Equal(t, "Solo", leaderName(o))

	assert.Equal(t, "Unknown Leader", leaderName(parseGamestate(t, `level=1`)))
}

func TestFlattenName(t *testing.T) {
	o := parseGamestate(t, `plain="Earth" structured={ key="NAME_Sol" }`)

	v, ok := o.Get("plain")
	require.True(t, ok)
	assert.Equal(t, "Earth", flattenName(v))

	v, ok = o.Get("structured")
	require.True(t, ok)
	first := flattenName(v)
	assert.NotEmpty(t, first)

	again, ok := parseGamestate(t, `structured={ key="NAME_Sol" }`).Get("structured")
	require.True(t, ok)
	assert.Equal(t, first, flattenName(again))

	assert.Equal(t, "", flattenName(save.Value{}))
}

func TestObjectNameFallback(t *testing.T) {
	o := parseGamestate(t, `named={ name="Sol" } anonymous={ size=3 }`)

	named, _ := o.GetObject("named")
	assert.Equal(t, "Sol", objectName(named, "name", "fallback"))

	anonymous, _ := o.GetObject("anonymous")
	assert.Equal(t, "fallback", objectName(anonymous, "name", "fallback"))
}

func TestBirthdayJitterStableAndBounded(t *testing.T) {
	for id := int64(0); id < 200; id++ {
		j := birthdayJitter("unitednationsofearth_-15512622", id)
		assert.Equal(t, j, birthdayJitter("unitednationsofearth_-15512622", id))
		assert.GreaterOrEqual(t, j, -15)
		assert.LessOrEqual(t, j, 15)
	}
}

func TestSyntheticFactionIDsNeverCollide(t *testing.T) {
	seen := make(map[int64]bool)
	for country := int64(0); country < 50; country++ {
		for _, kind := range []int{noFactionKind, slaveFactionKind, purgeFactionKind, robotFactionKind} {
			id := syntheticFactionID(country, kind)
			assert.Negative(t, id)
			assert.False(t, seen[id], "duplicate synthetic faction id %d", id)
			seen[id] = true
		}
	}
}

func TestPlanetOwners(t *testing.T) {
	o := parseGamestate(t, `
country={
	0={ owned_planets={ 4 5 } }
	1={ owned_planets={ 6 } }
	2={ name="no planets" }
}
`)

	owners := planetOwners(o)
	assert.Equal(t, map[int64]int64{4: 0, 5: 0, 6: 1}, owners)
}

func TestPopGroupAverages(t *testing.T) {
	groups := make(map[string]*popGroupStats)
	popGroup(groups, "farmer").observe(0.1, 0.5, 1.0)
	popGroup(groups, "farmer").observe(0.3, 0.7, 3.0)
	popGroup(groups, "clerk").observe(0.2, 0.6, 2.0)

	require.Len(t, groups, 2)
	farmer := groups["farmer"]
	assert.Equal(t, 2, farmer.count)
	assert.InDelta(t, 0.2, farmer.avgCrime(), 1e-9)
	assert.InDelta(t, 0.6, farmer.avgHappiness(), 1e-9)
	assert.InDelta(t, 2.0, farmer.avgPower(), 1e-9)
	assert.Equal(t, 1, groups["clerk"].count)
}
