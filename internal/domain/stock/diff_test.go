package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffDetectsIncrease(t *testing.T) {
	_, prev := Diff(Snapshot{}, AllData{Gear: []Item{{Name: "Trowel", Quantity: 2}}})

	changes, _ := Diff(prev, AllData{Gear: []Item{{Name: "Trowel", Quantity: 5}}})

	require.Equal(t, []Change{{Category: CategoryGear, Item: "Trowel", Previous: 2, Quantity: 5}}, changes)
}

func TestDiffReportsFirstIncreasePerCategory(t *testing.T) {
	_, prev := Diff(Snapshot{}, AllData{Seeds: []Item{
		{Name: "Carrot", Quantity: 1},
		{Name: "Tomato", Quantity: 1},
		{Name: "Corn", Quantity: 4},
	}})

	changes, _ := Diff(prev, AllData{
		Seeds: []Item{
			{Name: "Carrot", Quantity: 1},
			{Name: "Tomato", Quantity: 3},
			{Name: "Corn", Quantity: 9},
		},
		Eggs: []Item{{Name: "Bug Egg", Quantity: 1}},
	})

	require.Len(t, changes, 2)
	require.Equal(t, Change{Category: CategorySeeds, Item: "Tomato", Previous: 1, Quantity: 3}, changes[0])
	require.Equal(t, Change{Category: CategoryEggs, Item: "Bug Egg", Previous: 0, Quantity: 1}, changes[1])
}

func TestDiffNewItemCountsFromZero(t *testing.T) {
	_, prev := Diff(Snapshot{}, AllData{Eggs: []Item{{Name: "Common Egg", Quantity: 1}}})

	changes, _ := Diff(prev, AllData{Eggs: []Item{
		{Name: "Common Egg", Quantity: 1},
		{Name: "Mythical Egg", Quantity: 3},
	}})

	require.Equal(t, []Change{{Category: CategoryEggs, Item: "Mythical Egg", Previous: 0, Quantity: 3}}, changes)
}

func TestDiffIdenticalPayloadIsIdempotent(t *testing.T) {
	data := AllData{
		Gear:  []Item{{Name: "Trowel", Quantity: 2}},
		Honey: []Item{{Name: "Honey Comb", Quantity: 7}},
	}
	first, prev := Diff(Snapshot{}, data)
	require.Len(t, first, 2)

	second, _ := Diff(prev, data)
	require.Empty(t, second)
}

func TestDiffAbsentOrEmptyCategoryNeverReports(t *testing.T) {
	_, prev := Diff(Snapshot{}, AllData{Gear: []Item{{Name: "Trowel", Quantity: 2}}})

	changes, next := Diff(prev, AllData{Cosmetics: []Item{}})

	require.Empty(t, changes)
	_, hasGear := next.Items[CategoryGear]
	require.False(t, hasGear)
}

func TestDiffDecreaseIsNotAChange(t *testing.T) {
	_, prev := Diff(Snapshot{}, AllData{Gear: []Item{{Name: "Trowel", Quantity: 5}}})

	changes, _ := Diff(prev, AllData{Gear: []Item{{Name: "Trowel", Quantity: 1}}})
	require.Empty(t, changes)
}

func TestDiffBaselineIsIsolatedFromInput(t *testing.T) {
	data := AllData{
		Gear:    []Item{{Name: "Trowel", Quantity: 2}},
		Weather: &WeatherInfo{Type: "rain", Effects: []string{"wet"}},
	}
	_, prev := Diff(Snapshot{}, data)

	data.Gear[0].Quantity = 100
	data.Weather.Effects[0] = "dry"

	require.Equal(t, 2, prev.Items[CategoryGear][0].Quantity)
	require.Equal(t, "wet", prev.Weather.Effects[0])

	changes, _ := Diff(prev, AllData{Gear: []Item{{Name: "Trowel", Quantity: 3}}})
	require.Equal(t, 2, changes[0].Previous)
}

func TestSnapshotClone(t *testing.T) {
	snap := NewSnapshot(AllData{Honey: []Item{{Name: "Honey Torch", Quantity: 1}}})
	clone := snap.Clone()
	clone.Items[CategoryHoney][0].Quantity = 9

	require.Equal(t, 1, snap.Items[CategoryHoney][0].Quantity)
	require.True(t, Snapshot{}.IsZero())
	require.False(t, snap.IsZero())
}
