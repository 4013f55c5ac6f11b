package stock

// Change reports a quantity increase for one item of a category.
type Change struct {
	Category Category `json:"category"`
	Item     string   `json:"item"`
	Previous int      `json:"previous"`
	Quantity int      `json:"quantity"`
}

// Diff compares next against prev and returns at most one change per
// category: the first item, in list order, whose quantity grew. Items missing
// from prev count as quantity zero. Absent or empty categories never report.
// The returned snapshot is a deep copy of next and is the baseline for the
// following cycle.
func Diff(prev Snapshot, next AllData) ([]Change, Snapshot) {
	var changes []Change
	for _, cat := range Categories {
		if change, ok := firstIncrease(cat, prev.Items[cat], next.Items(cat)); ok {
			changes = append(changes, change)
		}
	}
	return changes, NewSnapshot(next)
}

func firstIncrease(cat Category, prev, next []Item) (Change, bool) {
	if len(next) == 0 {
		return Change{}, false
	}
	before := make(map[string]int, len(prev))
	for _, item := range prev {
		if _, seen := before[item.Name]; !seen {
			before[item.Name] = item.Quantity
		}
	}
	for _, item := range next {
		old := before[item.Name]
		if item.Quantity > old {
			return Change{Category: cat, Item: item.Name, Previous: old, Quantity: item.Quantity}, true
		}
	}
	return Change{}, false
}
