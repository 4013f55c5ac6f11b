package stock

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Category names one of the fixed item groups reported by the stock API.
type Category string

const (
	CategoryGear      Category = "gear"
	CategorySeeds     Category = "seeds"
	CategoryEggs      Category = "eggs"
	CategoryCosmetics Category = "cosmetics"
	CategoryHoney     Category = "honey"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGear,
	CategorySeeds,
	CategoryEggs,
	CategoryCosmetics,
	CategoryHoney,
}

// Item is a single stocked entry.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// UnmarshalJSON accepts quantities sent as integers, floats or numeric
// strings. Unreadable quantities decode as zero.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     json.RawMessage `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Name = parseName(raw.Name)
	i.Quantity = parseQuantity(raw.Quantity)
	return nil
}

func parseName(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return name
	}
	return string(data)
}

func parseQuantity(data json.RawMessage) int {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0
		}
		text = strings.TrimSpace(text)
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(n)
}

// WeatherInfo describes the in-game weather. All fields are optional upstream.
type WeatherInfo struct {
	Type        string    `json:"type,omitempty"`
	Active      bool      `json:"active"`
	Effects     []string  `json:"effects,omitempty"`
	LastUpdated Timestamp `json:"lastUpdated,omitempty"`
}

// AllData is the envelope returned by the upstream API and relayed by the proxy.
type AllData struct {
	Gear      []Item       `json:"gear,omitempty"`
	Seeds     []Item       `json:"seeds,omitempty"`
	Eggs      []Item       `json:"eggs,omitempty"`
	Cosmetics []Item       `json:"cosmetics,omitempty"`
	Honey     []Item       `json:"honey,omitempty"`
	Weather   *WeatherInfo `json:"weather,omitempty"`
}

// Items returns the list for a category; nil when the category is absent.
func (d AllData) Items(cat Category) []Item {
	switch cat {
	case CategoryGear:
		return d.Gear
	case CategorySeeds:
		return d.Seeds
	case CategoryEggs:
		return d.Eggs
	case CategoryCosmetics:
		return d.Cosmetics
	case CategoryHoney:
		return d.Honey
	default:
		return nil
	}
}

// Payload pairs the decoded data with the exact bytes received from upstream.
type Payload struct {
	Data AllData
	Raw  []byte
}

// Snapshot is the full set of category lists plus weather at one point in time.
type Snapshot struct {
	Items   map[Category][]Item
	Weather *WeatherInfo
}

// NewSnapshot deep copies data into a snapshot.
func NewSnapshot(data AllData) Snapshot {
	snap := Snapshot{Items: make(map[Category][]Item, len(Categories))}
	for _, cat := range Categories {
		if items := data.Items(cat); items != nil {
			snap.Items[cat] = append([]Item(nil), items...)
		}
	}
	snap.Weather = cloneWeather(data.Weather)
	return snap
}

// Clone returns a deep copy so later mutation of either value is isolated.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Weather: cloneWeather(s.Weather)}
	if s.Items != nil {
		out.Items = make(map[Category][]Item, len(s.Items))
		for cat, items := range s.Items {
			out.Items[cat] = append([]Item(nil), items...)
		}
	}
	return out
}

// IsZero reports whether the snapshot has never been populated.
func (s Snapshot) IsZero() bool {
	return s.Items == nil && s.Weather == nil
}

func cloneWeather(w *WeatherInfo) *WeatherInfo {
	if w == nil {
		return nil
	}
	copied := *w
	if w.Effects != nil {
		copied.Effects = append([]string(nil), w.Effects...)
	}
	return &copied
}
