package stock

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderMissingCategoryShowsPlaceholder(t *testing.T) {
	r := NewRenderer("")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	dash := r.Render(AllData{Gear: []Item{{Name: "Watering Can", Quantity: 1200}}}, now)

	require.Len(t, dash.Sections, len(Categories))
	gear := dash.Sections[0]
	require.Equal(t, "Gear", gear.Title)
	require.False(t, gear.NoData)
	require.Equal(t, "1,200", gear.Cards[0].Display)
	require.Equal(t, DefaultImageBaseURL+"/watering_can", gear.Cards[0].ImageURL)

	for _, section := range dash.Sections[1:] {
		require.True(t, section.NoData, section.Category)
		require.Equal(t, NoDataText, section.Placeholder)
		require.Empty(t, section.Cards)
	}
}

func TestRenderWeatherPlaceholders(t *testing.T) {
	r := NewRenderer("https://img.example.com/")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	dash := r.Render(AllData{}, now)
	require.Equal(t, WeatherView{Type: "Unknown", Active: "No", Effects: "None", LastUpdated: "Unknown"}, dash.Weather)

	updated := now.Add(-5 * time.Minute)
	dash = r.Render(AllData{Weather: &WeatherInfo{
		Type:        "Thunderstorm",
		Active:      true,
		Effects:     []string{"Shocked", "Wet"},
		LastUpdated: Timestamp{Time: updated},
	}}, now)
	require.Equal(t, "Thunderstorm", dash.Weather.Type)
	require.Equal(t, "Yes", dash.Weather.Active)
	require.Equal(t, "Shocked, Wet", dash.Weather.Effects)
	require.Equal(t, "5 minutes ago", dash.Weather.UpdatedAgo)
}

func TestSlug(t *testing.T) {
	require.Equal(t, "master_sprinkler", Slug("Master Sprinkler"))
}

func TestTimestampDecoding(t *testing.T) {
	var w WeatherInfo
	require.NoError(t, json.Unmarshal([]byte(`{"type":"rain","lastUpdated":"2025-06-01T10:00:00Z"}`), &w))
	require.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), w.LastUpdated.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"lastUpdated":1748772000000}`), &w))
	require.Equal(t, int64(1748772000000), w.LastUpdated.UnixMilli())

	w = WeatherInfo{}
	require.NoError(t, json.Unmarshal([]byte(`{"lastUpdated":null}`), &w))
	require.True(t, w.LastUpdated.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"lastUpdated":"2025-06-01 12:00:00"}`), &w))
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), w.LastUpdated.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"lastUpdated":"1748772000000"}`), &w))
	require.Equal(t, int64(1748772000000), w.LastUpdated.UnixMilli())
}

func TestTimestampUnreadableRendersUnknown(t *testing.T) {
	for _, raw := range []string{`"yesterday"`, `{}`, `true`, `""`} {
		var w WeatherInfo
		require.NoError(t, json.Unmarshal([]byte(`{"type":"rain","lastUpdated":`+raw+`}`), &w), raw)
		require.True(t, w.LastUpdated.IsZero(), raw)
		require.Equal(t, "Unknown", NewRenderer("").Render(AllData{Weather: &w}, time.Now()).Weather.LastUpdated, raw)
	}
}

func TestItemQuantityDecoding(t *testing.T) {
	var data AllData
	body := `{"gear":[
		{"name":"Trowel","quantity":2},
		{"name":"Rake","quantity":2.0},
		{"name":"Hoe","quantity":"7"},
		{"name":"Shovel","quantity":" 3.0 "},
		{"name":"Sprinkler","quantity":"lots"},
		{"name":"Watering Can","quantity":null},
		{"name":"Pot"}
	]}`
	require.NoError(t, json.Unmarshal([]byte(body), &data))
	require.Equal(t, []Item{
		{Name: "Trowel", Quantity: 2},
		{Name: "Rake", Quantity: 2},
		{Name: "Hoe", Quantity: 7},
		{Name: "Shovel", Quantity: 3},
		{Name: "Sprinkler", Quantity: 0},
		{Name: "Watering Can", Quantity: 0},
		{Name: "Pot", Quantity: 0},
	}, data.Gear)
}
