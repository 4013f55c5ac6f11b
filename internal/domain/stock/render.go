package stock

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// NoDataText is shown for a category that is absent or empty.
	NoDataText = "No data"

	unknownText = "Unknown"
	noneText    = "None"

	// DefaultImageBaseURL serves item artwork keyed by slug.
	DefaultImageBaseURL = "https://api.joshlei.com/v2/growagarden/image"
)

// Dashboard is the render model of one cycle.
type Dashboard struct {
	Sections    []Section   `json:"sections"`
	Weather     WeatherView `json:"weather"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// Section holds the cards of one category or the no-data placeholder.
type Section struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Cards       []Card   `json:"cards"`
	NoData      bool     `json:"noData"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Card renders a single item.
type Card struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Display  string `json:"display"`
	ImageURL string `json:"imageUrl"`
}

// WeatherView is the weather widget with placeholders filled in.
type WeatherView struct {
	Type        string `json:"type"`
	Active      string `json:"active"`
	Effects     string `json:"effects"`
	LastUpdated string `json:"lastUpdated"`
	UpdatedAgo  string `json:"updatedAgo,omitempty"`
}

// Renderer builds dashboards from upstream data.
type Renderer struct {
	imageBaseURL string
}

// NewRenderer builds a renderer; an empty base URL uses DefaultImageBaseURL.
func NewRenderer(imageBaseURL string) *Renderer {
	base := strings.TrimRight(strings.TrimSpace(imageBaseURL), "/")
	if base == "" {
		base = DefaultImageBaseURL
	}
	return &Renderer{imageBaseURL: base}
}

// Render never fails: missing categories and weather fields become placeholders.
func (r *Renderer) Render(data AllData, now time.Time) Dashboard {
	sections := make([]Section, 0, len(Categories))
	for _, cat := range Categories {
		section := Section{Category: cat, Title: title(cat)}
		items := data.Items(cat)
		if len(items) == 0 {
			section.NoData = true
			section.Placeholder = NoDataText
			section.Cards = []Card{}
			sections = append(sections, section)
			continue
		}
		section.Cards = make([]Card, 0, len(items))
		for _, item := range items {
			section.Cards = append(section.Cards, Card{
				Name:     item.Name,
				Quantity: item.Quantity,
				Display:  humanize.Comma(int64(item.Quantity)),
				ImageURL: r.imageBaseURL + "/" + Slug(item.Name),
			})
		}
		sections = append(sections, section)
	}
	return Dashboard{
		Sections:    sections,
		Weather:     renderWeather(data.Weather, now),
		GeneratedAt: now,
	}
}

func renderWeather(w *WeatherInfo, now time.Time) WeatherView {
	view := WeatherView{
		Type:        unknownText,
		Active:      "No",
		Effects:     noneText,
		LastUpdated: unknownText,
	}
	if w == nil {
		return view
	}
	if strings.TrimSpace(w.Type) != "" {
		view.Type = w.Type
	}
	if w.Active {
		view.Active = "Yes"
	}
	if len(w.Effects) > 0 {
		view.Effects = strings.Join(w.Effects, ", ")
	}
	if !w.LastUpdated.IsZero() {
		view.LastUpdated = w.LastUpdated.UTC().Format(time.RFC1123)
		view.UpdatedAgo = humanize.RelTime(w.LastUpdated.Time, now, "ago", "from now")
	}
	return view
}

// Slug derives the image key of an item name.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func title(cat Category) string {
	s := string(cat)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
