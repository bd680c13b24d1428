package charts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	quickchartgo "github.com/henomis/quickchart-go"

	"github.com/exovet/supportbot/internal/domain/models"
)

// ErrEmptyBreakdown indicates the caller tried to chart an empty
// mapping. Callers must check for emptiness and reply with a "no data"
// message instead.
var ErrEmptyBreakdown = errors.New("cannot render chart for empty breakdown")

type chartConfig struct {
	Type    string        `json:"type"`
	Data    chartData     `json:"data"`
	Options *chartOptions `json:"options,omitempty"`
}

type chartData struct {
	Labels   []string  `json:"labels"`
	Datasets []dataset `json:"datasets"`
}

type dataset struct {
	Label string  `json:"label,omitempty"`
	Data  []int64 `json:"data"`
}

type chartOptions struct {
	Title  *titleOptions  `json:"title,omitempty"`
	Legend *legendOptions `json:"legend,omitempty"`
}

type titleOptions struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type legendOptions struct {
	Display bool `json:"display"`
}

// Renderer turns category breakdowns into PNG chart images via the
// quickchart.io rendering service.
type Renderer struct {
	width           int64
	height          int64
	backgroundColor string
}

// NewRenderer creates a renderer with the default canvas size.
func NewRenderer() *Renderer {
	return &Renderer{width: 700, height: 420, backgroundColor: "white"}
}

// Bar renders a vertical bar chart of consultation counts per animal type.
func (r *Renderer) Bar(breakdown models.CategoryBreakdown, title string) ([]byte, error) {
	cfg, err := buildBarConfig(breakdown, title)
	if err != nil {
		return nil, err
	}
	return r.render(cfg)
}

// Pie renders a pie chart. Share percentages are folded into the
// labels so the legend carries them.
func (r *Renderer) Pie(breakdown models.CategoryBreakdown, title string) ([]byte, error) {
	cfg, err := buildPieConfig(breakdown, title)
	if err != nil {
		return nil, err
	}
	return r.render(cfg)
}

// HorizontalBar renders a horizontal bar chart sorted ascending by
// count, so the largest category sits at the bottom of the axis order
// and renders at the top of the chart.
func (r *Renderer) HorizontalBar(breakdown models.CategoryBreakdown, title string) ([]byte, error) {
	cfg, err := buildHorizontalBarConfig(breakdown, title)
	if err != nil {
		return nil, err
	}
	return r.render(cfg)
}

func (r *Renderer) render(cfg chartConfig) ([]byte, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal chart config: %w", err)
	}

	qc := quickchartgo.New()
	qc.Config = string(payload)
	qc.Width = r.width
	qc.Height = r.height
	qc.BackgroundColor = r.backgroundColor

	var buf bytes.Buffer
	if err := qc.Write(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	return buf.Bytes(), nil
}

func buildBarConfig(breakdown models.CategoryBreakdown, title string) (chartConfig, error) {
	if breakdown.Empty() {
		return chartConfig{}, ErrEmptyBreakdown
	}

	labels, counts := split(breakdown)
	return chartConfig{
		Type: "bar",
		Data: chartData{
			Labels:   labels,
			Datasets: []dataset{{Label: "Consultations", Data: counts}},
		},
		Options: &chartOptions{
			Title:  &titleOptions{Display: true, Text: title},
			Legend: &legendOptions{Display: false},
		},
	}, nil
}

func buildPieConfig(breakdown models.CategoryBreakdown, title string) (chartConfig, error) {
	if breakdown.Empty() {
		return chartConfig{}, ErrEmptyBreakdown
	}

	total := breakdown.Total()
	labels := make([]string, 0, len(breakdown))
	counts := make([]int64, 0, len(breakdown))
	for _, tc := range breakdown {
		share := float64(tc.Count) / float64(total) * 100
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", tc.AnimalType, share))
		counts = append(counts, tc.Count)
	}

	return chartConfig{
		Type: "pie",
		Data: chartData{
			Labels:   labels,
			Datasets: []dataset{{Data: counts}},
		},
		Options: &chartOptions{
			Title: &titleOptions{Display: true, Text: title},
		},
	}, nil
}

func buildHorizontalBarConfig(breakdown models.CategoryBreakdown, title string) (chartConfig, error) {
	if breakdown.Empty() {
		return chartConfig{}, ErrEmptyBreakdown
	}

	ascending := make(models.CategoryBreakdown, len(breakdown))
	copy(ascending, breakdown)
	sort.SliceStable(ascending, func(i, j int) bool {
		return ascending[i].Count < ascending[j].Count
	})

	labels, counts := split(ascending)
	return chartConfig{
		Type: "horizontalBar",
		Data: chartData{
			Labels:   labels,
			Datasets: []dataset{{Label: "Consultations", Data: counts}},
		},
		Options: &chartOptions{
			Title:  &titleOptions{Display: true, Text: title},
			Legend: &legendOptions{Display: false},
		},
	}, nil
}

func split(breakdown models.CategoryBreakdown) ([]string, []int64) {
	labels := make([]string, 0, len(breakdown))
	counts := make([]int64, 0, len(breakdown))
	for _, tc := range breakdown {
		labels = append(labels, tc.AnimalType)
		counts = append(counts, tc.Count)
	}
	return labels, counts
}
