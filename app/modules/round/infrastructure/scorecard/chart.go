package scorecard

import (
	"bytes"
	"errors"
	"sort"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoRound = errors.New("round is required")

var (
	golferColor  = drawing.ColorFromHex("2e7d32")
	partnerColor = drawing.ColorFromHex("c9a227")
	textColor    = drawing.ColorFromHex("263238")
)

// PointsChart renders cumulative Stableford points by hole as a PNG line chart.
// Rounds with fewer than two holes get a placeholder image.
func PointsChart(round *roundtypes.Round) ([]byte, error) {
	if round == nil {
		return nil, ErrNoRound
	}
	if len(round.HoleScores) < 2 {
		return renderPlaceholder("Not enough holes to chart")
	}

	golferX, golferY := cumulativePoints(round.HoleScores)
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    round.GolferName,
			XValues: golferX,
			YValues: golferY,
			Style:   chart.Style{StrokeColor: golferColor, StrokeWidth: 2, DotWidth: 3, DotColor: golferColor},
		},
	}
	maxY := golferY[len(golferY)-1]

	if p := round.PlayingPartnerRound; p != nil && len(p.HoleScores) >= 2 {
		px, py := cumulativePoints(p.HoleScores)
		series = append(series, chart.ContinuousSeries{
			Name:    p.GolferName,
			XValues: px,
			YValues: py,
			Style:   chart.Style{StrokeColor: partnerColor, StrokeWidth: 2, DotWidth: 3, DotColor: partnerColor},
		})
		maxY = max(maxY, py[len(py)-1])
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "Hole",
			Style: chart.Style{FontColor: textColor},
			Range: &chart.ContinuousRange{Min: 1, Max: float64(len(round.HoleScores))},
		},
		YAxis: chart.YAxis{
			Name:  "Points",
			Style: chart.Style{FontColor: textColor},
			// a zero-width range fails to render
			Range: &chart.ContinuousRange{Min: 0, Max: max(maxY, 1)},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buf := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cumulativePoints(holes []roundtypes.HoleScore) (xs, ys []float64) {
	sorted := sortedHoles(holes)
	xs = make([]float64, len(sorted))
	ys = make([]float64, len(sorted))
	var total float64
	for i, h := range sorted {
		total += h.Score
		xs[i] = float64(h.HoleNumber)
		ys[i] = total
	}
	return xs, ys
}

func sortedHoles(holes []roundtypes.HoleScore) []roundtypes.HoleScore {
	out := make([]roundtypes.HoleScore, len(holes))
	copy(out, holes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].HoleNumber < out[j].HoleNumber })
	return out
}

// renderPlaceholder draws straight onto a renderer; a chart with no series
// refuses to render.
func renderPlaceholder(msg string) ([]byte, error) {
	const width, height = 400, 200

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(textColor)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buf := bytes.NewBuffer([]byte{})
	if err := r.Save(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
