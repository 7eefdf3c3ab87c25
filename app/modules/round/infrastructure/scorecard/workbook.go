package scorecard

import (
	"bytes"
	"fmt"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Scorecard"

var holeHeader = []string{"Hole", "Par", "Index", "Meters", "Strokes", "Points", "Picked Up", "Not Played"}

// BuildWorkbook renders the round as an XLSX card: a header block, one row per
// hole and a totals row. A partner card goes on its own sheet.
func BuildWorkbook(round *roundtypes.Round) ([]byte, error) {
	if round == nil {
		return nil, ErrNoRound
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeCard(f, sheetName, round.GolferName, round.GolfLinkNo, round.DailyHandicap, round.RoundDate, round.HoleScores); err != nil {
		return nil, err
	}

	if p := round.PlayingPartnerRound; p != nil {
		partnerSheet := "Partner"
		if _, err := f.NewSheet(partnerSheet); err != nil {
			return nil, fmt.Errorf("failed to add partner sheet: %w", err)
		}
		if err := writeCard(f, partnerSheet, p.GolferName, p.GolfLinkNo, p.DailyHandicap, round.RoundDate, p.HoleScores); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCard(f *excelize.File, sheet, name, golfLinkNo string, dailyHandicap float64, date string, holes []roundtypes.HoleScore) error {
	meta := [][]any{
		{"Golfer", name},
		{"Golf Link", golfLinkNo},
		{"Daily Handicap", dailyHandicap},
		{"Date", date},
	}
	for i, row := range meta {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}

	headerRow := len(meta) + 2
	header := make([]any, len(holeHeader))
	for i, h := range holeHeader {
		header[i] = h
	}
	if err := setRow(f, sheet, headerRow, header); err != nil {
		return err
	}

	var strokes int
	var points float64
	for i, h := range sortedHoles(holes) {
		row := []any{h.HoleNumber, h.Par, h.Index1, h.Meters, h.Strokes, h.Score, yesNo(h.IsBallPickedUp), yesNo(h.IsHoleNotPlayed)}
		if err := setRow(f, sheet, headerRow+1+i, row); err != nil {
			return err
		}
		strokes += h.Strokes
		points += h.Score
	}

	totals := []any{"Total", "", "", "", strokes, points}
	return setRow(f, sheet, headerRow+1+len(holes), totals)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return ""
}
