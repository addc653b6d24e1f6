package scoring

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/pj950/live-scoring/storage"
)

// MissingScorePlaceholder marks criteria nobody has scored yet.
const MissingScorePlaceholder = "N/A"

// RenderCSV renders the ranked results as CSV: one row per team in ranking
// order, columns Team, one per criterion, Total Score, Average Score.
// Numeric cells are rounded to two decimals.
func RenderCSV(teams []*storage.Team, criteria []*storage.Criterion, ratings []*storage.Rating) ([]byte, error) {
	results := ComputeResults(teams, criteria, ratings)

	header := make([]string, 0, len(criteria)+3)
	header = append(header, "Team")
	for _, c := range criteria {
		header = append(header, c.Name)
	}
	header = append(header, "Total Score", "Average Score")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, result := range results {
		row := make([]string, 0, len(header))
		row = append(row, result.TeamName)
		for _, score := range result.Scores {
			if !score.HasScores {
				row = append(row, MissingScorePlaceholder)
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", score.Score))
		}
		row = append(row,
			fmt.Sprintf("%.2f", result.TotalScore),
			fmt.Sprintf("%.2f", result.AverageScore))
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
