// Package scoring derives results from a state snapshot: per-criterion
// means, team totals and ranking, and judging progress. Everything here is
// a pure function over the snapshot slices, no storage access.
package scoring

import (
	"sort"

	"github.com/pj950/live-scoring/storage"
)

type CriterionScore struct {
	CriterionID   string  `json:"criterionId"`
	CriterionName string  `json:"criterionName"`
	Score         float64 `json:"score"`
	// HasScores is false when no judge has scored this criterion for the
	// team yet; the score is then 0 and exports render a placeholder.
	HasScores bool `json:"hasScores"`
}

type TeamResult struct {
	TeamID       string           `json:"teamId"`
	TeamName     string           `json:"teamName"`
	Scores       []CriterionScore `json:"scores"`
	TotalScore   float64          `json:"totalScore"`
	AverageScore float64          `json:"averageScore"`
}

// ComputeResults ranks teams by descending total score. The total is the
// sum of per-criterion arithmetic means over all judges; the average
// divides the total by the criterion count. Ties keep the input team
// order. Score entries referencing unknown criteria are ignored.
func ComputeResults(teams []*storage.Team, criteria []*storage.Criterion, ratings []*storage.Rating) []TeamResult {
	ratingsByTeam := make(map[string][]*storage.Rating)
	for _, r := range ratings {
		ratingsByTeam[r.TeamID] = append(ratingsByTeam[r.TeamID], r)
	}

	results := make([]TeamResult, 0, len(teams))
	for _, team := range teams {
		scoresByCriterion := make(map[string][]float64, len(criteria))
		for _, rating := range ratingsByTeam[team.ID] {
			for criterionID, score := range rating.Scores {
				scoresByCriterion[criterionID] = append(scoresByCriterion[criterionID], score)
			}
		}

		result := TeamResult{
			TeamID:   team.ID,
			TeamName: team.Name,
			Scores:   make([]CriterionScore, 0, len(criteria)),
		}
		for _, criterion := range criteria {
			scores := scoresByCriterion[criterion.ID]
			mean := 0.0
			for _, s := range scores {
				mean += s
			}
			if len(scores) > 0 {
				mean /= float64(len(scores))
			}
			result.Scores = append(result.Scores, CriterionScore{
				CriterionID:   criterion.ID,
				CriterionName: criterion.Name,
				Score:         mean,
				HasScores:     len(scores) > 0,
			})
			result.TotalScore += mean
		}
		if len(criteria) > 0 {
			result.AverageScore = result.TotalScore / float64(len(criteria))
		}

		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalScore > results[j].TotalScore
	})
	return results
}

type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	// Matrix maps team id -> judge id -> whether a rating exists.
	Matrix map[string]map[string]bool `json:"matrix"`
}

// ComputeProgress reports how many of the possible (team, judge) ratings
// have been logged. Ratings for deleted teams or judges are not counted.
func ComputeProgress(teams []*storage.Team, judges []*storage.Judge, ratings []*storage.Rating) Progress {
	rated := make(map[string]map[string]bool, len(teams))
	for _, r := range ratings {
		if rated[r.TeamID] == nil {
			rated[r.TeamID] = make(map[string]bool)
		}
		rated[r.TeamID][r.JudgeID] = true
	}

	progress := Progress{
		Total:  len(teams) * len(judges),
		Matrix: make(map[string]map[string]bool, len(teams)),
	}
	for _, team := range teams {
		row := make(map[string]bool, len(judges))
		for _, judge := range judges {
			row[judge.ID] = rated[team.ID][judge.ID]
			if row[judge.ID] {
				progress.Completed++
			}
		}
		progress.Matrix[team.ID] = row
	}

	if progress.Total > 0 {
		progress.Percentage = float64(progress.Completed) / float64(progress.Total) * 100
	}
	return progress
}
