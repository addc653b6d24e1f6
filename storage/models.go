package storage

import "time"

type Team struct {
	ID        string    `dynamodbav:"PK"`
	Name      string    `dynamodbav:"Name"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
}

// Judge is keyed by its derived secret code so that the uniqueness of the
// code is enforced by a single conditional write.
type Judge struct {
	SecretCode string    `dynamodbav:"PK"`
	ID         string    `dynamodbav:"ID"`
	Name       string    `dynamodbav:"Name"`
	CreatedAt  time.Time `dynamodbav:"CreatedAt"`
}

type Criterion struct {
	ID        string    `dynamodbav:"PK"`
	Name      string    `dynamodbav:"Name"`
	MaxScore  int       `dynamodbav:"MaxScore"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
}

// Rating holds one judge's scores for one team, keyed by (judge, team).
// Scores map criterion ids to values; entries for deleted criteria stay
// in the map and are ignored by aggregation.
type Rating struct {
	JudgeID   string             `dynamodbav:"PK"`
	TeamID    string             `dynamodbav:"SK"`
	Scores    map[string]float64 `dynamodbav:"Scores"`
	UpdatedAt time.Time          `dynamodbav:"UpdatedAt"`
}

// ControlRecord is the single shared control row: the setup lock and the
// pointer to the team currently receiving ratings.
type ControlRecord struct {
	PK            string  `dynamodbav:"PK"`
	IsSetupLocked bool    `dynamodbav:"IsSetupLocked"`
	ActiveTeamID  *string `dynamodbav:"ActiveTeamID"`
}

// ControlRecordKey is the fixed identity of the singleton control item.
const ControlRecordKey = "CONTROL"
