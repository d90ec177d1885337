package domain

import "time"

// GameMode selects the country pool and question count of a game.
type GameMode struct {
	Name      string `json:"name" yaml:"name"`
	Region    string `json:"region,omitempty" yaml:"region"`
	Questions int    `json:"questions" yaml:"questions"`
}

// Game is a server-side play session.
type Game struct {
	ID          string     `json:"id"`
	SubmitterID string     `json:"submitterId"`
	Mode        string     `json:"mode"`
	Questions   []Question `json:"questions"`
	Current     int        `json:"current"`
	Score       int        `json:"score"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	ScoreID     string     `json:"scoreId,omitempty"`
}

// Finished reports whether every question has been answered.
func (g Game) Finished() bool {
	return g.Current >= len(g.Questions)
}

// PublicQuestion is a question without its answer.
type PublicQuestion struct {
	ID           int      `json:"id"`
	FlagAssetRef string   `json:"flagAssetRef"`
	Options      []string `json:"options"`
}

// GameView is what clients see of a game.
type GameView struct {
	ID             string           `json:"id"`
	Mode           string           `json:"mode"`
	Questions      []PublicQuestion `json:"questions"`
	Current        int              `json:"current"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Finished       bool             `json:"finished"`
}

// View hides correct answers.
func (g Game) View() GameView {
	questions := make([]PublicQuestion, len(g.Questions))
	for i, q := range g.Questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		questions[i] = PublicQuestion{ID: q.ID, FlagAssetRef: q.FlagAssetRef, Options: options}
	}
	return GameView{
		ID:             g.ID,
		Mode:           g.Mode,
		Questions:      questions,
		Current:        g.Current,
		Score:          g.Score,
		TotalQuestions: len(g.Questions),
		Finished:       g.Finished(),
	}
}

// AnswerResult summarizes one answered question.
type AnswerResult struct {
	QuestionID    int    `json:"questionId"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	Answered      int    `json:"answered"`
	Finished      bool   `json:"finished"`
}
