package domain

import "time"

// GameStatus is the lifecycle state of a game session.
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"
)

// Answer is one selectable option of a question.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"isCorrect"`
}

// Question models a multiple-choice or true/false question.
type Question struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Answers   []Answer `json:"answers"`
	TimeLimit int      `json:"timeLimit"` // seconds; falls back to the quiz default if zero
}

// CorrectAnswer returns the ID of the first answer flagged correct.
// The schema does not forbid multiple correct flags; first match wins.
func (q Question) CorrectAnswer() string {
	for _, a := range q.Answers {
		if a.Correct {
			return a.ID
		}
	}
	return ""
}

// Quiz is the immutable document a session is bound to at creation.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TimeLimit   int        `json:"timeLimit"`
	MinPlayers  int        `json:"minPlayers"`
	MaxPlayers  int        `json:"maxPlayers"`
	Questions   []Question `json:"questions"`
}

// Player is one connected participant of a session.
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	Score         int    `json:"score"`
	IsHost        bool   `json:"isHost"`
	HasAnswered   bool   `json:"hasAnswered"`
	CurrentAnswer string `json:"currentAnswer,omitempty"`
}

// GameRecord is the persisted row backing a live session.
type GameRecord struct {
	ID              string
	QuizID          string
	GameCode        string
	Status          GameStatus
	CurrentQuestion int
	CreatedAt       time.Time
}

// AnswerRecord logs one player's answer (or timeout) for one question.
type AnswerRecord struct {
	GameID        string
	PlayerID      string
	QuestionIndex int
	Answer        string
	Correct       bool
	TimeToAnswer  int // seconds elapsed when the answer was accepted
	CreatedAt     time.Time
}
