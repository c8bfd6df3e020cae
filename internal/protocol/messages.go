// Package protocol defines the flat, type-discriminated JSON messages exchanged
// with game clients over the websocket.
package protocol

import "quiz-game-service/internal/domain"

// Inbound message types.
const (
	TypeJoinGame     = "join_game"
	TypeStartGame    = "start_game"
	TypeSubmitAnswer = "submit_answer"
	TypeNextQuestion = "next_question"
)

// Outbound message types.
const (
	TypeJoinedGame     = "joined_game"
	TypePlayerJoined   = "player_joined"
	TypePlayerLeft     = "player_left"
	TypePlayerAnswered = "player_answered"
	TypeGameStarted    = "game_started"
	TypeNewQuestion    = "new_question"
	TypeTimerUpdate    = "timer_update"
	TypeQuestionEnded  = "question_ended"
	TypeGameFinished   = "game_finished"
	TypeError          = "error"
)

// Inbound is the superset envelope of all client messages.
type Inbound struct {
	Type     string      `json:"type"`
	GameCode string      `json:"gameCode,omitempty"`
	Player   *PlayerInfo `json:"player,omitempty"`
	Answer   string      `json:"answer,omitempty"`
}

// PlayerInfo is the client-supplied identity of a joining player.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// AnswerView is an answer with the correctness flag stripped. Questions sent to
// clients while a game is in progress must never reveal which answer is correct.
type AnswerView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the wire form of a question.
type QuestionView struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Answers   []AnswerView `json:"answers"`
	TimeLimit int          `json:"timeLimit"`
}

// ViewOf strips correctness flags from a question for broadcast.
func ViewOf(q domain.Question, defaultTimeLimit int) QuestionView {
	answers := make([]AnswerView, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerView{ID: a.ID, Text: a.Text})
	}
	limit := q.TimeLimit
	if limit <= 0 {
		limit = defaultTimeLimit
	}
	return QuestionView{ID: q.ID, Text: q.Text, Answers: answers, TimeLimit: limit}
}

// QuizInfo is the subset of quiz metadata shared with a joining player.
type QuizInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type JoinedGame struct {
	Type     string        `json:"type"`
	GameCode string        `json:"gameCode"`
	Player   domain.Player `json:"player"`
	Quiz     QuizInfo      `json:"quiz"`
}

type PlayerJoined struct {
	Type    string          `json:"type"`
	Player  domain.Player   `json:"player"`
	Players []domain.Player `json:"players"`
}

type PlayerLeft struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"playerId"`
	Players  []domain.Player `json:"players"`
}

type PlayerAnswered struct {
	Type    string          `json:"type"`
	Players []domain.Player `json:"players"`
}

type GameStarted struct {
	Type            string       `json:"type"`
	Question        QuestionView `json:"question"`
	CurrentQuestion int          `json:"currentQuestion"`
	TotalQuestions  int          `json:"totalQuestions"`
}

type NewQuestion struct {
	Type            string       `json:"type"`
	Question        QuestionView `json:"question"`
	CurrentQuestion int          `json:"currentQuestion"`
	TotalQuestions  int          `json:"totalQuestions"`
}

type TimerUpdate struct {
	Type     string `json:"type"`
	TimeLeft int    `json:"timeLeft"`
}

type QuestionEnded struct {
	Type          string          `json:"type"`
	CorrectAnswer string          `json:"correctAnswer"`
	Players       []domain.Player `json:"players"`
}

type GameFinished struct {
	Type    string          `json:"type"`
	Players []domain.Player `json:"players"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewJoinedGame(code string, p domain.Player, quiz domain.Quiz) JoinedGame {
	return JoinedGame{
		Type:     TypeJoinedGame,
		GameCode: code,
		Player:   p,
		Quiz:     QuizInfo{Title: quiz.Title, Description: quiz.Description},
	}
}

func NewPlayerJoined(p domain.Player, roster []domain.Player) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, Player: p, Players: roster}
}

func NewPlayerLeft(playerID string, roster []domain.Player) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, PlayerID: playerID, Players: roster}
}

func NewPlayerAnswered(roster []domain.Player) PlayerAnswered {
	return PlayerAnswered{Type: TypePlayerAnswered, Players: roster}
}

func NewGameStarted(q QuestionView, index, total int) GameStarted {
	// index is zero-based internally; clients display 1-based progress.
	return GameStarted{Type: TypeGameStarted, Question: q, CurrentQuestion: index + 1, TotalQuestions: total}
}

func NewNewQuestion(q QuestionView, index, total int) NewQuestion {
	return NewQuestion{Type: TypeNewQuestion, Question: q, CurrentQuestion: index + 1, TotalQuestions: total}
}

func NewTimerUpdate(timeLeft int) TimerUpdate {
	return TimerUpdate{Type: TypeTimerUpdate, TimeLeft: timeLeft}
}

func NewQuestionEnded(correctAnswer string, roster []domain.Player) QuestionEnded {
	return QuestionEnded{Type: TypeQuestionEnded, CorrectAnswer: correctAnswer, Players: roster}
}

func NewGameFinished(ranked []domain.Player) GameFinished {
	return GameFinished{Type: TypeGameFinished, Players: ranked}
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}
