package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/protocol"
)

const defaultMaxPlayers = 20

// Notifier delivers an outbound message to a single connected player.
// Implementations must tolerate unknown player IDs (disconnected clients).
type Notifier interface {
	Send(playerID string, msg any)
}

// Session is the in-memory state machine for one running game. All mutations
// are serialized through its mutex; the question timer re-enters through the
// same lock, guarded by a per-question round counter so a late expiry can
// never end a question twice.
type Session struct {
	code   string
	gameID string
	quiz   domain.Quiz

	clock    clockwork.Clock
	notifier Notifier
	store    GameStore
	cfg      Config
	log      zerolog.Logger

	mu         sync.Mutex
	players    map[string]*domain.Player
	order      []string // join order; first entry is the host candidate
	host       string
	status     domain.GameStatus
	current    int
	timeLeft   int
	timer      *questionTimer
	graceTimer clockwork.Timer
	round      int
	roundOver  bool
}

// NewSession binds a quiz snapshot to a fresh session in the waiting state.
func NewSession(code, gameID string, quiz domain.Quiz, clock clockwork.Clock, notifier Notifier, store GameStore, cfg Config, log zerolog.Logger) *Session {
	return &Session{
		code:     code,
		gameID:   gameID,
		quiz:     quiz,
		clock:    clock,
		notifier: notifier,
		store:    store,
		cfg:      cfg,
		log:      log.With().Str("game_code", code).Logger(),
		players:  make(map[string]*domain.Player),
		status:   domain.StatusWaiting,
	}
}

// Code returns the session's game code.
func (s *Session) Code() string { return s.code }

// GameID returns the persisted game record's ID.
func (s *Session) GameID() string { return s.gameID }

// Quiz returns the quiz snapshot the session was created with.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// Snapshot is a point-in-time view of the session for lobby/REST consumers.
type Snapshot struct {
	GameCode        string            `json:"gameCode"`
	QuizID          string            `json:"quizId"`
	Title           string            `json:"title"`
	Players         []domain.Player   `json:"players"`
	CurrentQuestion int               `json:"currentQuestion"`
	TotalQuestions  int               `json:"totalQuestions"`
	Status          domain.GameStatus `json:"status"`
}

// Snapshot returns the current roster and progress.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		GameCode:        s.code,
		QuizID:          s.quiz.ID,
		Title:           s.quiz.Title,
		Players:         s.rosterLocked(true),
		CurrentQuestion: s.current,
		TotalQuestions:  len(s.quiz.Questions),
		Status:          s.status,
	}
}

// Join adds a player to the roster. The first joiner becomes host. Whether
// joins are accepted after the game has started is a policy decision
// (Config.AllowLateJoin); late joiners enter the current question unanswered.
func (s *Session) Join(info protocol.PlayerInfo) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.AllowLateJoin && s.status != domain.StatusWaiting {
		return domain.Player{}, domain.ErrGameAlreadyStarted
	}

	maxPlayers := s.quiz.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = defaultMaxPlayers
	}

	p, rejoin := s.players[info.ID]
	if !rejoin {
		if len(s.players) >= maxPlayers {
			return domain.Player{}, domain.ErrGameFull
		}
		p = &domain.Player{ID: info.ID, Name: info.Name, Avatar: info.Avatar}
		s.players[info.ID] = p
		s.order = append(s.order, info.ID)
	} else {
		// Rejoin keeps accumulated score and answer state.
		p.Name = info.Name
		p.Avatar = info.Avatar
	}

	if len(s.players) == 1 {
		s.host = p.ID
		p.IsHost = true
	}

	joined := *p
	s.notifier.Send(p.ID, protocol.NewJoinedGame(s.code, joined, s.quiz))
	s.broadcastLocked(protocol.NewPlayerJoined(joined, s.rosterLocked(false)))
	return joined, nil
}

// Start transitions the session to in_progress and broadcasts the first
// question. Host-only; requires the quiz minimum player count.
func (s *Session) Start(requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaiting {
		return domain.ErrGameAlreadyStarted
	}
	if requesterID != s.host {
		return domain.ErrNotAuthorized
	}
	if len(s.players) < s.quiz.MinPlayers {
		return domain.ErrNotEnoughPlayers
	}
	// Game creation rejects empty quizzes; this guards sessions constructed
	// directly.
	if len(s.quiz.Questions) == 0 {
		return domain.ErrQuizEmpty
	}

	s.status = domain.StatusInProgress
	s.current = 0
	s.resetAnswersLocked()
	s.startRoundLocked()

	view := protocol.ViewOf(s.quiz.Questions[0], s.quizTimeLimit())
	s.broadcastLocked(protocol.NewGameStarted(view, 0, len(s.quiz.Questions)))
	s.syncRecord()
	return nil
}

// SubmitAnswer records a player's answer for the live question. Unknown
// players, duplicate submissions, and answers outside a live round are
// silent no-ops. When the last unanswered player submits, the question ends
// immediately instead of waiting out the clock.
func (s *Session) SubmitAnswer(playerID, answerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusInProgress || s.roundOver {
		return
	}
	p, ok := s.players[playerID]
	if !ok {
		s.log.Debug().Str("player_id", playerID).Msg("answer from unknown player dropped")
		return
	}
	if p.HasAnswered {
		return
	}

	question := s.quiz.Questions[s.current]
	correct := answerID != "" && answerID == question.CorrectAnswer()

	p.HasAnswered = true
	p.CurrentAnswer = answerID
	p.Score += Score(correct, s.timeLeft)

	s.persistAnswer(domain.AnswerRecord{
		GameID:        s.gameID,
		PlayerID:      playerID,
		QuestionIndex: s.current,
		Answer:        answerID,
		Correct:       correct,
		TimeToAnswer:  s.questionTimeLimitLocked() - s.timeLeft,
		CreatedAt:     s.clock.Now(),
	})

	if s.allAnsweredLocked() {
		s.endQuestionLocked(false)
		return
	}
	s.broadcastLocked(protocol.NewPlayerAnswered(s.rosterLocked(false)))
}

// Advance is the host's manual skip to the next question. It cancels the live
// countdown (or a pending post-question grace delay) and moves on directly.
func (s *Session) Advance(requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusInProgress {
		return nil
	}
	if requesterID != s.host {
		return domain.ErrNotAuthorized
	}
	s.advanceLocked()
	return nil
}

// Leave removes a player. The earliest-joined remaining player inherits the
// host role when the host departs. Returns true when the roster is empty and
// the session has been torn down; the caller drops it from the registry.
func (s *Session) Leave(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return len(s.players) == 0
	}
	delete(s.players, playerID)
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if len(s.players) == 0 {
		s.teardownLocked()
		return true
	}

	if p.IsHost {
		next := s.players[s.order[0]]
		next.IsHost = true
		s.host = next.ID
	}
	s.broadcastLocked(protocol.NewPlayerLeft(playerID, s.rosterLocked(false)))
	return false
}

// timer callbacks

func (s *Session) onTick(round, left int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round || s.roundOver || s.status != domain.StatusInProgress {
		return
	}
	s.timeLeft = left
	s.broadcastLocked(protocol.NewTimerUpdate(left))
}

func (s *Session) onExpire(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round || s.roundOver || s.status != domain.StatusInProgress {
		return
	}
	s.endQuestionLocked(true)
}

func (s *Session) autoAdvance(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round || !s.roundOver || s.status != domain.StatusInProgress {
		return
	}
	s.advanceLocked()
}

// locked helpers

func (s *Session) startRoundLocked() {
	s.round++
	s.roundOver = false
	s.timeLeft = s.questionTimeLimitLocked()

	round := s.round
	s.timer = startQuestionTimer(s.clock, s.timeLeft,
		func(left int) { s.onTick(round, left) },
		func() { s.onExpire(round) },
	)
}

// endQuestionLocked closes the live round exactly once: it stops the clock,
// scores timeouts as null answers, reveals the correct answer, and schedules
// the advance after the grace delay.
func (s *Session) endQuestionLocked(timedOut bool) {
	s.roundOver = true
	s.stopTimerLocked()

	question := s.quiz.Questions[s.current]
	if timedOut {
		for _, id := range s.order {
			p := s.players[id]
			if p.HasAnswered {
				continue
			}
			p.HasAnswered = true
			s.persistAnswer(domain.AnswerRecord{
				GameID:        s.gameID,
				PlayerID:      p.ID,
				QuestionIndex: s.current,
				Correct:       false,
				TimeToAnswer:  s.questionTimeLimitLocked(),
				CreatedAt:     s.clock.Now(),
			})
		}
	}

	round := s.round
	s.graceTimer = s.clock.AfterFunc(s.cfg.GraceDelay, func() { s.autoAdvance(round) })

	s.broadcastLocked(protocol.NewQuestionEnded(question.CorrectAnswer(), s.rosterLocked(true)))
}

func (s *Session) advanceLocked() {
	s.stopTimerLocked()
	s.stopGraceLocked()
	s.current++

	if s.current >= len(s.quiz.Questions) {
		s.status = domain.StatusFinished
		s.round++ // invalidates any pending timer or grace callbacks
		s.broadcastLocked(protocol.NewGameFinished(s.rankedLocked()))
		s.syncRecord()
		return
	}

	s.resetAnswersLocked()
	s.startRoundLocked()
	view := protocol.ViewOf(s.quiz.Questions[s.current], s.quizTimeLimit())
	s.broadcastLocked(protocol.NewNewQuestion(view, s.current, len(s.quiz.Questions)))
	s.syncRecord()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.cancel()
		s.timer = nil
	}
}

func (s *Session) teardownLocked() {
	s.round++ // invalidates any pending timer or grace callbacks
	s.stopTimerLocked()
	s.stopGraceLocked()
}

func (s *Session) stopGraceLocked() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

func (s *Session) resetAnswersLocked() {
	for _, p := range s.players {
		p.HasAnswered = false
		p.CurrentAnswer = ""
	}
}

func (s *Session) allAnsweredLocked() bool {
	for _, p := range s.players {
		if !p.HasAnswered {
			return false
		}
	}
	return true
}

func (s *Session) questionTimeLimitLocked() int {
	if limit := s.quiz.Questions[s.current].TimeLimit; limit > 0 {
		return limit
	}
	return s.quizTimeLimit()
}

func (s *Session) quizTimeLimit() int {
	if s.quiz.TimeLimit > 0 {
		return s.quiz.TimeLimit
	}
	return s.cfg.DefaultTimeLimit
}

// rosterLocked copies the roster in join order. Mid-round broadcasts strip
// each player's chosen answer; it is only revealed alongside question_ended.
func (s *Session) rosterLocked(withAnswers bool) []domain.Player {
	roster := make([]domain.Player, 0, len(s.order))
	for _, id := range s.order {
		p := *s.players[id]
		if !withAnswers {
			p.CurrentAnswer = ""
		}
		roster = append(roster, p)
	}
	return roster
}

func (s *Session) rankedLocked() []domain.Player {
	ranked := s.rosterLocked(true)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (s *Session) broadcastLocked(msg any) {
	for _, id := range s.order {
		s.notifier.Send(id, msg)
	}
}

// persistence (best effort, never blocks the round)

func (s *Session) persistAnswer(rec domain.AnswerRecord) {
	if s.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.LogAnswer(ctx, rec); err != nil {
			s.log.Warn().Err(err).Str("player_id", rec.PlayerID).Int("question", rec.QuestionIndex).Msg("answer log failed")
		}
	}()
}

func (s *Session) syncRecord() {
	if s.store == nil {
		return
	}
	status, current := s.status, s.current
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.UpdateGameStatus(ctx, s.gameID, status, current); err != nil {
			s.log.Warn().Err(err).Msg("game record sync failed")
		}
	}()
}
