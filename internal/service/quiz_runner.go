package service

import (
	"codequiz/internal/model"
	"context"
	"errors"
	"log"
	"time"
)

// PointsPerCorrectAnswer is the flat score for each correct answer.
// Answer speed does not matter.
const PointsPerCorrectAnswer = 10

// leaveTimeout bounds the left-flag write made after the run was cancelled
const leaveTimeout = 10 * time.Second

// CheckAnswers counts the answers that select a correct slot of the
// question at the same position. A skip never counts.
func CheckAnswers(questions []model.Question, answers []int) int {
	correct := 0
	for i := range questions {
		if i >= len(answers) {
			break
		}
		if questions[i].IsCorrect(answers[i]) {
			correct++
		}
	}
	return correct
}

// Points converts a correct answer count into points
func Points(correct int) int {
	return correct * PointsPerCorrectAnswer
}

// Answer is a player's pick for the question at index Question. Answers
// for any other question than the one running are ignored.
type Answer struct {
	Question int `json:"question"`
	Index    int `json:"answer"`
}

// QuestionPush is sent to the player when a question starts
type QuestionPush struct {
	GameID   string             `json:"gameId"`
	Index    int                `json:"index"`
	Total    int                `json:"total"`
	Question model.QuestionView `json:"question"`
	Deadline time.Time          `json:"deadline"`
}

// QuizRunner drives one player through the stored question sequence
type QuizRunner struct {
	store *GameSessionStore
	game  *model.Game
	user  model.User

	// OnQuestion is called as each question starts
	OnQuestion func(push QuestionPush)

	second time.Duration
}

// NewQuizRunner creates a runner for user's seat in game
func NewQuizRunner(store *GameSessionStore, game *model.Game, user model.User) *QuizRunner {
	return &QuizRunner{
		store:      store,
		game:       game,
		user:       user,
		OnQuestion: func(QuestionPush) {},
		second:     time.Second,
	}
}

// Run asks every question in order, recording the picked index or
// model.SkippedAnswer when the countdown runs out. A completed run stores
// the player's stats and marks the seat finished. A cancelled run marks
// the seat as left so the opponent is not kept waiting, unless it was
// cancelled because the game was already resolved.
func (r *QuizRunner) Run(ctx context.Context, answers <-chan Answer) (*model.QuizResult, error) {
	questions := r.game.Questions
	recorded := make([]int, 0, len(questions))
	timeout := time.Duration(r.game.QuestionDuration) * r.second

	for i := range questions {
		deadline := time.Now().Add(timeout)
		r.OnQuestion(QuestionPush{
			GameID:   r.game.ID,
			Index:    i,
			Total:    len(questions),
			Question: questions[i].View(),
			Deadline: deadline,
		})

		picked, err := r.await(ctx, i, timeout, answers)
		if err != nil {
			if cause := context.Cause(ctx); errors.Is(cause, errGameEnded) {
				return nil, cause
			}
			r.leave(ctx)
			return nil, err
		}
		recorded = append(recorded, picked)
	}

	correct := CheckAnswers(questions, recorded)
	points := Points(correct)
	if err := r.store.SaveUserGameStats(ctx, r.game.ID, &r.game.Lobby, r.user, recorded, correct, points); err != nil {
		return nil, err
	}
	if err := r.store.SetUserFinishedGame(ctx, r.game.ID, &r.game.Lobby, r.user); err != nil {
		return nil, err
	}

	log.Printf("User %s finished game %s: %d/%d correct, %d points", r.user.UID, r.game.ID, correct, len(questions), points)
	return &model.QuizResult{
		GameID:         r.game.ID,
		Answers:        recorded,
		CorrectAnswers: correct,
		Points:         points,
		TotalQuestions: len(questions),
	}, nil
}

// await blocks until the answer for question idx arrives or time runs out
func (r *QuizRunner) await(ctx context.Context, idx int, timeout time.Duration, answers <-chan Answer) (int, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return model.SkippedAnswer, nil
		case a, ok := <-answers:
			if !ok {
				// No more input, the remaining questions time out
				answers = nil
				continue
			}
			if a.Question != idx {
				continue
			}
			if a.Index < 0 || a.Index >= model.MaxAnswerSlots {
				return model.SkippedAnswer, nil
			}
			return a.Index, nil
		}
	}
}

func (r *QuizRunner) leave(ctx context.Context) {
	leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()

	if err := r.store.SetUserLeftGame(leaveCtx, r.game, r.user, true); err != nil {
		log.Printf("Error marking %s as left in game %s: %v", r.user.UID, r.game.ID, err)
		return
	}
	log.Printf("User %s left game %s before finishing", r.user.UID, r.game.ID)
}
