package model

// MaxAnswerSlots is the number of answer slots a question can carry
const MaxAnswerSlots = 6

// SkippedAnswer marks a question left unanswered when its countdown elapsed
const SkippedAnswer = -1

// PoolAnswers holds the pool's six optional answer texts, slot A to F
type PoolAnswers struct {
	AnswerA *string `json:"answer_a" bson:"answer_a"`
	AnswerB *string `json:"answer_b" bson:"answer_b"`
	AnswerC *string `json:"answer_c" bson:"answer_c"`
	AnswerD *string `json:"answer_d" bson:"answer_d"`
	AnswerE *string `json:"answer_e" bson:"answer_e"`
	AnswerF *string `json:"answer_f" bson:"answer_f"`
}

// PoolCorrectAnswers holds "true"/"false" per slot; an empty value means absent
type PoolCorrectAnswers struct {
	AnswerACorrect string `json:"answer_a_correct" bson:"answer_a_correct"`
	AnswerBCorrect string `json:"answer_b_correct" bson:"answer_b_correct"`
	AnswerCCorrect string `json:"answer_c_correct" bson:"answer_c_correct"`
	AnswerDCorrect string `json:"answer_d_correct" bson:"answer_d_correct"`
	AnswerECorrect string `json:"answer_e_correct" bson:"answer_e_correct"`
	AnswerFCorrect string `json:"answer_f_correct" bson:"answer_f_correct"`
}

// PoolQuestion is a question as stored in the question pool
type PoolQuestion struct {
	ID                     string             `json:"id" bson:"_id"`
	Question               string             `json:"question" bson:"question"`
	Description            string             `json:"description,omitempty" bson:"description,omitempty"`
	Answers                PoolAnswers        `json:"answers" bson:"answers"`
	MultipleCorrectAnswers string             `json:"multiple_correct_answers" bson:"multiple_correct_answers"`
	CorrectAnswers         PoolCorrectAnswers `json:"correct_answers" bson:"correct_answers"`
	Category               string             `json:"category" bson:"category"`
	Difficulty             string             `json:"difficulty" bson:"difficulty"`
}

// AnswerSlot is one answer position of a question
type AnswerSlot struct {
	Text    string `json:"text,omitempty" bson:"text,omitempty"`
	Present bool   `json:"present" bson:"present"`
	Correct bool   `json:"correct" bson:"correct"`
}

// Question is the gameplay form of a pool question. Slot i corresponds to
// answer index i chosen by a player (0 = A ... 5 = F).
type Question struct {
	ID          string                     `json:"id" bson:"id"`
	Question    string                     `json:"question" bson:"question"`
	Description string                     `json:"description,omitempty" bson:"description,omitempty"`
	Slots       [MaxAnswerSlots]AnswerSlot `json:"slots" bson:"slots"`
	Category    string                     `json:"category" bson:"category"`
	Difficulty  string                     `json:"difficulty" bson:"difficulty"`
}

// QuestionView is what a player sees while the question is running
type QuestionView struct {
	ID          string                  `json:"id"`
	Question    string                  `json:"question"`
	Description string                  `json:"description,omitempty"`
	Answers     [MaxAnswerSlots]*string `json:"answers"`
	Category    string                  `json:"category"`
	Difficulty  string                  `json:"difficulty"`
}

// ToQuestion converts the pool shape into fixed slots, A..F in order
func (p *PoolQuestion) ToQuestion() Question {
	texts := [MaxAnswerSlots]*string{
		p.Answers.AnswerA,
		p.Answers.AnswerB,
		p.Answers.AnswerC,
		p.Answers.AnswerD,
		p.Answers.AnswerE,
		p.Answers.AnswerF,
	}
	flags := [MaxAnswerSlots]string{
		p.CorrectAnswers.AnswerACorrect,
		p.CorrectAnswers.AnswerBCorrect,
		p.CorrectAnswers.AnswerCCorrect,
		p.CorrectAnswers.AnswerDCorrect,
		p.CorrectAnswers.AnswerECorrect,
		p.CorrectAnswers.AnswerFCorrect,
	}

	q := Question{
		ID:          p.ID,
		Question:    p.Question,
		Description: p.Description,
		Category:    p.Category,
		Difficulty:  p.Difficulty,
	}
	for i := range q.Slots {
		if texts[i] == nil {
			continue
		}
		q.Slots[i] = AnswerSlot{
			Text:    *texts[i],
			Present: true,
			Correct: flags[i] == "true",
		}
	}
	return q
}

// IsCorrect reports whether answer index idx selects a correct slot.
// Skips and out-of-range or empty slots are never correct.
func (q *Question) IsCorrect(idx int) bool {
	if idx < 0 || idx >= MaxAnswerSlots {
		return false
	}
	slot := q.Slots[idx]
	return slot.Present && slot.Correct
}

// View strips correctness so the question can be shown mid-game
func (q *Question) View() QuestionView {
	v := QuestionView{
		ID:          q.ID,
		Question:    q.Question,
		Description: q.Description,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
	}
	for i, slot := range q.Slots {
		if slot.Present {
			text := slot.Text
			v.Answers[i] = &text
		}
	}
	return v
}
