// Package conversation implements the intake state machine: a linear
// scripted screening that fills a candidate record one validated field
// at a time, asks one generated question per declared skill and hands
// the finished record to the session store.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/talentscout/intake/internal/logger"
	"github.com/talentscout/intake/internal/question"
	"github.com/talentscout/intake/internal/validate"
)

// TextGenerator is the advisory validation capability: a yes/no
// plausibility opinion from the text-completion backend. It is
// advisory only; the local validators override a "no".
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QuestionSource produces one screening question per skill. It must
// never fail; degraded questions are returned instead of errors.
type QuestionSource interface {
	ForSkill(ctx context.Context, skill string, asked map[string]struct{}) question.Question
}

// Store is the persistence collaborator. InsertAudit is best effort
// and its failures are ignored; the InsertFinal result feeds the
// farewell wording.
type Store interface {
	InsertAudit(ctx context.Context, sessionID string, transcript []Message, record *Record) error
	InsertFinal(ctx context.Context, sessionID string, record *Record) error
}

// Deps aggregates the collaborators a session needs. Generator and
// Store may be nil: validation then relies on the local validators
// only and persistence is skipped (leaving the status flag unset).
type Deps struct {
	Generator TextGenerator
	Questions QuestionSource
	Store     Store
	Logger    *zap.Logger
	// Timeout bounds each advisory validation call.
	Timeout time.Duration
}

const (
	defaultAdvisoryTimeout = 15 * time.Second
	storeTimeout           = 2 * time.Second
	logPreviewLimit        = 200
)

var exitTokens = map[string]struct{}{
	"exit":    {},
	"quit":    {},
	"goodbye": {},
	"bye":     {},
}

const greetingMessage = "Hello! Welcome to TalentScout. I'm your AI hiring assistant. " +
	"I'll guide you through a quick screening to help match you with the best opportunities. " +
	"You can type 'exit' or 'quit' anytime to end the chat.\n\n" +
	"Let's get started! What's your full name?"

// Session is one conversation with one candidate. It is not safe for
// concurrent use; each candidate owns an independent session.
type Session struct {
	id         string
	deps       Deps
	stage      Stage
	record     *Record
	transcript []Message
	asked      map[string]struct{}
	// cursor indexes the next question to ask or answer. It also
	// indexes the parallel skills slice during the retry detour.
	cursor int
}

// New creates a session at the greeting stage with an empty record.
func New(id string, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = defaultAdvisoryTimeout
	}

	return &Session{
		id:     id,
		deps:   deps,
		stage:  StageGreeting,
		record: NewRecord(),
		asked:  make(map[string]struct{}),
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Stage() Stage          { return s.stage }
func (s *Session) Record() *Record       { return s.record }
func (s *Session) Transcript() []Message { return s.transcript }

// Greeting emits the opening message and moves the session to the
// first intake field.
func (s *Session) Greeting() string {
	s.stage = StageName
	s.say(greetingMessage)
	return greetingMessage
}

// Consume processes one user turn and returns the outgoing message.
// It never returns an error: every failure path has a defined
// fallback continuation. After each turn the transcript and record
// snapshot are appended to the store, best effort.
func (s *Session) Consume(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	s.transcript = append(s.transcript, Message{Role: RoleUser, Content: input, Time: time.Now().UTC()})

	reply := s.process(ctx, input)
	s.say(reply)
	s.audit(ctx)

	return reply
}

func (s *Session) process(ctx context.Context, input string) string {
	if _, ok := exitTokens[strings.ToLower(input)]; ok {
		s.stage = StageEnded
		return s.farewell()
	}

	switch s.stage {
	case StageGreeting:
		// Input arrived before the greeting was shown; emit it now.
		s.stage = StageName
		return greetingMessage
	case StageName, StageEmail, StagePhone, StageExperience, StagePosition, StageLocation:
		return s.handleField(ctx, input)
	case StageTechStack:
		return s.handleTechStack(ctx, input)
	case StageTechQuestions:
		return s.handleTechQuestion(ctx, input)
	case StageRetryChoice:
		return s.handleRetryChoice(ctx, input)
	case StageRephraseSkill:
		return s.handleRephraseSkill(ctx, input)
	default:
		// completed, ended, or anything unexpected: re-orient without
		// touching state.
		return s.reorient()
	}
}

func (s *Session) handleField(ctx context.Context, input string) string {
	spec := fieldSpecs[s.stage]

	if spec.hardReject != nil && spec.hardReject(input) {
		return spec.corrective
	}

	if !s.advisoryValid(ctx, spec.label, input) && !spec.validate(input) {
		return spec.corrective
	}

	spec.assign(s.record, input)
	s.stage = spec.next

	return spec.followUp(s.record.Name)
}

// advisoryValid asks the text-completion backend for a yes/no opinion
// on the field value. Any failure counts as "no"; the caller then
// falls back to the local validator, which wins ties.
func (s *Session) advisoryValid(ctx context.Context, field, value string) bool {
	if s.deps.Generator == nil {
		return false
	}

	prompt := fmt.Sprintf(
		"You are a strict data validator for a job application form. "+
			"The user entered the following for the field '%s': '%s'. "+
			"Is this a valid %s? Reply only with 'yes' or 'no'.",
		field, value, field,
	)

	callCtx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	resp, err := s.deps.Generator.Generate(callCtx, prompt)
	if err != nil {
		s.deps.Logger.Debug("advisory validation unavailable",
			zap.String("field", field),
			zap.Error(err),
		)
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(resp))
	s.deps.Logger.Debug("advisory validation opinion",
		zap.String("field", field),
		zap.String("answer", logger.TruncateForLog(answer, logPreviewLimit)),
	)

	return strings.HasPrefix(answer, "yes")
}

func (s *Session) handleTechStack(ctx context.Context, input string) string {
	skills := validate.SplitSkills(input)
	if !validate.ValidSkills(skills) {
		return "Please enter at least one valid skill in your tech stack (e.g., python, fastapi, langchain)."
	}

	questions := make([]question.Question, 0, len(skills))
	usable := 0
	for _, skill := range skills {
		q := s.deps.Questions.ForSkill(ctx, skill, s.asked)
		if q.Origin != question.OriginDegraded {
			usable++
		}
		questions = append(questions, q)
	}

	if usable == 0 {
		return "I'm having trouble generating technical questions for your tech stack. Please try again or rephrase your tech stack."
	}

	s.record.TechStack = input
	s.record.Skills = skills
	s.record.Questions = questions
	s.record.Answers = make(map[string]string, len(questions))
	s.cursor = 0

	return s.askNext(ctx)
}

func (s *Session) handleTechQuestion(ctx context.Context, input string) string {
	if s.cursor < len(s.record.Questions) {
		s.record.Answers[fmt.Sprintf("Q%d", s.cursor+1)] = input
		s.cursor++
	}

	return s.askNext(ctx)
}

// askNext emits the question at the cursor, detouring to the retry
// choice when that question is a degraded fallback, or completes the
// screening when none remain.
func (s *Session) askNext(ctx context.Context) string {
	if s.cursor >= len(s.record.Questions) {
		return s.complete(ctx)
	}

	q := s.record.Questions[s.cursor]
	if q.Origin == question.OriginDegraded {
		s.stage = StageRetryChoice
		return fmt.Sprintf(
			"I couldn't come up with a good question about '%s'. "+
				"Type 'retry' to try again, 'skip' to move on, or 'rephrase' to rename the skill.",
			q.Skill,
		)
	}

	s.stage = StageTechQuestions

	if s.cursor == 0 {
		return personalize(
			"Great, %s! Here is your technical question:\n\n"+q.Text,
			"Great! Here is your technical question:\n\n"+q.Text,
			s.record.Name,
		)
	}

	return personalize(
		"Thank you, %s! Here is your next technical question:\n\n"+q.Text,
		"Thank you! Here is your next technical question:\n\n"+q.Text,
		s.record.Name,
	)
}

func (s *Session) handleRetryChoice(ctx context.Context, input string) string {
	skill := s.record.Questions[s.cursor].Skill

	switch strings.ToLower(input) {
	case "retry":
		s.record.Questions[s.cursor] = s.deps.Questions.ForSkill(ctx, skill, s.asked)
		return s.askNext(ctx)
	case "skip":
		// The question keeps its slot but never receives an answer.
		s.cursor++
		return s.askNext(ctx)
	case "rephrase":
		s.stage = StageRephraseSkill
		return fmt.Sprintf("Please enter a new skill name to replace '%s':", skill)
	default:
		return "Invalid choice. Please type 'retry', 'skip', or 'rephrase'."
	}
}

func (s *Session) handleRephraseSkill(ctx context.Context, input string) string {
	if utf8.RuneCountInString(input) < 2 {
		return "Please enter a valid skill name."
	}

	s.record.Skills[s.cursor] = input
	s.record.Questions[s.cursor] = s.deps.Questions.ForSkill(ctx, input, s.asked)

	return s.askNext(ctx)
}

func (s *Session) complete(ctx context.Context) string {
	s.stage = StageCompleted

	if s.deps.Store != nil {
		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		err := s.deps.Store.InsertFinal(storeCtx, s.id, s.record)
		cancel()

		saved := err == nil
		s.record.Saved = &saved
		if err != nil {
			s.deps.Logger.Warn("saving candidate record", zap.Error(err))
		}
	}

	msg := "Thank you for answering all the questions! "
	if s.record.Name != "" {
		msg += s.record.Name + ", "
	}
	if s.record.Position != "" {
		msg += fmt.Sprintf("we'll be in touch regarding the %s position. ", s.record.Position)
	}
	msg += "If you have anything else to add, let me know. Otherwise, type 'exit' to finish."

	return msg
}

func (s *Session) farewell() string {
	switch {
	case s.record.Saved != nil && *s.record.Saved:
		msg := "Thank you, your answers have been saved. "
		if s.record.Name != "" {
			msg += s.record.Name + ", "
		}
		if s.record.Position != "" {
			msg += fmt.Sprintf("we'll be in touch regarding the %s position. ", s.record.Position)
		}
		return msg + "You can close the window now."
	case s.record.Saved != nil && !*s.record.Saved:
		return "There was an issue saving your information. Please try again later."
	default:
		msg := "Thank you for your time! "
		if s.record.Name != "" {
			msg += s.record.Name + ", "
		}
		if s.record.Position != "" {
			msg += fmt.Sprintf("we'll be in touch regarding the %s position. ", s.record.Position)
		}
		return msg + "Have a great day!"
	}
}

func (s *Session) reorient() string {
	msg := "I'm here to help with your screening. "
	if s.record.Name != "" {
		msg += s.record.Name + ", "
	}
	msg += "please answer the previous question or type 'exit' to finish."
	if s.record.Position != "" {
		msg += fmt.Sprintf(" (Position: %s)", s.record.Position)
	}
	return msg
}

func (s *Session) say(msg string) {
	s.transcript = append(s.transcript, Message{Role: RoleAssistant, Content: msg, Time: time.Now().UTC()})
}

// audit appends the transcript and record snapshot to the store.
// Failures here never affect the visible conversation.
func (s *Session) audit(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}

	auditCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.deps.Store.InsertAudit(auditCtx, s.id, s.transcript, s.record); err != nil {
		s.deps.Logger.Debug("audit write failed", zap.Error(err))
	}
}
