// Package question produces one screening question per declared skill,
// either through the configured text generator or from a static bank.
package question

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/talentscout/intake/internal/logger"
)

// Origin tags where a question came from.
type Origin string

const (
	// OriginGenerated marks a question produced by the text generator.
	OriginGenerated Origin = "generated"
	// OriginBank marks a canned question from the local bank.
	OriginBank Origin = "bank"
	// OriginDegraded marks the generic last-resort question used when
	// neither generation nor the bank could serve the skill.
	OriginDegraded Origin = "degraded"
)

// Question is one screening question tied to the skill it was asked for.
type Question struct {
	Text   string `json:"text"`
	Skill  string `json:"skill"`
	Origin Origin `json:"origin"`
}

type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	maxAttempts      = 3
	minQuestionRunes = 5
	defaultTimeout   = 15 * time.Second
	logPreviewLimit  = 200
)

// Source produces questions for skills. It never fails: all generator
// errors, timeouts and duplicates fall through to the bank and finally
// to a degraded generic question.
type Source struct {
	generator textGenerator
	timeout   time.Duration
	log       *zap.Logger
}

// NewSource builds a question source. generator may be nil, in which
// case every question comes from the bank or the degraded fallback.
func NewSource(generator textGenerator, timeout time.Duration, log *zap.Logger) *Source {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Source{generator: generator, timeout: timeout, log: log}
}

// ForSkill returns one question for the skill. asked collects question
// texts already used in this session; a generated question is only
// accepted if it is not present there, and accepted texts are added.
func (s *Source) ForSkill(ctx context.Context, skill string, asked map[string]struct{}) Question {
	if asked == nil {
		asked = make(map[string]struct{})
	}

	if text, ok := s.generate(ctx, skill, asked); ok {
		asked[text] = struct{}{}
		return Question{Text: text, Skill: skill, Origin: OriginGenerated}
	}

	if canned, ok := bank[strings.ToLower(skill)]; ok {
		s.log.Debug("using bank question", zap.String("skill", skill))
		asked[canned] = struct{}{}
		return Question{Text: canned, Skill: skill, Origin: OriginBank}
	}

	s.log.Debug("using degraded question", zap.String("skill", skill))

	return Question{
		Text:   fmt.Sprintf("What is your experience with %s? Describe briefly.", skill),
		Skill:  skill,
		Origin: OriginDegraded,
	}
}

// ForSkills maps every skill to a question in order, sharing one
// asked-set so generated questions stay unique across the batch.
func (s *Source) ForSkills(ctx context.Context, skills []string) []Question {
	asked := make(map[string]struct{}, len(skills))
	questions := make([]Question, 0, len(skills))
	for _, skill := range skills {
		questions = append(questions, s.ForSkill(ctx, skill, asked))
	}
	return questions
}

func (s *Source) generate(ctx context.Context, skill string, asked map[string]struct{}) (string, bool) {
	if s.generator == nil {
		return "", false
	}

	prompt := buildPrompt(skill)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		genCtx, cancel := context.WithTimeout(ctx, s.timeout)
		raw, err := s.generator.Generate(genCtx, prompt)
		cancel()

		if err != nil {
			s.log.Debug("question generation failed",
				zap.String("skill", skill),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		text := strings.TrimSpace(raw)
		if utf8.RuneCountInString(text) <= minQuestionRunes {
			s.log.Debug("generated question too short",
				zap.String("skill", skill),
				zap.Int("attempt", attempt),
			)
			continue
		}

		if _, dup := asked[text]; dup {
			s.log.Debug("duplicate question, regenerating",
				zap.String("skill", skill),
				zap.Int("attempt", attempt),
				zap.String("question_preview", logger.TruncateForLog(text, logPreviewLimit)),
			)
			continue
		}

		return text, true
	}

	return "", false
}

func buildPrompt(skill string) string {
	return fmt.Sprintf(
		"You are an AI hiring assistant. Generate a technical interview question for a BEGINNER about the following skill: %s. "+
			"The question must be specific to %s and NOT about any other skill. "+
			"Return only the question, do not number it.",
		skill, skill,
	)
}
