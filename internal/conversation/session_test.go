package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/intake/internal/question"
)

type advisoryStub struct {
	reply string
	err   error
	calls int
}

func (a *advisoryStub) Generate(_ context.Context, _ string) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

// fakeQuestions returns a generated question per skill, except for
// skills listed as degraded.
type fakeQuestions struct {
	degraded map[string]bool
	calls    int
}

func (f *fakeQuestions) ForSkill(_ context.Context, skill string, asked map[string]struct{}) question.Question {
	f.calls++
	if f.degraded[strings.ToLower(skill)] {
		return question.Question{
			Text:   fmt.Sprintf("What is your experience with %s? Describe briefly.", skill),
			Skill:  skill,
			Origin: question.OriginDegraded,
		}
	}

	text := fmt.Sprintf("Generated question %d about %s?", f.calls, skill)
	if asked != nil {
		asked[text] = struct{}{}
	}
	return question.Question{Text: text, Skill: skill, Origin: question.OriginGenerated}
}

type memStore struct {
	audits    int
	finals    []*Record
	failFinal bool
}

func (m *memStore) InsertAudit(_ context.Context, _ string, _ []Message, _ *Record) error {
	m.audits++
	return nil
}

func (m *memStore) InsertFinal(_ context.Context, _ string, record *Record) error {
	if m.failFinal {
		return errors.New("store unreachable")
	}
	m.finals = append(m.finals, record)
	return nil
}

func newTestSession(deps Deps) *Session {
	if deps.Questions == nil {
		deps.Questions = &fakeQuestions{}
	}
	sess := New("test-session", deps)
	sess.Greeting()
	return sess
}

// advance feeds the inputs in order, returning the last reply.
func advance(t *testing.T, sess *Session, inputs ...string) string {
	t.Helper()
	var reply string
	for _, input := range inputs {
		reply = sess.Consume(context.Background(), input)
	}
	return reply
}

// intakeAnswers walks the session from name up to tech_stack.
var intakeAnswers = []string{
	"John Smith",
	"john@example.com",
	"123 456 7890",
	"5",
	"Backend Engineer",
	"Berlin, Germany",
}

func TestNameAccepted(t *testing.T) {
	sess := newTestSession(Deps{})

	reply := advance(t, sess, "John Smith")

	require.Equal(t, StageEmail, sess.Stage())
	assert.Equal(t, "John Smith", sess.Record().Name)
	assert.Contains(t, reply, "John Smith")
	assert.Contains(t, reply, "email")
}

func TestInvalidEmailRepromptsInPlace(t *testing.T) {
	sess := newTestSession(Deps{})
	advance(t, sess, "John Smith")

	reply := advance(t, sess, "not-an-email")

	require.Equal(t, StageEmail, sess.Stage())
	assert.Empty(t, sess.Record().Email)
	assert.Contains(t, reply, "valid email address")
}

func TestTechStackGeneratesOneQuestionPerSkill(t *testing.T) {
	questions := &fakeQuestions{}
	sess := newTestSession(Deps{Questions: questions})
	advance(t, sess, intakeAnswers...)
	require.Equal(t, StageTechStack, sess.Stage())

	reply := advance(t, sess, "Python, Docker")

	require.Equal(t, StageTechQuestions, sess.Stage())
	require.Equal(t, []string{"Python", "Docker"}, sess.Record().Skills)
	require.Len(t, sess.Record().Questions, 2)
	assert.Equal(t, "Python", sess.Record().Questions[0].Skill)
	assert.Contains(t, reply, sess.Record().Questions[0].Text)
}

func TestInvalidTechStackRejected(t *testing.T) {
	sess := newTestSession(Deps{})
	advance(t, sess, intakeAnswers...)

	reply := advance(t, sess, "a, bb")

	require.Equal(t, StageTechStack, sess.Stage())
	assert.Empty(t, sess.Record().Skills)
	assert.Contains(t, reply, "at least one valid skill")
}

func TestExitAnywhere(t *testing.T) {
	for _, token := range []string{"exit", "QUIT", "Goodbye", "bye"} {
		t.Run(token, func(t *testing.T) {
			sess := newTestSession(Deps{})
			advance(t, sess, "John Smith")

			reply := advance(t, sess, token)

			require.Equal(t, StageEnded, sess.Stage())
			assert.Contains(t, reply, "Thank you for your time")
		})
	}
}

func TestFarewellReflectsPersistenceStatus(t *testing.T) {
	saved := true
	failed := false

	cases := []struct {
		name   string
		status *bool
		want   string
	}{
		{"unset", nil, "Thank you for your time"},
		{"success", &saved, "your answers have been saved"},
		{"failure", &failed, "issue saving your information"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := newTestSession(Deps{})
			sess.record.Saved = tc.status

			reply := advance(t, sess, "exit")

			require.Equal(t, StageEnded, sess.Stage())
			assert.Contains(t, reply, tc.want)
		})
	}
}

func TestSameInputSameTransition(t *testing.T) {
	first := newTestSession(Deps{})
	second := newTestSession(Deps{})

	advance(t, first, "John Smith")
	advance(t, second, "John Smith")

	assert.Equal(t, first.Stage(), second.Stage())
	assert.Equal(t, first.Record().Name, second.Record().Name)
}

func TestAdvisoryNoOverriddenByLocalValidator(t *testing.T) {
	advisory := &advisoryStub{reply: "no"}
	sess := newTestSession(Deps{Generator: advisory})

	advance(t, sess, "John Smith")

	require.Equal(t, StageEmail, sess.Stage())
	assert.Equal(t, "John Smith", sess.Record().Name)
	assert.Equal(t, 1, advisory.calls)
}

func TestAdvisoryYesAcceptsWithoutLocalValidator(t *testing.T) {
	advisory := &advisoryStub{reply: "Yes, this is valid."}
	sess := newTestSession(Deps{Generator: advisory})

	// A single token fails the local name check; the advisory opinion
	// carries it.
	advance(t, sess, "Cher")

	require.Equal(t, StageEmail, sess.Stage())
	assert.Equal(t, "Cher", sess.Record().Name)
}

func TestAdvisoryErrorFallsBackToLocalValidator(t *testing.T) {
	advisory := &advisoryStub{err: errors.New("backend down")}
	sess := newTestSession(Deps{Generator: advisory})

	advance(t, sess, "John Smith")
	require.Equal(t, StageEmail, sess.Stage())

	reply := advance(t, sess, "not-an-email")
	require.Equal(t, StageEmail, sess.Stage())
	assert.Contains(t, reply, "valid email address")
}

func TestPhoneWithLettersRejectedDespiteAdvisoryYes(t *testing.T) {
	advisory := &advisoryStub{reply: "yes"}
	sess := newTestSession(Deps{Generator: advisory})
	advance(t, sess, "John Smith", "john@example.com")
	require.Equal(t, StagePhone, sess.Stage())
	callsBefore := advisory.calls

	reply := advance(t, sess, "call me 1234567")

	require.Equal(t, StagePhone, sess.Stage())
	assert.Contains(t, reply, "digits only")
	assert.Equal(t, callsBefore, advisory.calls, "letters must be rejected before the advisory call")
}

func TestFullFlowPersistsAndAudits(t *testing.T) {
	st := &memStore{}
	questions := &fakeQuestions{}
	sess := newTestSession(Deps{Questions: questions, Store: st})

	advance(t, sess, intakeAnswers...)
	advance(t, sess, "Go, Docker")
	require.Equal(t, StageTechQuestions, sess.Stage())

	advance(t, sess, "Goroutines are lightweight threads.")
	reply := advance(t, sess, "Containers share the host kernel.")

	require.Equal(t, StageCompleted, sess.Stage())
	assert.Contains(t, reply, "John Smith")
	assert.Contains(t, reply, "Backend Engineer")

	record := sess.Record()
	require.Len(t, record.Questions, len(record.Skills))
	assert.Equal(t, "Goroutines are lightweight threads.", record.Answers["Q1"])
	assert.Equal(t, "Containers share the host kernel.", record.Answers["Q2"])
	assert.LessOrEqual(t, len(record.Answers), len(record.Questions))

	require.NotNil(t, record.Saved)
	assert.True(t, *record.Saved)
	require.Len(t, st.finals, 1)

	// One audit write per consumed turn.
	assert.Equal(t, len(intakeAnswers)+3, st.audits)

	farewell := advance(t, sess, "exit")
	assert.Contains(t, farewell, "your answers have been saved")
	assert.Contains(t, farewell, "Backend Engineer")
}

func TestPersistenceFailureSoftensFarewell(t *testing.T) {
	st := &memStore{failFinal: true}
	sess := newTestSession(Deps{Store: st})

	advance(t, sess, intakeAnswers...)
	advance(t, sess, "Go")
	reply := advance(t, sess, "An answer about Go.")

	require.Equal(t, StageCompleted, sess.Stage())
	// Completion message stays friendly; the failure shows at exit.
	assert.NotContains(t, reply, "issue")
	require.NotNil(t, sess.Record().Saved)
	assert.False(t, *sess.Record().Saved)

	farewell := advance(t, sess, "exit")
	assert.Contains(t, farewell, "issue saving your information")
}

func TestDegradedQuestionDetoursToRetryChoice(t *testing.T) {
	questions := &fakeQuestions{degraded: map[string]bool{"obscuretool": true}}
	sess := newTestSession(Deps{Questions: questions})

	advance(t, sess, intakeAnswers...)
	advance(t, sess, "Python, ObscureTool")
	require.Equal(t, StageTechQuestions, sess.Stage())

	reply := advance(t, sess, "An answer about Python.")

	require.Equal(t, StageRetryChoice, sess.Stage())
	assert.Contains(t, reply, "ObscureTool")

	reply = advance(t, sess, "whatever")
	require.Equal(t, StageRetryChoice, sess.Stage())
	assert.Contains(t, reply, "Invalid choice")

	// Retry still degraded, so the detour repeats.
	advance(t, sess, "retry")
	require.Equal(t, StageRetryChoice, sess.Stage())

	advance(t, sess, "skip")
	require.Equal(t, StageCompleted, sess.Stage())

	record := sess.Record()
	require.Len(t, record.Questions, 2)
	_, answered := record.Answers["Q2"]
	assert.False(t, answered, "skipped question must stay unanswered")
	assert.LessOrEqual(t, len(record.Answers), len(record.Questions))
}

func TestRephraseSkillRegeneratesQuestion(t *testing.T) {
	questions := &fakeQuestions{degraded: map[string]bool{"obscuretool": true}}
	sess := newTestSession(Deps{Questions: questions})

	advance(t, sess, intakeAnswers...)
	advance(t, sess, "Python, ObscureTool")
	advance(t, sess, "An answer about Python.")
	require.Equal(t, StageRetryChoice, sess.Stage())

	reply := advance(t, sess, "rephrase")
	require.Equal(t, StageRephraseSkill, sess.Stage())
	assert.Contains(t, reply, "ObscureTool")

	reply = advance(t, sess, "x")
	require.Equal(t, StageRephraseSkill, sess.Stage())
	assert.Contains(t, reply, "valid skill name")

	reply = advance(t, sess, "Docker")
	require.Equal(t, StageTechQuestions, sess.Stage())
	assert.Equal(t, "Docker", sess.Record().Skills[1])
	assert.Equal(t, "Docker", sess.Record().Questions[1].Skill)
	assert.Contains(t, reply, sess.Record().Questions[1].Text)
}

func TestAllDegradedRepromptsTechStack(t *testing.T) {
	questions := &fakeQuestions{degraded: map[string]bool{"aa": true, "bb": true}}
	sess := newTestSession(Deps{Questions: questions})

	advance(t, sess, intakeAnswers...)
	reply := advance(t, sess, "aa, bb")

	require.Equal(t, StageTechStack, sess.Stage())
	assert.Empty(t, sess.Record().Skills)
	assert.Contains(t, reply, "rephrase your tech stack")
}

func TestReorientAfterCompletion(t *testing.T) {
	sess := newTestSession(Deps{})
	advance(t, sess, intakeAnswers...)
	advance(t, sess, "Go")
	advance(t, sess, "An answer about Go.")
	require.Equal(t, StageCompleted, sess.Stage())

	reply := advance(t, sess, "anything else")

	require.Equal(t, StageCompleted, sess.Stage())
	assert.Contains(t, reply, "John Smith")
	assert.Contains(t, reply, "type 'exit'")
}
