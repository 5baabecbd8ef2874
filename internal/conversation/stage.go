package conversation

// Stage is the current named step of the fixed intake sequence.
type Stage string

const (
	StageGreeting      Stage = "greeting"
	StageName          Stage = "name"
	StageEmail         Stage = "email"
	StagePhone         Stage = "phone"
	StageExperience    Stage = "experience"
	StagePosition      Stage = "position"
	StageLocation      Stage = "location"
	StageTechStack     Stage = "tech_stack"
	StageTechQuestions Stage = "tech_questions"
	StageRetryChoice   Stage = "retry_choice"
	StageRephraseSkill Stage = "rephrase_skill"
	StageCompleted     Stage = "completed"
	StageEnded         Stage = "ended"
)
