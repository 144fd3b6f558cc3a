package therapy

// Turn roles as stored and rendered by the chat surface.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Turn is one prior exchange in the conversation, oldest first.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RiskLevel is the classified level of distress in a user message.
type RiskLevel string

const (
	RiskNormal RiskLevel = "normal"
	RiskHigh   RiskLevel = "high"
)

// VitalsContext carries the user's most recent physiological readings, used
// as an out-of-band signal alongside their words.
type VitalsContext struct {
	BP     string `json:"bp"`
	Stress int    `json:"stress"`
	SpO2   int    `json:"spo2"`
}

// CaretakerProfile is the slice of the user profile the escalation path
// reads: who to notify when risk is high.
type CaretakerProfile struct {
	CaretakerEmail string `json:"caretakerEmail"`
	CaretakerName  string `json:"caretakerName,omitempty"`
}

// Request is one classification request. All fields except History behave as
// optional; an empty UserInput produces a greeting rather than an error.
type Request struct {
	UserInput string
	History   []Turn
	VoiceMood string
	Vitals    *VitalsContext
	Language  string
	Profile   *CaretakerProfile
}

// Result is the user-facing outcome of the classify/alert/re-query pipeline.
type Result struct {
	Reply             string    `json:"reply"`
	Risk              RiskLevel `json:"riskLevel"`
	ShowCrisisOptions bool      `json:"showCrisisOptions"`
	AlertError        string    `json:"alertError,omitempty"`
}
