package calls

import (
	"encoding/json"
	"time"
)

// CallRecord is one outcome attempt for a company. A company accumulates
// many records; the newest one drives the list/report views.
//
// Invariant: a record is only persisted once its StatusMarkedAt is set; the
// workflow rejects submissions without it.

type CallRecord struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`

	// UserID is the acting agent, empty for anonymous submissions.
	UserID string `json:"user_id,omitempty" db:"user_id"`

	StatusNumero StatusNumero `json:"status_numero" db:"status_numero"`

	// CallStatus is the finer disposition once the number answered.
	CallStatus CallStatus `json:"call_status,omitempty" db:"call_status"`

	PresentationLevel       Level `json:"presentation_level,omitempty" db:"presentation_level"`
	QuestionsLibresLevel    Level `json:"questions_libres_level,omitempty" db:"questions_libres_level"`
	QuestionsOrienteesLevel Level `json:"questions_orientees_level,omitempty" db:"questions_orientees_level"`

	QuestionnaireData json.RawMessage `json:"questionnaire_data,omitempty" db:"questionnaire_data"`

	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	StatusMarkedAt     *time.Time `json:"status_marked_at,omitempty" db:"status_marked_at"`
	RecordingStartedAt *time.Time `json:"recording_started_at,omitempty" db:"recording_started_at"`
	RecordingStoppedAt *time.Time `json:"recording_stopped_at,omitempty" db:"recording_stopped_at"`
}

// Recording is an audio artifact owned by exactly one call record.
type Recording struct {
	ID              string    `json:"id" db:"id"`
	CallID          string    `json:"call_id" db:"call_id"`
	Path            string    `json:"path" db:"path"`
	MimeType        string    `json:"mime_type,omitempty" db:"mime_type"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type StatusNumero string

const (
	NumeroInvalid   StatusNumero = "invalid"
	NumeroNoAnswer  StatusNumero = "no_answer"
	NumeroVoicemail StatusNumero = "voicemail"
	NumeroAnswered  StatusNumero = "answered"
)

func IsValidStatusNumero(s StatusNumero) bool {
	switch s {
	case NumeroInvalid, NumeroNoAnswer, NumeroVoicemail, NumeroAnswered:
		return true
	default:
		return false
	}
}

func StatusNumeroDisplay(s StatusNumero) string {
	switch s {
	case NumeroInvalid:
		return "Invalide"
	case NumeroNoAnswer:
		return "Ne décroche pas"
	case NumeroVoicemail:
		return "Répondeur"
	case NumeroAnswered:
		return "Décroche l'appel"
	default:
		return string(s)
	}
}

type CallStatus string

const (
	CallBadNumber      CallStatus = "bad_number"
	CallNotTransformer CallStatus = "not_transformer"
	CallCallback       CallStatus = "callback"
	CallRefused        CallStatus = "refused"
	CallAccepted       CallStatus = "accepted"
)

func IsValidCallStatus(s CallStatus) bool {
	switch s {
	case CallBadNumber, CallNotTransformer, CallCallback, CallRefused, CallAccepted:
		return true
	default:
		return false
	}
}

func CallStatusDisplay(s CallStatus) string {
	switch s {
	case CallBadNumber:
		return "Mauvais numéro"
	case CallNotTransformer:
		return "Pas transformateur"
	case CallCallback:
		return "Rappel"
	case CallRefused:
		return "Refuse le questionnaire"
	case CallAccepted:
		return "Accepte le questionnaire"
	default:
		return string(s)
	}
}

// Level is the per-questionnaire-section completion granularity.
type Level string

const (
	LevelEmpty    Level = ""
	LevelPartial  Level = "partial"
	LevelComplete Level = "complete"
)

func IsValidLevel(l Level) bool {
	switch l {
	case LevelEmpty, LevelPartial, LevelComplete:
		return true
	default:
		return false
	}
}

func LevelDisplay(l Level) string {
	switch l {
	case LevelPartial:
		return "Partiel"
	case LevelComplete:
		return "Complet"
	default:
		return ""
	}
}

// Enquete status labels, derived and never stored.
const (
	EnqueteComplet   = "Complet"
	EnquetePartiel   = "Partiel"
	EnqueteIncomplet = "Incomplet"
)

// EnqueteStatus derives the survey-completeness label: Incomplet unless the
// questionnaire was accepted; Complet only when every section is complete.
func (c CallRecord) EnqueteStatus() string {
	if c.CallStatus != CallAccepted {
		return EnqueteIncomplet
	}
	if c.PresentationLevel == LevelComplete &&
		c.QuestionsLibresLevel == LevelComplete &&
		c.QuestionsOrienteesLevel == LevelComplete {
		return EnqueteComplet
	}
	return EnquetePartiel
}

// IsComplete reports whether the record counts as a fully captured survey
// for agent scoring: accepted with every section at least started.
func (c CallRecord) IsComplete() bool {
	return c.CallStatus == CallAccepted &&
		c.PresentationLevel != LevelEmpty &&
		c.QuestionsLibresLevel != LevelEmpty &&
		c.QuestionsOrienteesLevel != LevelEmpty
}
