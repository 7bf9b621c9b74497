package domain

type InvitationStatus string

const (
	InvitationStatusSent   InvitationStatus = "sent"
	InvitationStatusFailed InvitationStatus = "failed"
)

// InvitationOutcome is the per-record result of a wave invitation batch
type InvitationOutcome struct {
	Email  string           `json:"email"`
	Status InvitationStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// WaveReport summarizes one SendWaveInvitations call. Failed records keep
// invited_at null and are picked up again by the next call.
type WaveReport struct {
	Wave    string              `json:"wave"`
	Count   int                 `json:"count"`
	Sent    int                 `json:"sent"`
	Failed  int                 `json:"failed"`
	Results []InvitationOutcome `json:"results"`
	Message string              `json:"message,omitempty"`
}
