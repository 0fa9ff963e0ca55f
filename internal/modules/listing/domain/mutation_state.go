package domain

// MutationState tags each row with the progress of its latest mutation.
type MutationState string

const (
	MutationIdle    MutationState = "idle"
	MutationPending MutationState = "pending"
	MutationFailed  MutationState = "failed"
)
