package usecase

import "context"

// Confirmation asks the person on the page to approve a destructive action.
// It returns true only on an explicit yes.
type Confirmation func(ctx context.Context, prompt string) bool

// Confirmed approves every prompt.
func Confirmed(context.Context, string) bool { return true }

// Declined rejects every prompt.
func Declined(context.Context, string) bool { return false }

// ConfirmIf turns an already collected answer, such as a confirm=true query flag, into a Confirmation.
func ConfirmIf(answer bool) Confirmation {
	return func(context.Context, string) bool { return answer }
}
