package flow

import "fmt"

// EmptyResponseError is returned when a completion step produced no text
// after trimming. It is fatal for the current run.
type EmptyResponseError struct {
	Step int // 1-based step index
}

func (e *EmptyResponseError) Error() string { return "empty response received" }

// DuplicateResponseError is returned when two consecutive steps produced
// identical text. It guards against non-terminating loops where the model
// repeats itself.
type DuplicateResponseError struct {
	Step int // 1-based step index
}

func (e *DuplicateResponseError) Error() string { return "duplicate response received" }

// StepBudgetExceededError is returned when the function loop exhausted its
// step budget without a final-result invocation.
type StepBudgetExceededError struct {
	MaxSteps int
}

func (e *StepBudgetExceededError) Error() string {
	return fmt.Sprintf("max %d steps allowed", e.MaxSteps)
}

// SyntaxRepairExhaustedError is returned when the output-repair loop failed
// to obtain decodable structured output within its attempt budget.
type SyntaxRepairExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *SyntaxRepairExhaustedError) Error() string { return "unable to fix result syntax" }

// Unwrap exposes the last decode failure for errors.Is/As.
func (e *SyntaxRepairExhaustedError) Unwrap() error { return e.LastErr }
