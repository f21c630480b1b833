package recovery

import "fmt"

// StrictStrategy fails the whole run on the first stage error. It is the
// pipeline default: callers get either a fully processed image or the
// original plus an error, nothing in between.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnStageError(stage string, err error) Action {
	return ActionFail
}

// LenientStrategy skips failing stages and keeps going, accumulating the
// errors for inspection afterwards. Useful for batch runs where a misconfigured
// stage should not sink whole documents.
type LenientStrategy struct {
	Errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnStageError(stage string, err error) Action {
	s.Errors = append(s.Errors, fmt.Errorf("stage %s: %w", stage, err))
	return ActionWarn
}
