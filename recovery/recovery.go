package recovery

// Strategy decides how a pipeline run reacts when one of its stages fails.
// Strategies see only structural failures (bad geometry, bad options);
// numeric edge cases are absorbed inside the stages and never reach here.
type Strategy interface {
	OnStageError(stage string, err error) Action
}

// Action is a strategy's verdict for a failed stage.
type Action int

const (
	// ActionFail aborts the run. The pipeline returns the untouched input
	// image alongside the error, never a partially processed one.
	ActionFail Action = iota
	// ActionSkip drops the failing stage and continues with the output of
	// the last successful stage.
	ActionSkip
	// ActionWarn behaves like ActionSkip but asks the pipeline to log the
	// error at warning level.
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionWarn:
		return "warn"
	default:
		return "unknown"
	}
}
