package operations

// Step identifiers, in execution order
const (
	StepIDLoad     = "load"
	StepIDValidate = "validate"
	StepIDFill     = "fill"
	StepIDExport   = "export"
)

// Step names
const (
	StepNameLoad     = "Load Raw Data"
	StepNameValidate = "Validate Trading Window"
	StepNameFill     = "Fill Minute Grid"
	StepNameExport   = "Export Processed Data"
)

// StepOrder lists every step an instrument goes through
var StepOrder = []struct{ ID, Name string }{
	{StepIDLoad, StepNameLoad},
	{StepIDValidate, StepNameValidate},
	{StepIDFill, StepNameFill},
	{StepIDExport, StepNameExport},
}

// ExecutionMode defines how instruments are scheduled
type ExecutionMode string

const (
	ExecutionModeSequential ExecutionMode = "sequential"
	ExecutionModeParallel   ExecutionMode = "parallel"
)

// Options controls batch execution
type Options struct {
	// Parallelism is the number of instruments processed at once; values below 1 mean 1
	Parallelism int
	// FailFast stops scheduling new instruments after the first failure
	FailFast bool
}

// Mode returns the execution mode implied by Parallelism
func (o Options) Mode() ExecutionMode {
	if o.Parallelism > 1 {
		return ExecutionModeParallel
	}
	return ExecutionModeSequential
}

func (o Options) limit() int {
	if o.Parallelism < 1 {
		return 1
	}
	return o.Parallelism
}
