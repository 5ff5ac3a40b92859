package runner

// State is the orchestrator's position in the benchmark tree.
type State int32

const (
	Idle State = iota
	RunningBenchmark
	RunningScenario
	RunningCase
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RunningBenchmark:
		return "running-benchmark"
	case RunningScenario:
		return "running-scenario"
	case RunningCase:
		return "running-case"
	}
	return "unknown"
}
