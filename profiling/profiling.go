// Package profiling wires github.com/pkg/profile's profile kinds behind a
// single start/stop/record surface, so the driving loop that calls
// service.StartRequests/UpdateProgress/GarbageCollect can be profiled the
// same way regardless of which profile kind an operator picked on the
// command line.
//
// Grounded on profile/profile.go's Profiler/Opt pair.
package profiling

import "github.com/pkg/profile"

// Tick is what Recorder is handed once per driving-loop iteration: a
// cheap summary of the pass that just ran, standing in for the teacher's
// gioui.org/layout.Context per-frame recorder (there is no frame loop in
// this module — see DESIGN.md for why gioui.org/x/profiling is dropped).
type Tick struct {
	RequestsStarted int
	ChainsResolved  int
	RowsReclaimed   int
}

// Profiler unifies the start/stop/record lifecycle across every profile
// kind Opt names.
type Profiler struct {
	Starter  func(p *profile.Profile)
	Stopper  func()
	Recorder func(t Tick)
}

// Start begins profiling, if this Profiler has a Starter configured.
func (p *Profiler) Start() {
	if p.Starter != nil {
		p.Stopper = profile.Start(p.Starter).Stop
	}
}

// Stop ends profiling, if it was started.
func (p *Profiler) Stop() {
	if p.Stopper != nil {
		p.Stopper()
	}
}

// Record reports one driving-loop tick, if this Profiler has a Recorder
// configured.
func (p Profiler) Record(t Tick) {
	if p.Recorder != nil {
		p.Recorder(t)
	}
}

// Opt selects which profile kind NewProfiler builds.
type Opt string

const (
	None      Opt = "none"
	CPU       Opt = "cpu"
	Memory    Opt = "mem"
	Block     Opt = "block"
	Goroutine Opt = "goroutine"
	Mutex     Opt = "mutex"
	Trace     Opt = "trace"
)

// NewProfiler builds a Profiler for o. An empty or unrecognized Opt
// returns a zero Profiler whose Start/Stop/Record are all no-ops.
func (o Opt) NewProfiler() Profiler {
	switch o {
	case CPU:
		return Profiler{Starter: profile.CPUProfile}
	case Memory:
		return Profiler{Starter: profile.MemProfile}
	case Block:
		return Profiler{Starter: profile.BlockProfile}
	case Goroutine:
		return Profiler{Starter: profile.GoroutineProfile}
	case Mutex:
		return Profiler{Starter: profile.MutexProfile}
	case Trace:
		return Profiler{Starter: profile.TraceProfile}
	default:
		return Profiler{}
	}
}
