// Package profile starts and stops runtime profiling for sxt.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o sxt .
//
// Without the tag every [Profiler] is inert and [Modes] is empty, so the
// command line hides its profiling flags.
//
// A [Profiler] names a mode and an output directory:
//
//	p := profile.Profiler{Mode: "cpu", Dir: "/tmp/sxt"}
//	defer p.Start().Stop()
//
// Profile data is written to Dir as <mode>.pprof (or trace.out) and can be
// inspected with "go tool pprof". The tagged build also registers the
// [net/http/pprof] handlers with [net/http.DefaultServeMux].
package profile

// Tag is the build tag that enables profiling.
const Tag = `pprof`

// Stopper ends a profiling session. Stop is safe to call more than once.
type Stopper interface{ Stop() }

// Profiler describes one profiling session.
type Profiler struct {
	Mode  string // one of [Modes]; empty disables profiling
	Dir   string // output directory; empty uses the working directory
	Quiet bool   // suppress the profiler's own log output
}

// Start begins profiling and returns the [Stopper] that ends it. A
// Profiler with an unknown or empty Mode returns a no-op Stopper.
func (p Profiler) Start() Stopper {
	if p.Mode == "" || !Supported(p.Mode) {
		return nop{}
	}

	return start(p)
}

// Supported reports whether mode is one of [Modes].
func Supported(mode string) bool {
	for _, m := range Modes() {
		if m == mode {
			return true
		}
	}

	return false
}

type nop struct{}

func (nop) Stop() {}
