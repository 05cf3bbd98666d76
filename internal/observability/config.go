// Package observability wires opt-in diagnostic endpoints into the demo
// host. It never runs by default: enabling it always requires an explicit
// Config.EnablePprofTrace.
package observability

import (
	"net/http"
	"net/http/pprof"
)

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	EnablePprofTrace bool
}

// Register mounts pprof's standard handlers under /debug/pprof on mux when
// cfg.EnablePprofTrace is set. A no-op otherwise, so a production demo
// host never exposes profiling unless explicitly asked to.
func Register(mux *http.ServeMux, cfg Config) {
	if !cfg.EnablePprofTrace {
		return
	}
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
