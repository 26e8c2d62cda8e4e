package mdhavers

import "github.com/golang/glog"

// Trace-level diagnostics for the parser/evaluator/loader, distinct from
// the in-language log_blether subsystem (logging.go): this is operator-
// facing -v output, grounded directly on kati's own glog.Infof/glog.V call
// sites (glog.go), not something a .braw script can observe or configure.

func traceParse(src string) {
	if glog.V(2) {
		glog.Infof("parsing %d bytes of source", len(src))
	}
}

func traceImport(path string) {
	if glog.V(1) {
		glog.Infof("fetch: resolving %q", path)
	}
}

func traceCall(name string, sp Span) {
	if glog.V(3) {
		glog.Infof("call %s at %s", name, sp)
	}
}

func traceError(err error) {
	if glog.V(1) {
		glog.Warningf("execution error: %v", err)
	}
}
