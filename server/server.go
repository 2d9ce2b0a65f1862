// Package server exposes a running VM over connect RPC and LSP. The
// interpreter core is single-threaded, so both frontends funnel VM work
// through a one-goroutine worker.
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/pwoolcoc/wren/vm"
)

// Server serves the eval service over HTTP.
type Server struct {
	worker *VMWorker
	mux    *http.ServeMux
	log    commonlog.Logger
}

// New wraps a VM in a Server. The caller keeps ownership of the VM but
// must stop touching it directly; the worker owns it from here.
func New(v *vm.VM) *Server {
	worker := NewVMWorker(v)
	mux := http.NewServeMux()

	svc := NewEvalService(worker)
	mux.Handle(EvalProcedure, connect.NewUnaryHandler(
		EvalProcedure, svc.Eval, connect.WithCodec(cborCodec{})))
	mux.Handle(SnapshotProcedure, connect.NewUnaryHandler(
		SnapshotProcedure, svc.Snapshot, connect.WithCodec(cborCodec{})))

	return &Server{
		worker: worker,
		mux:    mux,
		log:    commonlog.GetLogger("wren.server"),
	}
}

// Handler returns the HTTP handler with every procedure mounted.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts serving on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Noticef("listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the VM worker.
func (s *Server) Stop() {
	s.worker.Stop()
}
