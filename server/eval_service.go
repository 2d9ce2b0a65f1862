package server

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/pwoolcoc/wren/vm"
)

// Procedure paths for the eval service. There is no generated service
// descriptor; handlers and clients agree on these constants and on the
// CBOR message shapes below.
const (
	EvalProcedure     = "/wren.v1.EvalService/Eval"
	SnapshotProcedure = "/wren.v1.EvalService/Snapshot"
)

// EvalRequest asks the server to run a chunk of source.
type EvalRequest struct {
	Source string `cbor:"1,keyasint"`
}

// EvalResponse carries the debug form of the resulting value, or the
// compile or runtime error. Runtime failures are part of the service's
// domain, so they travel in-band rather than as transport errors.
type EvalResponse struct {
	RequestID string `cbor:"1,keyasint"`
	Value     string `cbor:"2,keyasint,omitempty"`
	Error     string `cbor:"3,keyasint,omitempty"`
}

// SnapshotRequest asks for an image of the VM's current state.
type SnapshotRequest struct{}

// SnapshotResponse carries the marshaled image.
type SnapshotResponse struct {
	RequestID string `cbor:"1,keyasint"`
	Image     []byte `cbor:"2,keyasint,omitempty"`
	Error     string `cbor:"3,keyasint,omitempty"`
}

// EvalService runs source on the VM and snapshots its state. All VM
// access goes through the worker.
type EvalService struct {
	worker *VMWorker
	log    commonlog.Logger
}

// NewEvalService creates an EvalService on top of a worker.
func NewEvalService(worker *VMWorker) *EvalService {
	return &EvalService{
		worker: worker,
		log:    commonlog.GetLogger("wren.server.eval"),
	}
}

// Eval compiles and runs the request source, returning the value of its
// last expression.
func (s *EvalService) Eval(
	ctx context.Context,
	req *connect.Request[EvalRequest],
) (*connect.Response[EvalResponse], error) {
	if req.Msg.Source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("source is required"))
	}

	id := uuid.NewString()
	s.log.Debugf("eval %s: %d bytes of source", id, len(req.Msg.Source))

	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		value, err := v.Interpret("eval", req.Msg.Source)
		if err != nil {
			return &EvalResponse{RequestID: id, Error: err.Error()}
		}
		return &EvalResponse{RequestID: id, Value: value.Debug()}
	})
	if err != nil {
		s.log.Errorf("eval %s: %v", id, err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := result.(*EvalResponse)
	if resp.Error != "" {
		s.log.Debugf("eval %s failed: %s", id, resp.Error)
	}
	return connect.NewResponse(resp), nil
}

// Snapshot captures the VM state as a CBOR image.
func (s *EvalService) Snapshot(
	ctx context.Context,
	req *connect.Request[SnapshotRequest],
) (*connect.Response[SnapshotResponse], error) {
	id := uuid.NewString()

	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		img, err := v.CaptureImage()
		if err != nil {
			return &SnapshotResponse{RequestID: id, Error: err.Error()}
		}
		data, err := img.Marshal()
		if err != nil {
			return &SnapshotResponse{RequestID: id, Error: err.Error()}
		}
		return &SnapshotResponse{RequestID: id, Image: data}
	})
	if err != nil {
		s.log.Errorf("snapshot %s: %v", id, err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := result.(*SnapshotResponse)
	s.log.Debugf("snapshot %s: %d bytes", id, len(resp.Image))
	return connect.NewResponse(resp), nil
}
