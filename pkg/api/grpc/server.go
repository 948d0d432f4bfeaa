// Package grpcapi implements the engine's gRPC service. Messages are
// google.protobuf.Struct documents carrying the same JSON shapes as the HTTP
// API, so any gRPC client can call it without generated stubs.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/formula"
	"github.com/lemonberrylabs/webrpg-engine/pkg/metrics"
	"github.com/lemonberrylabs/webrpg-engine/pkg/sheet"
	"github.com/lemonberrylabs/webrpg-engine/pkg/store"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "webrpg.v1.Engine"

// EngineServer is the server API for the Engine service.
type EngineServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeSheet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FormatMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var engineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler("Evaluate", EngineServer.Evaluate)},
		{MethodName: "ComputeSheet", Handler: unaryHandler("ComputeSheet", EngineServer.ComputeSheet)},
		{MethodName: "FormatMessage", Handler: unaryHandler("FormatMessage", EngineServer.FormatMessage)},
	},
	Metadata: "webrpg/v1/engine.proto",
}

func unaryHandler(method string, call func(EngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterEngineServer registers impl on s.
func RegisterEngineServer(s grpc.ServiceRegistrar, impl EngineServer) {
	s.RegisterService(&engineServiceDesc, impl)
}

// Server implements the Engine gRPC service.
type Server struct {
	store       *store.Store
	metrics     *metrics.Metrics
	defaultMode chat.Mode
	newSource   func() dice.Source
	grpc        *grpc.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records calls in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithDefaultMode sets the dice mode of FormatMessage calls that name none.
func WithDefaultMode(mode chat.Mode) Option {
	return func(s *Server) { s.defaultMode = mode }
}

// WithDiceSource sets the factory for the per-call random source.
func WithDiceSource(newSource func() dice.Source) Option {
	return func(s *Server) { s.newSource = newSource }
}

// New creates a new gRPC server wrapping the given store.
func New(st *store.Store, opts ...Option) *Server {
	srv := &Server{
		store:       st,
		defaultMode: chat.ModeAdditive,
		newSource:   dice.Fresh,
	}
	for _, opt := range opts {
		opt(srv)
	}

	gs := grpc.NewServer()
	RegisterEngineServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// --- Engine Service ---

type evaluateRequest struct {
	Formula string           `json:"formula"`
	Attrs   types.Attributes `json:"attrs"`
	Roll    bool             `json:"roll"`
	Seed    *int64           `json:"seed"`
}

// Evaluate calculates a formula against attrs, or rolls it when roll is set.
// A calculation failure is reported in the response, not as a gRPC error.
func (s *Server) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Formula) == "" {
		return nil, status.Error(codes.InvalidArgument, "formula is required")
	}

	resp := map[string]interface{}{}
	var (
		value types.Value
		err   error
	)
	if req.Roll {
		var rolled formula.Rolled
		rolled, err = formula.Roll(req.Formula, s.source(req.Seed))
		value = rolled.Total
		resp["rolled"] = formula.Join(rolled.Tokens)
	} else {
		value, err = formula.Evaluate(req.Formula, req.Attrs)
	}
	s.metrics.ObserveEvaluation(err)

	resp["value"] = value
	if err != nil {
		resp["value"] = types.Null
		resp["error"] = err.Error()
		var calcErr *types.CalculationError
		if errors.As(err, &calcErr) {
			resp["tags"] = calcErr.Tags
		}
	}
	return toStruct(resp)
}

type computeSheetRequest struct {
	Character string           `json:"character"`
	RuleSet   string           `json:"rule_set"`
	Attrs     types.Attributes `json:"attrs"`
}

// ComputeSheet computes the sheet of a stored character, or of rule_set and
// attrs when no character is named.
func (s *Server) ComputeSheet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req computeSheetRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	ruleSetID, attrs := req.RuleSet, req.Attrs
	if req.Character != "" {
		ch, err := s.store.GetCharacter(req.Character)
		if err != nil {
			return nil, storeError(err)
		}
		ruleSetID, attrs = ch.RuleSet, ch.Attrs
	}
	if ruleSetID == "" {
		return nil, status.Error(codes.InvalidArgument, "character or rule_set is required")
	}

	rs, err := s.store.GetRuleSet(ruleSetID)
	if err != nil {
		return nil, storeError(err)
	}
	computed, err := sheet.NewEngine(sheet.WithLogger(log.Default())).Compute(rs, attrs)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.metrics.ObserveSheet()

	return toStruct(computed)
}

type formatMessageRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
	Seed *int64 `json:"seed"`
}

// FormatMessage rolls the dice expressions in a chat message.
func (s *Server) FormatMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req formatMessageRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	mode := s.defaultMode
	if req.Mode != "" {
		m, err := chat.ParseMode(req.Mode)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		mode = m
	}

	segments := chat.NewFormatter(s.source(req.Seed)).Format(req.Text, mode)
	s.metrics.ObserveMessage(mode)

	return toStruct(map[string]interface{}{
		"mode":     mode,
		"segments": segments,
		"plain":    chat.PlainText(segments),
		"html":     chat.RenderHTML(segments),
	})
}

// --- Helpers ---

func (s *Server) source(seed *int64) dice.Source {
	if seed != nil {
		return dice.NewSeeded(*seed)
	}
	return s.newSource()
}

// fromStruct decodes a Struct into target through its JSON form.
func fromStruct(in *structpb.Struct, target interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// toStruct encodes v as a Struct through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
