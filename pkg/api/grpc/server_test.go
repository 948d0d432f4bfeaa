package grpcapi

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/store"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

const testRuleSet = `
id: mini
title: character.name
stats:
  - id: character
    rows:
      - columns:
          - id: name
            editable: true
  - id: abilities
    rows:
      - columns:
          - id: str
            editable: true
          - id: str_mod
            formula: "{abilities.str} - 10"
`

func startTestServer(t *testing.T) (string, *store.Store, func()) {
	t.Helper()
	s := store.New()
	rs, err := ruleset.Parse([]byte(testRuleSet))
	if err != nil {
		t.Fatalf("parse rule set: %v", err)
	}
	if err := s.AddRuleSet(rs); err != nil {
		t.Fatalf("add rule set: %v", err)
	}
	srv := New(s, WithDiceSource(func() dice.Source { return dice.Sequence(4, 5, 6) }))

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	return lis.Addr().String(), s, func() {
		srv.grpc.Stop()
	}
}

func dial(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestEvaluate(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()
	client := NewClient(conn)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       map[string]interface{}
		wantValue interface{}
		wantErr   bool
	}{
		{"arithmetic", map[string]interface{}{"formula": "(1 + 2) * 3"}, 9.0, false},
		{"attributes", map[string]interface{}{"formula": "{x} + 1", "attrs": map[string]interface{}{"x": 41}}, 42.0, false},
		{"roll", map[string]interface{}{"formula": "2d6 + 3", "roll": true}, 12.0, false},
		{"zero division", map[string]interface{}{"formula": "1 / 0"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Evaluate(ctx, mustStruct(t, tt.req))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			got := resp.AsMap()
			if got["value"] != tt.wantValue {
				t.Errorf("value = %v, want %v", got["value"], tt.wantValue)
			}
			if _, hasErr := got["error"]; hasErr != tt.wantErr {
				t.Errorf("error present = %v, want %v (%v)", hasErr, tt.wantErr, got)
			}
		})
	}
}

func TestEvaluateMissingFormula(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	_, err := NewClient(conn).Evaluate(context.Background(), mustStruct(t, map[string]interface{}{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestComputeSheet(t *testing.T) {
	addr, s, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()
	client := NewClient(conn)
	ctx := context.Background()

	attrs := types.NewAttributes()
	attrs.Set("character.name", types.NewString("Aria"))
	attrs.Set("abilities.str", types.NewInt(15))
	ch, err := s.CreateCharacter("mini", attrs)
	if err != nil {
		t.Fatalf("create character: %v", err)
	}

	tests := []struct {
		name string
		req  map[string]interface{}
	}{
		{"stored character", map[string]interface{}{"character": ch.ID}},
		{"rule set and attrs", map[string]interface{}{
			"rule_set": "mini",
			"attrs":    map[string]interface{}{"character.name": "Aria", "abilities.str": 15},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.ComputeSheet(ctx, mustStruct(t, tt.req))
			if err != nil {
				t.Fatalf("ComputeSheet: %v", err)
			}
			got := resp.AsMap()
			if got["title"] != "Aria" {
				t.Errorf("title = %v", got["title"])
			}
			tables := got["tables"].([]interface{})
			row := tables[1].(map[string]interface{})["rows"].([]interface{})[0].(map[string]interface{})
			mod := row["columns"].([]interface{})[1].(map[string]interface{})
			if mod["id"] != "abilities.str_mod" || mod["value"] != 5.0 {
				t.Errorf("str_mod cell = %v", mod)
			}
		})
	}
}

func TestComputeSheetErrors(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()
	client := NewClient(conn)

	tests := []struct {
		name string
		req  map[string]interface{}
		want codes.Code
	}{
		{"nothing named", map[string]interface{}{}, codes.InvalidArgument},
		{"unknown character", map[string]interface{}{"character": "nope"}, codes.NotFound},
		{"unknown rule set", map[string]interface{}{"rule_set": "nope"}, codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ComputeSheet(context.Background(), mustStruct(t, tt.req))
			if status.Code(err) != tt.want {
				t.Errorf("code = %v, want %v (%v)", status.Code(err), tt.want, err)
			}
		})
	}
}

func TestFormatMessage(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()
	client := NewClient(conn)
	ctx := context.Background()

	resp, err := client.FormatMessage(ctx, mustStruct(t, map[string]interface{}{"text": "Hit 2d6+3!"}))
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}
	got := resp.AsMap()
	if got["plain"] != "Hit 2d6+3 = ( 4 + 5 ) + 3 = 12!" {
		t.Errorf("plain = %v", got["plain"])
	}
	if got["mode"] != "additive" {
		t.Errorf("mode = %v", got["mode"])
	}

	resp, err = client.FormatMessage(ctx, mustStruct(t, map[string]interface{}{"text": "pool 1a", "mode": "eote"}))
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}
	if segments := resp.AsMap()["segments"].([]interface{}); len(segments) != 2 {
		t.Errorf("segments = %v", segments)
	}

	_, err = client.FormatMessage(ctx, mustStruct(t, map[string]interface{}{"text": "x", "mode": "gurps"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
