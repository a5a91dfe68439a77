package codec

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"

	"github.com/sysid/agentmesh/trace"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	raw, err := Encode("PingControl", PingControl{Identity: "agent-1"})
	assert.Nil(err)

	typeName, v, err := Decode(raw)
	assert.Nil(err)
	assert.Equal("PingControl", typeName)
	ping, ok := v.(*PingControl)
	assert.True(ok)
	assert.Equal("agent-1", ping.Identity)
}

func TestDecodeUnknownType(t *testing.T) {
	assert := tdd.New(t)
	_, _, err := Decode([]byte(`{"c_type":"NotRegistered","c_data":{}}`))
	assert.NotNil(err)
}

func TestRPCEnvelopeRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	raw, err := EncodeRPC("ManageBehavRequest", Request, ManageBehavRequest{Action: "start", Name: "Echo"})
	assert.Nil(err)

	env, v, err := DecodeRPC(raw)
	assert.Nil(err)
	assert.Equal(Request, env.RequestType)
	req, ok := v.(*ManageBehavRequest)
	assert.True(ok)
	assert.Equal("start", req.Action)
}

func TestArgsEnvelopeRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	raw, err := EncodeArgs("greet", Request, map[string]any{"name": "agent-1"})
	assert.Nil(err)

	env, err := DecodeArgs(raw)
	assert.Nil(err)
	assert.Equal("greet", env.Type)
	assert.Equal(Request, env.RequestType)
	args, ok := env.Data.(map[string]any)
	assert.True(ok)
	assert.Equal("agent-1", args["name"])
}

func TestArgsEnvelopeErrorRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	raw, err := EncodeArgsError("greet", "boom")
	assert.Nil(err)

	env, err := DecodeArgs(raw)
	assert.Nil(err)
	assert.Equal("greet", env.Type)
	assert.Equal(Response, env.RequestType)
	assert.Equal("boom", env.Error)
	assert.Nil(env.Data)
}

func TestRPCOperationTypesRegistered(t *testing.T) {
	assert := tdd.New(t)

	for _, tc := range []struct {
		name string
		v    any
	}{
		{"Ping", Ping{}},
		{"Pong", Pong{Pong: "pong"}},
		{"ListBehavRequest", ListBehavRequest{}},
		{"ListBehavResponse", ListBehavResponse{Behavs: []string{"Echo"}}},
		{"ListTraceStoreRequest", ListTraceStoreRequest{Limit: 5}},
		{"ListTraceStoreResponse", ListTraceStoreResponse{Traces: []trace.Event{{Type: "x"}}}},
		{"RpcError", RpcError{Error: "boom"}},
	} {
		raw, err := Encode(tc.name, tc.v)
		assert.Nilf(err, "encode %s", tc.name)
		typeName, _, err := Decode(raw)
		assert.Nilf(err, "decode %s", tc.name)
		assert.Equal(tc.name, typeName)
	}
}
