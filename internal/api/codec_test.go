package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	require.Equal(t, CodecName, c.Name())
}

func TestCodec_Structs(t *testing.T) {
	var c Codec
	in := &Session{
		ID:            "s1",
		Date:          "2024-01-15",
		Label:         "Parade",
		Kind:          "normal",
		PointValue:    10,
		PresentCadets: []string{"a", "b"},
		CreatedAt:     time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC),
	}
	b, err := c.Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(b), `"point_value":10`)

	var out Session
	require.NoError(t, c.Unmarshal(b, &out))
	require.Equal(t, *in, out)

	require.Error(t, c.Unmarshal([]byte("{"), &out))
	require.NoError(t, c.Unmarshal(nil, &Empty{}))
}

func TestCodec_ProtoMessages(t *testing.T) {
	var c Codec
	b, err := c.Marshal(wrapperspb.String("ok"))
	require.NoError(t, err)
	require.JSONEq(t, `"ok"`, string(b))

	var out wrapperspb.StringValue
	require.NoError(t, c.Unmarshal(b, &out))
	require.Equal(t, "ok", out.GetValue())
}

func TestServiceDesc(t *testing.T) {
	require.Equal(t, "/cadetcorps.v1.Corps/Login", FullMethod("Login"))
	seen := map[string]bool{}
	for _, m := range ServiceDesc.Methods {
		require.False(t, seen[m.MethodName], "duplicate method %s", m.MethodName)
		seen[m.MethodName] = true
	}
	require.Len(t, ServiceDesc.Methods, 29)
	require.True(t, ServiceDesc.Streams[0].ServerStreams)
}
