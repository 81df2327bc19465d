package gameserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// testGRPCServer starts an in-process gRPC server and returns a connected client.
func testGRPCServer(t *testing.T) (gamev1.GameServiceClient, *Hub) {
	t.Helper()

	hub := newTestHub(t)
	svc := NewGameServiceServer(hub, zaptest.NewLogger(t))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	grpcServer := grpc.NewServer(grpc.WaitForHandlers(true))
	gamev1.RegisterGameServiceServer(grpcServer, svc)

	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(func() { grpcServer.Stop() })

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return gamev1.NewGameServiceClient(conn), hub
}

// connect opens a stream and returns it with the assigned player id.
func connect(t *testing.T, ctx context.Context, client gamev1.GameServiceClient) (gamev1.SessionClient, string) {
	t.Helper()
	stream, err := client.Session(ctx)
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, gamev1.EventConnected, ev.Type)
	require.NotEmpty(t, ev.PlayerID)
	return stream, ev.PlayerID
}

func recvType(t *testing.T, stream gamev1.SessionClient, typ string) *gamev1.ServerEvent {
	t.Helper()
	ev, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, typ, ev.Type, "message: %s", ev.Message)
	return ev
}

func TestGRPCService_QuickGameOverStream(t *testing.T) {
	client, _ := testGRPCServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, aID := connect(t, ctx, client)
	b, bID := connect(t, ctx, client)

	require.NoError(t, a.Send(&gamev1.ClientMessage{Type: gamev1.IntentCreateGame}))
	recvType(t, a, gamev1.EventWaitingForOpponent)

	require.NoError(t, b.Send(&gamev1.ClientMessage{Type: gamev1.IntentCreateGame}))
	recvType(t, b, gamev1.EventGameCreated)
	started := recvType(t, b, gamev1.EventGameStarted)
	assert.Equal(t, []string{aID, bID}, started.Session.Players)
	recvType(t, a, gamev1.EventGameStarted)

	require.NoError(t, a.Send(&gamev1.ClientMessage{Type: gamev1.IntentMakeMove, SessionID: started.Session.ID, Column: 3}))
	made := recvType(t, b, gamev1.EventMoveMade)
	require.NotNil(t, made.Session.Board[5][3])
	assert.Equal(t, aID, *made.Session.Board[5][3])
	assert.Equal(t, bID, made.Session.Turn)
	recvType(t, a, gamev1.EventMoveMade)
}

func TestGRPCService_ErrorCarriesRequestID(t *testing.T) {
	client, _ := testGRPCServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, _ := connect(t, ctx, client)
	require.NoError(t, a.Send(&gamev1.ClientMessage{RequestID: "m1", Type: gamev1.IntentMakeMove, SessionID: "nope"}))
	ev := recvType(t, a, gamev1.EventError)
	assert.Equal(t, "m1", ev.RequestID)
	assert.Contains(t, ev.Message, ErrSessionNotFound.Error())
}

func TestGRPCService_CloseSendDisconnects(t *testing.T) {
	client, hub := testGRPCServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, _ := connect(t, ctx, client)
	b, bID := connect(t, ctx, client)
	require.NoError(t, a.Send(&gamev1.ClientMessage{Type: gamev1.IntentCreateGame}))
	recvType(t, a, gamev1.EventWaitingForOpponent)
	require.NoError(t, b.Send(&gamev1.ClientMessage{Type: gamev1.IntentCreateGame}))
	recvType(t, b, gamev1.EventGameCreated)
	recvType(t, b, gamev1.EventGameStarted)

	require.NoError(t, a.CloseSend())

	ev := recvType(t, b, gamev1.EventPlayerDisconnected)
	assert.Equal(t, []string{bID}, ev.RemainingPlayers)
	assert.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 10*time.Millisecond)
}
