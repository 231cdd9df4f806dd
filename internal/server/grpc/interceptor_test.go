package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// helper to build server
func newTestServer() *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, &fakeAuth{})
}

func TestInterceptor_Unprotected_AllowsWithoutToken(t *testing.T) {
	s := newTestServer()

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: api.SignInFullMethod}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(ctx, nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_Protected_MissingToken(t *testing.T) {
	s := newTestServer()

	for _, method := range []string{api.GetSessionFullMethod, api.ChangePasswordFullMethod} {
		info := &grpc.UnaryServerInfo{FullMethod: method}

		h := func(ctx context.Context, req any) (any, error) {
			t.Fatal("handler should not be called when token missing")
			return nil, nil
		}

		_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("%s: expected Unauthenticated, got %v", method, status.Code(err))
		}
		if status.Convert(err).Message() != "missing token" {
			t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
		}
	}
}

func TestInterceptor_Protected_PassesTokenThrough(t *testing.T) {
	s := newTestServer()

	md := metadata.New(map[string]string{
		common.AccessTokenHeaderName: "some-token",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: api.GetSessionFullMethod}

	var got string
	h := func(ctx context.Context, req any) (any, error) {
		got, _ = accessTokenFromContext(ctx)
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(ctx, nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "some-token" {
		t.Fatalf("token not propagated in context: got %q", got)
	}
}
