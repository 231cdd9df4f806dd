package client

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// authAPI is the generated-style stub surface GRPCClient talks to.
type authAPI interface {
	SignUp(ctx context.Context, in *api.SignUpRequest, opts ...grpc.CallOption) (*api.SessionResponse, error)
	SignIn(ctx context.Context, in *api.SignInRequest, opts ...grpc.CallOption) (*api.SessionResponse, error)
	RefreshToken(ctx context.Context, in *api.RefreshTokenRequest, opts ...grpc.CallOption) (*api.TokenPairResponse, error)
	GetSession(ctx context.Context, in *api.GetSessionRequest, opts ...grpc.CallOption) (*api.AccountResponse, error)
	ResetPassword(ctx context.Context, in *api.ResetPasswordRequest, opts ...grpc.CallOption) (*api.AccountResponse, error)
	ChangePassword(ctx context.Context, in *api.ChangePasswordRequest, opts ...grpc.CallOption) (*api.AccountResponse, error)
	Ping(ctx context.Context, in *api.PingRequest, opts ...grpc.CallOption) (*api.PingResponse, error)
}

// protectedMethods carry the access token and are retried once after a
// refresh when the server answers Unauthenticated.
var protectedMethods = map[string]struct{}{
	api.GetSessionFullMethod:     {},
	api.ChangePasswordFullMethod: {},
}

type GRPCClient struct {
	endpointURL string
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	client      authAPI

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if _, ok := protectedMethods[method]; !ok {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.Tokens()
	if access == "" {
		return ErrNoSession
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	if status.Code(err) != codes.Unauthenticated || refresh == "" {
		return err
	}

	if rerr := s.Refresh(ctx); rerr != nil {
		return err
	}

	// Tokens refreshed; retry with the new access token.
	access, _ = s.Tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL. Extra dial options are applied after the
// defaults, so they can replace the dialer or add interceptors behind the
// access-token one.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, dialOpts: opts}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOpts...)
	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) SignUp(ctx context.Context, email, name, password, role string) (*api.Account, error) {

	req := &api.SignUpRequest{Email: email, Name: name, Password: password, Role: role}

	resp, err := s.client.SignUp(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return resp.Account, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (*api.Account, error) {

	req := &api.SignInRequest{Email: email, Password: password}

	resp, err := s.client.SignIn(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return resp.Account, nil
}

// Refresh exchanges the held refresh token for a new pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {

	_, refresh := s.Tokens()
	if refresh == "" {
		return ErrNoSession
	}

	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) GetSession(ctx context.Context) (*api.Account, error) {

	resp, err := s.client.GetSession(ctx, &api.GetSessionRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) ResetPassword(ctx context.Context, email, newPassword string) (*api.Account, error) {

	req := &api.ResetPasswordRequest{Email: email, NewPassword: newPassword}

	resp, err := s.client.ResetPassword(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*api.Account, error) {

	req := &api.ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}

	resp, err := s.client.ChangePassword(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoSession) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return &RemoteError{Code: st.Code(), Message: st.Message()}
	}
}
