package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophauth.AuthService"

const (
	SignUpFullMethod         = "/" + ServiceName + "/SignUp"
	SignInFullMethod         = "/" + ServiceName + "/SignIn"
	RefreshTokenFullMethod   = "/" + ServiceName + "/RefreshToken"
	GetSessionFullMethod     = "/" + ServiceName + "/GetSession"
	ResetPasswordFullMethod  = "/" + ServiceName + "/ResetPassword"
	ChangePasswordFullMethod = "/" + ServiceName + "/ChangePassword"
	PingFullMethod           = "/" + ServiceName + "/Ping"
)

// AuthServiceServer is implemented by the gophauth gRPC server.
type AuthServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*SessionResponse, error)
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPairResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*AccountResponse, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*AccountResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*AccountResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// unary adapts a typed server method to grpc.MethodHandler, running the
// server's interceptor chain when there is one.
func unary[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unary(SignUpFullMethod, AuthServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unary(SignInFullMethod, AuthServiceServer.SignIn)},
		{MethodName: "RefreshToken", Handler: unary(RefreshTokenFullMethod, AuthServiceServer.RefreshToken)},
		{MethodName: "GetSession", Handler: unary(GetSessionFullMethod, AuthServiceServer.GetSession)},
		{MethodName: "ResetPassword", Handler: unary(ResetPasswordFullMethod, AuthServiceServer.ResetPassword)},
		{MethodName: "ChangePassword", Handler: unary(ChangePasswordFullMethod, AuthServiceServer.ChangePassword)},
		{MethodName: "Ping", Handler: unary(PingFullMethod, AuthServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/auth.json",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient is the client side of AuthServiceDesc. Every call is
// sent with the JSON codec.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, SignUpFullMethod, in, opts)
}

func (c *AuthServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, SignInFullMethod, in, opts)
}

func (c *AuthServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, RefreshTokenFullMethod, in, opts)
}

func (c *AuthServiceClient) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, GetSessionFullMethod, in, opts)
}

func (c *AuthServiceClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, ResetPasswordFullMethod, in, opts)
}

func (c *AuthServiceClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, ChangePasswordFullMethod, in, opts)
}

func (c *AuthServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingFullMethod, in, opts)
}
