package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var kindCodes = map[services.Kind]codes.Code{
	services.KindDuplicateEmail:         codes.AlreadyExists,
	services.KindDuplicateName:          codes.AlreadyExists,
	services.KindInvalidCredentials:     codes.Unauthenticated,
	services.KindInvalidCurrentPassword: codes.InvalidArgument,
	services.KindInvalidAccessToken:     codes.Unauthenticated,
	services.KindInvalidRefreshToken:    codes.Unauthenticated,
	services.KindAccountNotFound:        codes.NotFound,
	services.KindAccountDeleted:         codes.PermissionDenied,
	services.KindAccountDisabled:        codes.PermissionDenied,
	services.KindInvalidInput:           codes.InvalidArgument,
}

// toStatus maps a service error to a gRPC status. Internal failures get a
// generic message; their detail stays in the server log.
func toStatus(err error) error {
	kind := services.KindOf(err)
	if code, ok := kindCodes[kind]; ok {
		return status.Error(code, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func toAPIAccount(a *models.Account) *api.Account {
	if a == nil {
		return nil
	}
	r := a.Redacted()
	return &api.Account{
		No:                   r.No,
		Email:                r.Email,
		Name:                 r.Name,
		Role:                 string(r.Role),
		ProfileImage:         r.ProfileImage,
		Bio:                  r.Bio,
		UseYn:                string(r.UseYn),
		DelYn:                string(r.DelYn),
		LastLoginAt:          r.LastLoginAt,
		LastPasswordChangeAt: r.LastPasswordChangeAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toSessionResponse(sess *services.Session) *api.SessionResponse {
	return &api.SessionResponse{
		Account:      toAPIAccount(sess.Account),
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.SessionResponse, error) {

	sess, err := s.auth.SignUp(ctx, services.SignUpInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return toSessionResponse(sess), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *api.SignInRequest) (*api.SessionResponse, error) {

	sess, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return toSessionResponse(sess), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.TokenPairResponse, error) {

	pair, err := s.auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) GetSession(ctx context.Context, _ *api.GetSessionRequest) (*api.AccountResponse, error) {

	account, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	return &api.AccountResponse{Account: toAPIAccount(account)}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *api.ResetPasswordRequest) (*api.AccountResponse, error) {

	account, err := s.auth.ResetPassword(ctx, req.Email, req.NewPassword)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.AccountResponse{Account: toAPIAccount(account)}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.AccountResponse, error) {

	caller, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.auth.ChangePassword(ctx, caller.No, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.AccountResponse{Account: toAPIAccount(account)}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

// currentAccount resolves the access token placed in ctx by the interceptor.
func (s *GRPCServer) currentAccount(ctx context.Context) (*models.Account, error) {
	tok, ok := accessTokenFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	account, err := s.auth.GetSession(ctx, tok)
	if err != nil {
		return nil, toStatus(err)
	}
	return account, nil
}
