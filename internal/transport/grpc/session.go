package transportgrpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

const (
	SessionServiceName    = "gkart.identity.v1.SessionService"
	ValidateSessionMethod = "/" + SessionServiceName + "/Validate"
)

// SessionAuthenticator resolves a login session id into its session and account.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*domain.Session, *domain.Account, error)
}

// ValidateSessionRequest asks whether a browser session id is live.
type ValidateSessionRequest struct {
	SessionID string `json:"session_id"`
}

// ValidateSessionResponse describes the principal behind a live session.
type ValidateSessionResponse struct {
	Valid       bool      `json:"valid"`
	AccountID   string    `json:"account_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	IsStaff     bool      `json:"is_staff,omitempty"`
	IsSuperuser bool      `json:"is_superuser,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// SessionServer lets other storefront services resolve the gkart session cookie.
// Validating slides the session exactly like an HTTP request would.
type SessionServer struct {
	auth   SessionAuthenticator
	logger *zap.Logger
}

func NewSessionServer(auth SessionAuthenticator, logger *zap.Logger) *SessionServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionServer{auth: auth, logger: logger}
}

// Validate reports an unknown or expired session in the response body and reserves
// gRPC errors for infrastructure failures.
func (s *SessionServer) Validate(ctx context.Context, req *ValidateSessionRequest) (*ValidateSessionResponse, error) {
	if req == nil || strings.TrimSpace(req.SessionID) == "" {
		return &ValidateSessionResponse{Valid: false, Error: "session_id is required"}, nil
	}

	session, account, err := s.auth.Authenticate(ctx, strings.TrimSpace(req.SessionID))
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			return &ValidateSessionResponse{Valid: false, Error: "session not found or expired"}, nil
		}
		s.logger.Error("session validation failed", zap.Error(err))
		return nil, status.Error(codes.Unavailable, "session store unavailable")
	}

	return &ValidateSessionResponse{
		Valid:       true,
		AccountID:   account.ID,
		Email:       account.Email,
		IsStaff:     account.IsStaff,
		IsSuperuser: account.IsSuperuser,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

type sessionService interface {
	Validate(ctx context.Context, req *ValidateSessionRequest) (*ValidateSessionResponse, error)
}

func validateSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ValidateSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(sessionService).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateSessionMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(sessionService).Validate(ctx, req.(*ValidateSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*sessionService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateSessionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gkart/identity/v1/session.json",
}

// RegisterSessionServer attaches the session service to a gRPC server.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv *SessionServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

// SessionClient calls the session service over an existing connection.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func (c *SessionClient) Validate(ctx context.Context, req *ValidateSessionRequest, opts ...grpc.CallOption) (*ValidateSessionResponse, error) {
	out := new(ValidateSessionResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, ValidateSessionMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
