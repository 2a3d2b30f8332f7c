package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codequest_admin/internal/common"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/domain/repository"
	"codequest_admin/internal/gateway"
	"codequest_admin/internal/platform/tokenstore"

	"github.com/google/uuid"
)

// Credential is what a successful login yields: the bearer token to keep in
// the token store and the admin it belongs to.
type Credential struct {
	Token string
	Admin model.Admin
}

// Identity authenticates admins.
type Identity interface {
	Login(ctx context.Context, req LoginRequest) (Credential, error)
	Register(ctx context.Context, req RegisterRequest) (Credential, error)
	// Restore resolves the admin behind the credential stored for a session.
	Restore(ctx context.Context, sessionID string) (model.Admin, error)
}

// LocalIdentity checks a single configured admin account.
type LocalIdentity struct {
	admin        model.Admin
	passwordHash string
	tokens       tokenstore.Store
}

func NewLocalIdentity(email, name, passwordHash string, tokens tokenstore.Store) *LocalIdentity {
	return &LocalIdentity{
		admin: model.Admin{
			ID:    "local-admin",
			Email: strings.ToLower(strings.TrimSpace(email)),
			Name:  name,
			Role:  model.RoleAdmin,
		},
		passwordHash: passwordHash,
		tokens:       tokens,
	}
}

func (l *LocalIdentity) Login(ctx context.Context, req LoginRequest) (Credential, error) {
	if l.passwordHash == "" {
		return Credential{}, fmt.Errorf("no admin password configured: %w", common.ErrServiceUnavailable)
	}
	if strings.ToLower(strings.TrimSpace(req.Email)) != l.admin.Email ||
		!security.CheckPasswordHash(req.Password, l.passwordHash) {
		return Credential{}, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
	}
	return Credential{Token: l.admin.ID, Admin: l.admin}, nil
}

func (l *LocalIdentity) Register(ctx context.Context, req RegisterRequest) (Credential, error) {
	return Credential{}, fmt.Errorf("registration requires the remote backend: %w", common.ErrNotSupported)
}

func (l *LocalIdentity) Restore(ctx context.Context, sessionID string) (model.Admin, error) {
	token, err := l.tokens.Get(ctx, sessionID)
	if err != nil {
		return model.Admin{}, err
	}
	if token != l.admin.ID {
		return model.Admin{}, common.ErrUnauthorized
	}
	return l.admin, nil
}

// AccountIdentity authenticates admins stored in an AdminRepository and lets
// new admins register without the remote backend.
type AccountIdentity struct {
	admins repository.AdminRepository
	tokens tokenstore.Store
}

func NewAccountIdentity(admins repository.AdminRepository, tokens tokenstore.Store) *AccountIdentity {
	return &AccountIdentity{admins: admins, tokens: tokens}
}

func (a *AccountIdentity) Login(ctx context.Context, req LoginRequest) (Credential, error) {
	account, err := a.admins.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Credential{}, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
		}
		return Credential{}, err
	}
	if !security.CheckPasswordHash(req.Password, account.HashedPassword) {
		return Credential{}, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
	}
	return Credential{Token: account.ID, Admin: account.Admin}, nil
}

func (a *AccountIdentity) Register(ctx context.Context, req RegisterRequest) (Credential, error) {
	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to hash password: %w", err)
	}
	account := &model.AdminAccount{
		Admin: model.Admin{
			ID:       uuid.NewString(),
			Email:    strings.ToLower(strings.TrimSpace(req.Email)),
			Name:     req.Username,
			Username: req.Username,
			TeamName: req.TeamName,
			Role:     model.RoleAdmin,
		},
		HashedPassword: hashedPassword,
	}
	if err := a.admins.Create(ctx, account); err != nil {
		return Credential{}, fmt.Errorf("failed to create admin: %w", err)
	}
	return Credential{Token: account.ID, Admin: account.Admin}, nil
}

func (a *AccountIdentity) Restore(ctx context.Context, sessionID string) (model.Admin, error) {
	token, err := a.tokens.Get(ctx, sessionID)
	if err != nil {
		return model.Admin{}, err
	}
	account, err := a.admins.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return model.Admin{}, common.ErrUnauthorized
		}
		return model.Admin{}, err
	}
	return account.Admin, nil
}

// GatewayFactory builds a gateway whose client reads the given session's
// token. An empty session id yields an anonymous gateway.
type GatewayFactory func(sessionID string) *gateway.Gateway

// RemoteIdentity delegates to the backend's auth endpoints.
type RemoteIdentity struct {
	gateways GatewayFactory
}

func NewRemoteIdentity(gateways GatewayFactory) *RemoteIdentity {
	return &RemoteIdentity{gateways: gateways}
}

func (r *RemoteIdentity) Login(ctx context.Context, req LoginRequest) (Credential, error) {
	resp, err := r.gateways("").Login(ctx, gateway.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return Credential{}, err
	}
	return credentialFrom(resp)
}

func (r *RemoteIdentity) Register(ctx context.Context, req RegisterRequest) (Credential, error) {
	resp, err := r.gateways("").Register(ctx, gateway.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		TeamName: req.TeamName,
	})
	if err != nil {
		return Credential{}, err
	}
	return credentialFrom(resp)
}

func (r *RemoteIdentity) Restore(ctx context.Context, sessionID string) (model.Admin, error) {
	user, err := r.gateways(sessionID).GetCurrentUser(ctx)
	if err != nil {
		return model.Admin{}, err
	}
	admin := adminFromUser(*user)
	if admin.Role != model.RoleAdmin {
		return model.Admin{}, fmt.Errorf("%s is not an admin: %w", admin.Email, common.ErrForbidden)
	}
	return admin, nil
}

func credentialFrom(resp *gateway.AuthResponse) (Credential, error) {
	if resp.Token == "" {
		return Credential{}, fmt.Errorf("backend returned no token: %w", common.ErrBackend)
	}
	admin := adminFromUser(resp.User)
	if admin.Role != model.RoleAdmin {
		return Credential{}, fmt.Errorf("%s is not an admin: %w", admin.Email, common.ErrForbidden)
	}
	return Credential{Token: resp.Token, Admin: admin}, nil
}

func adminFromUser(u gateway.User) model.Admin {
	name := u.Username
	if name == "" {
		name = u.Email
	}
	return model.Admin{
		ID:       u.ID,
		Email:    u.Email,
		Name:     name,
		Username: u.Username,
		TeamName: u.TeamName,
		Role:     u.Role,
	}
}
