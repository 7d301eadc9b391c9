package services

import (
	"context"
	"time"

	"aldoge_server/database"
	"aldoge_server/lib"
	"aldoge_server/structs"
	"aldoge_server/structs/tables"

	"github.com/MonkyMars/gecho"
)

// AuthService authenticates staff accounts. Guests never log in; everything
// auth-gated is the staff dashboard and admin surface.
type AuthService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	db     *database.DB
}

func NewAuthService(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *AuthService {
	return &AuthService{
		logger: logger,
		cfg:    cfg,
		db:     db,
	}
}

// Login verifies staff credentials and issues an access token. Every failure
// path returns ErrInvalidCredentials so account existence does not leak.
func (as *AuthService) Login(ctx context.Context, req *structs.AuthRequest) (*tables.AuthResponse, error) {
	user, err := database.Query[tables.User](as.db).Where("email", req.Email).First(ctx)
	if err != nil {
		mappedErr := lib.MapPgError(err)
		if !lib.IsNotFound(mappedErr) {
			as.logger.Error("Unexpected database error during login",
				gecho.Field("error", mappedErr))
		}
		return nil, lib.ErrInvalidCredentials
	}
	if user == nil {
		as.logger.Debug("User not found during login attempt", gecho.Field("identifier", req.Email))
		return nil, lib.ErrInvalidCredentials
	}

	valid, err := lib.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		as.logger.Error("Failed to verify password hash",
			gecho.Field("error", err),
			gecho.Field("user_id", user.Id))
		return nil, lib.ErrInvalidCredentials
	}
	if !valid {
		as.logger.Debug("Invalid password attempt",
			gecho.Field("identifier", req.Email),
			gecho.Field("user_id", user.Id))
		return nil, lib.ErrInvalidCredentials
	}

	token, err := lib.GenerateAccessToken(user, as.cfg.Auth.AccessTokenSecret, as.cfg.Auth.AccessTokenExpiry)
	if err != nil {
		as.logger.Error("Failed to sign access token", gecho.Field("error", err), gecho.Field("user_id", user.Id))
		return nil, err
	}

	if _, err := as.db.NewUpdate().
		Model((*tables.User)(nil)).
		Set("last_login = ?", time.Now()).
		Where("id = ?", user.Id).
		Exec(ctx); err != nil {
		as.logger.Warn("Failed to record last login", gecho.Field("error", err), gecho.Field("user_id", user.Id))
	}

	as.logger.Info("Staff login", gecho.Field("user_id", user.Id), gecho.Field("role", user.Role))

	user.PasswordHash = ""
	return &tables.AuthResponse{User: user, AccessToken: token}, nil
}
