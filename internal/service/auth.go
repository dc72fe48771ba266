package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/queue"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

const publishTimeout = 5 * time.Second

// AuthService implements registration and the session lifecycle:
// login, logout, refresh-token rotation and password change.
//
// A refresh token is valid if and only if it equals the value currently
// stored for its user.  Login overwrites that value, refresh swaps it
// atomically and logout clears it.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	issuer *utils.TokenIssuer
	events EventPublisher
	cost   int
	logger *slog.Logger
}

func NewAuthService(users UserStore, tokens TokenStore, issuer *utils.TokenIssuer, events EventPublisher, cost int, logger *slog.Logger) *AuthService {
	if events == nil {
		events = NopPublisher{}
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		events: events,
		cost:   cost,
		logger: logger.With("component", "auth"),
	}
}

// RegisterInput carries the sign-up fields.  Avatar and CoverImage are
// URLs of already uploaded images.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Session is the result of a successful login or refresh.
type Session struct {
	User         model.PublicUser
	AccessToken  utils.SignedToken
	RefreshToken utils.SignedToken
}

// Register creates an account and returns its sanitized record.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (u model.PublicUser, err error) {
	defer func() { record("register", err) }()

	in.Username = normalizeIdentity(in.Username)
	in.Email = normalizeIdentity(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"fullName", in.FullName},
		{"password", strings.TrimSpace(in.Password)},
	} {
		if f.value == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return model.PublicUser{}, apperr.Validation("All fields are required", missing...)
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return model.PublicUser{}, apperr.Internal("failed to check existing users", err)
	}
	if taken {
		return model.PublicUser{}, apperr.Conflict("User with email or username already exists")
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return model.PublicUser{}, apperr.Validation("Password is too long")
		}
		return model.PublicUser{}, apperr.Internal("failed to hash password", err)
	}

	rec := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       strings.TrimSpace(in.Avatar),
		CoverImage:   strings.TrimSpace(in.CoverImage),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.PublicUser{}, apperr.Conflict("User with email or username already exists")
		}
		return model.PublicUser{}, apperr.Internal("Something went wrong while registering the user", err)
	}

	created, err := s.users.GetPublicByID(ctx, rec.ID)
	if err != nil {
		return model.PublicUser{}, apperr.Internal("Something went wrong while registering the user", err)
	}
	s.publish(ctx, queue.EventRegistered, created.ID, created.Username)
	return created, nil
}

// Login verifies the credentials and opens a session, replacing any
// refresh token previously stored for the user.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (sess Session, err error) {
	defer func() { record("login", err) }()

	username := normalizeIdentity(in.Username)
	email := normalizeIdentity(in.Email)
	if username == "" && email == "" {
		return Session{}, apperr.Validation("username or email is required")
	}
	if in.Password == "" {
		return Session{}, apperr.Validation("password is required")
	}

	u, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperr.NotFound("User does not exist")
		}
		return Session{}, apperr.Internal("failed to load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		s.logger.Warn("login rejected", "user_id", u.ID, "reason", "password mismatch")
		return Session{}, apperr.InvalidCredentials("Invalid user credentials")
	}

	sess, err = s.mint(u)
	if err != nil {
		return Session{}, err
	}
	// An unpersisted refresh token could never be redeemed, so a failed
	// write fails the whole login.
	if err := s.tokens.SetRefreshToken(ctx, u.ID, sess.RefreshToken.Token); err != nil {
		return Session{}, apperr.Internal("Something went wrong while generating refresh and access token", err)
	}
	s.publish(ctx, queue.EventLoggedIn, u.ID, u.Username)
	return sess, nil
}

// Logout clears the stored refresh token of the authenticated user.
func (s *AuthService) Logout(ctx context.Context, user model.PublicUser) (err error) {
	defer func() { record("logout", err) }()

	if err := s.tokens.ClearRefreshToken(ctx, user.ID); err != nil {
		return apperr.Internal("failed to clear session", err)
	}
	s.publish(ctx, queue.EventLoggedOut, user.ID, user.Username)
	return nil
}

// Refresh redeems a refresh token for a new access and refresh pair.  The
// presented token must verify against the refresh secret and equal the one
// stored for its user; the swap to the new token is conditional on that
// value still being stored, so of two concurrent refreshes with the same
// token exactly one succeeds.
func (s *AuthService) Refresh(ctx context.Context, incoming string) (sess Session, err error) {
	defer func() { record("refresh", err) }()

	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return Session{}, apperr.Unauthenticated("unauthorized request")
	}

	claims, err := s.issuer.VerifyRefreshToken(incoming)
	if err != nil {
		return Session{}, apperr.InvalidToken("Invalid refresh token", err)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperr.InvalidToken("Invalid refresh token", err)
		}
		return Session{}, apperr.Internal("failed to load user", err)
	}

	if u.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(incoming), []byte(u.RefreshToken)) != 1 {
		s.logger.Warn("refresh token rejected", "user_id", u.ID, "reason", "not the stored token")
		s.publish(ctx, queue.EventTokenReuse, u.ID, u.Username)
		return Session{}, apperr.TokenReuseOrExpired("Refresh token is expired or used")
	}

	sess, err = s.mint(u)
	if err != nil {
		return Session{}, err
	}
	swapped, err := s.tokens.RotateRefreshToken(ctx, u.ID, incoming, sess.RefreshToken.Token)
	if err != nil {
		return Session{}, apperr.Internal("failed to rotate refresh token", err)
	}
	if !swapped {
		s.logger.Warn("refresh token rejected", "user_id", u.ID, "reason", "lost rotation race")
		s.publish(ctx, queue.EventTokenReuse, u.ID, u.Username)
		return Session{}, apperr.TokenReuseOrExpired("Refresh token is expired or used")
	}
	s.publish(ctx, queue.EventTokenRefreshed, u.ID, u.Username)
	return sess, nil
}

// ChangePassword replaces the password of userID after checking the old
// one.  The session is left untouched.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	defer func() { record("change_password", err) }()

	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("oldPassword and newPassword are required")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User does not exist")
		}
		return apperr.Internal("failed to load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return apperr.InvalidCredentials("Invalid old password")
	}

	hash, err := utils.HashPassword(newPassword, s.cost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return apperr.Validation("Password is too long")
		}
		return apperr.Internal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	s.publish(ctx, queue.EventPasswordChanged, u.ID, u.Username)
	return nil
}

func (s *AuthService) mint(u model.User) (Session, error) {
	access, err := s.issuer.IssueAccessToken(u)
	if err != nil {
		return Session{}, apperr.Internal("failed to sign access token", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(u)
	if err != nil {
		return Session{}, apperr.Internal("failed to sign refresh token", err)
	}
	return Session{User: u.Public(), AccessToken: access, RefreshToken: refresh}, nil
}

// publish hands the event to the broker off the request path.  The
// request's cancellation does not apply; a bounded timeout does.
func (s *AuthService) publish(ctx context.Context, typ, userID, username string) {
	ev := queue.UserEvent{Type: typ, UserID: userID, Username: username, At: time.Now().UTC()}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, ev); err != nil {
			eventPublishFailures.Inc()
			s.logger.Warn("publish user event failed", "type", ev.Type, "user_id", ev.UserID, "err", err)
		}
	}()
}

func record(flow string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	authOutcomes.WithLabelValues(flow, outcome).Inc()
}

func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
