package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lumenworks/authkit/internal/config"
	"github.com/lumenworks/authkit/internal/domain"
	"github.com/lumenworks/authkit/internal/mailer"
	"github.com/lumenworks/authkit/internal/password"
	"github.com/lumenworks/authkit/internal/repository"
	"github.com/lumenworks/authkit/internal/token"
)

const emailSendTimeout = 15 * time.Second

// AuthService orchestrates the register/verify/login/reset state machine.
// Every mutating operation commits its user record before any email is
// dispatched; delivery failures are logged and never surfaced.
type AuthService struct {
	users     repository.UserRepository
	hasher    *password.Hasher
	signer    *token.Signer
	mail      mailer.Mailer
	snowflake *snowflake.Node
	cfg       config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, hasher *password.Hasher, signer *token.Signer, mail mailer.Mailer, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		signer:    signer,
		mail:      mail,
		snowflake: node,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("github.com/lumenworks/authkit/internal/service"),
	}
}

// Register creates an unverified user, issues a session token, and sends the
// verification code by email.
func (s *AuthService) Register(ctx context.Context, name, email, plaintext string) (*AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || plaintext == "" {
		return nil, errValidation("All fields are required.")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errConflict()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("register lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code := token.RandomHex(token.DefaultBytes)
	expiresAt := time.Now().UTC().Add(s.cfg.VerificationTokenTTL)
	created, err := s.users.Create(ctx, domain.User{
		ID:                    s.snowflake.Generate().Int64(),
		Email:                 email,
		Name:                  name,
		PasswordHash:          hash,
		IsVerified:            false,
		VerificationToken:     &code,
		VerificationExpiresAt: &expiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, errConflict()
		}
		span.RecordError(err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.signer.Sign(created.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign session: %w", err)
	}

	s.dispatchEmail("verification", created.Email, func(ctx context.Context) error {
		return s.mail.SendVerificationEmail(ctx, created.Email, code)
	})

	s.audit("register.success", "user_id", created.ID)
	return &AuthResult{User: newUserViewModel(created), SessionToken: session}, nil
}

// VerifyEmail consumes a verification code. The token pair is cleared in the
// same statement that flips the verified flag, so a code works exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (UserViewModel, error) {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyEmail")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return UserViewModel{}, errValidation("Verification code is required.")
	}

	user, err := s.users.ConsumeVerificationToken(ctx, code, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserViewModel{}, errInvalidOrExpired("Invalid or expired verification code.")
		}
		span.RecordError(err)
		return UserViewModel{}, fmt.Errorf("consume verification token: %w", err)
	}

	s.dispatchEmail("welcome", user.Email, func(ctx context.Context) error {
		return s.mail.SendWelcomeEmail(ctx, user.Email, user.Name)
	})

	s.audit("verify_email.success", "user_id", user.ID)
	return newUserViewModel(user), nil
}

// Login authenticates email and password and issues a session token. Unknown
// email and wrong password yield byte-identical errors.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || plaintext == "" {
		return nil, errValidation("All fields are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errInvalidCredentials()
		}
		span.RecordError(err)
		return nil, fmt.Errorf("login lookup user: %w", err)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, errInvalidCredentials()
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	session, err := s.signer.Sign(user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sign session: %w", err)
	}

	s.audit("login.success", "user_id", user.ID)
	return &AuthResult{User: newUserViewModel(user), SessionToken: session}, nil
}

// ForgotPassword stores a fresh reset token and emails a reset link. Unknown
// emails succeed silently so the endpoint cannot confirm account existence.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" {
		return errValidation("Email is required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.audit("forgot_password.unknown_email")
			return nil
		}
		span.RecordError(err)
		return fmt.Errorf("forgot password lookup user: %w", err)
	}

	reset := token.RandomHex(token.DefaultBytes)
	expiresAt := time.Now().UTC().Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, reset, expiresAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("set reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.cfg.FrontendURL, "/"), reset)
	s.dispatchEmail("password_reset", user.Email, func(ctx context.Context) error {
		return s.mail.SendPasswordResetEmail(ctx, user.Email, resetURL)
	})

	s.audit("forgot_password.success", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash in one
// atomic update, then confirms the change by email.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, plaintext string) (UserViewModel, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	resetToken = strings.TrimSpace(resetToken)
	if plaintext == "" {
		return UserViewModel{}, errValidation("Password is required.")
	}
	if resetToken == "" {
		return UserViewModel{}, errInvalidOrExpired("Invalid or expired reset token.")
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		span.RecordError(err)
		return UserViewModel{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.ConsumeResetToken(ctx, resetToken, hash, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserViewModel{}, errInvalidOrExpired("Invalid or expired reset token.")
		}
		span.RecordError(err)
		return UserViewModel{}, fmt.Errorf("consume reset token: %w", err)
	}

	s.dispatchEmail("password_reset_success", user.Email, func(ctx context.Context) error {
		return s.mail.SendPasswordResetSuccessEmail(ctx, user.Email)
	})

	s.audit("reset_password.success", "user_id", user.ID)
	return newUserViewModel(user), nil
}

// CheckAuth resolves a verified session subject back to its user record.
func (s *AuthService) CheckAuth(ctx context.Context, userID int64) (UserViewModel, error) {
	ctx, span := s.startSpan(ctx, "AuthService.CheckAuth")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserViewModel{}, errNotFound()
		}
		span.RecordError(err)
		return UserViewModel{}, fmt.Errorf("check auth lookup user: %w", err)
	}
	return newUserViewModel(user), nil
}

// dispatchEmail sends after the state transition has committed. The goroutine
// carries its own deadline so a slow SMTP server cannot block request
// handling, and failures only reach the log.
func (s *AuthService) dispatchEmail(kind, to string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.log().Warn("email delivery failed",
				zap.String("kind", kind),
				zap.String("to", to),
				zap.Error(err),
			)
		}
	}()
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
