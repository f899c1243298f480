package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
	"github.com/wishp-chat/chatroom-service/internal/security"
)

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	UserID       domain.UserID
	AccessToken  string
	RefreshToken string
}

// Метаданные для записи сессии
type LoginMeta struct {
	UserAgent *string
}

type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwt        *security.JWTSigner
	refreshTTL time.Duration
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwt *security.JWTSigner,
	refreshTTL time.Duration,
	passPolicy security.BcryptConfig,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		refreshTTL: refreshTTL,
		passPolicy: passPolicy,
		now:        now,
	}
}

// SignUp регистрирует пользователя: креды и профиль — одна запись users,
// частично зарегистрированного состояния не бывает.
func (s *AuthService) SignUp(ctx context.Context, email, password, firstName, lastName string, meta *LoginMeta) (*AuthResult, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("users.ExistsByEmail: %w", err)
	}
	if exists {
		return nil, repository.ErrAlreadyExists
	}

	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	u, err := domain.NewUser(email, hash, firstName, lastName, s.now())
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}
	u.ID = id

	access, refresh, err := s.issueTokens(ctx, u.ID, meta, nil)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Login аутентифицирует по email+пароль и выпускает пару токенов
func (s *AuthService) Login(ctx context.Context, email, password string, meta *LoginMeta) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("users.GetByEmail: %w", err)
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	access, refresh, err := s.issueTokens(ctx, u.ID, meta, nil)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh по refresh-токену выдает новую пару; старую запись удаляет
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta *LoginMeta) (*RefreshResult, error) {
	hash := security.SHA256HexOfString(refreshToken)
	sess, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sessions.GetByTokenHash: %w", err)
	}

	now := s.now()
	if sess.IsExpired(now) {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return nil, domain.ErrSessionExpired
	}

	access, newRefresh, err := s.issueTokens(ctx, sess.UserID, meta, &sess.ID)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		UserID:       sess.UserID,
		AccessToken:  access,
		RefreshToken: newRefresh,
	}, nil
}

// Me возвращает профиль пользователя
func (s *AuthService) Me(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout удаляет все refresh-сессии пользователя.
func (s *AuthService) Logout(ctx context.Context, userID domain.UserID) error {
	if _, err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("sessions.DeleteByUser: %w", err)
	}

	return nil
}

func (s *AuthService) AccessTTL() time.Duration { return s.jwt.TTL() }

// UserIDFromAccessToken парсит access JWT и возвращает userID
func (s *AuthService) UserIDFromAccessToken(token string) (domain.UserID, error) {
	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return 0, err
	}

	return security.SubjectAsUserID(claims)
}

// issueTokens: создает refresh-сессию и подписывает access-токен.
// Если oldSessionID != nil — сначала удаляет старую запись.
func (s *AuthService) issueTokens(ctx context.Context, userID domain.UserID, meta *LoginMeta, oldSessionID *domain.SessionID) (access string, refresh string, err error) {
	now := s.now()

	access, err = s.jwt.SignAccessToken(userID, now)
	if err != nil {
		return "", "", err
	}

	// refresh opaque + запись в БД
	refresh, err = security.RandomStringURLSafe(32)
	if err != nil {
		return "", "", err
	}

	hash := security.SHA256HexOfString(refresh)
	expires := now.Add(s.refreshTTL)

	sess, err := domain.NewSession(userID, hash, expires, now)
	if err != nil {
		return "", "", err
	}
	if meta != nil && meta.UserAgent != nil {
		sess.SetUserAgent(meta.UserAgent, now)
	}

	if oldSessionID != nil {
		_ = s.sessions.DeleteByID(ctx, *oldSessionID)
	}

	if _, err := s.sessions.Create(ctx, sess); err != nil {
		return "", "", fmt.Errorf("sessions.Create: %w", err)
	}

	return access, refresh, nil
}
