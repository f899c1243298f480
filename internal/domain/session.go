package domain

import (
	"strings"
	"time"
)

type SessionID int64

// Запись о refresh-сессии пользователя
type Session struct {
	ID        SessionID
	UserID    UserID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	UserAgent *string
}

func NewSession(userID UserID, tokenHash string, expiresAt, now time.Time) (*Session, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return nil, ErrEmptyTokenHash
	}
	if !expiresAt.After(now) {
		return nil, ErrPastExpiry
	}

	return &Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Session) SetUserAgent(ua *string, now time.Time) {
	if ua != nil {
		if t := strings.TrimSpace(*ua); t != "" {
			s.UserAgent = &t
		}
	}
	s.UpdatedAt = now
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
