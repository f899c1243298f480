package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wishp-chat/chatroom-service/internal/domain"
	"github.com/wishp-chat/chatroom-service/internal/repository"
)

// maxMessageLen — лимит длины сообщения.
const maxMessageLen = 4000

type ChatService struct {
	chatRepo repository.ChatRepository
	casts    *Broadcaster
}

func NewChatService(chatRepo repository.ChatRepository, casts *Broadcaster) *ChatService {
	return &ChatService{chatRepo: chatRepo, casts: casts}
}

// Send сохраняет сообщение с серверным временем и рассылает подписчикам
// свежий снапшот. Отправка в закрытую комнату отклоняется (domain.ErrRoomClosed):
// закрытая комната не должна продолжать разговор.
func (s *ChatService) Send(ctx context.Context, roomCode, username, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len(text) > maxMessageLen {
		return nil, domain.ErrMessageTooLong
	}

	msg, err := s.chatRepo.SaveIfOpen(ctx, roomCode, username, text)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.chatRepo.ListAll(ctx, roomCode)
	if err != nil {
		// сообщение сохранено; подписчики получат его со следующим событием
		slog.Warn("chat snapshot after send failed", "room", roomCode, "err", err)
		return msg, nil
	}
	s.casts.Publish(roomCode, snapshot)

	return msg, nil
}

// Subscribe открывает live-поток снапшотов комнаты: сначала текущее
// состояние, затем событие на каждое изменение. Отмена — Subscription.Cancel,
// идемпотентна; удаление комнаты закрывает поток.
func (s *ChatService) Subscribe(ctx context.Context, roomCode string) (*Subscription, error) {
	sub := s.casts.Subscribe(roomCode)

	snapshot, err := s.chatRepo.ListAll(ctx, roomCode)
	if err != nil {
		sub.Cancel()
		return nil, fmt.Errorf("chatRepo.ListAll: %w", err)
	}
	sub.push(snapshot)

	return sub, nil
}

// History возвращает историю сообщений с курсорной пагинацией (новые первыми).
func (s *ChatService) History(ctx context.Context, roomCode, after string, limit int) ([]domain.Message, string, error) {
	return s.chatRepo.History(ctx, roomCode, after, limit)
}
