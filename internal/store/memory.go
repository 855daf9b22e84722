package store

import (
	"context"
	"sync"

	"impact-rag/internal/helper"
	"impact-rag/internal/models"
)

type memoryConversation struct {
	userID string
	title  string
	turns  []models.Turn
}

// Memory is an in-process Store used by tests and the CLI's database-less
// mode.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]*memoryConversation
}

func NewMemory() *Memory {
	return &Memory{conversations: make(map[string]*memoryConversation)}
}

func (m *Memory) Load(ctx context.Context, conversationID, userID string) ([]models.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[conversationID]
	if !ok || conv.userID != userID {
		return nil, ErrNotFound
	}
	turns := make([]models.Turn, len(conv.turns))
	copy(turns, conv.turns)
	return turns, nil
}

func (m *Memory) Upsert(ctx context.Context, userID string, turns []models.Turn, conversationID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conversationID == "" {
		id, err := helper.GenerateUUID()
		if err != nil {
			return "", err
		}
		m.conversations[id] = &memoryConversation{
			userID: userID,
			title:  conversationTitle(turns),
			turns:  append([]models.Turn(nil), turns...),
		}
		return id, nil
	}

	conv, ok := m.conversations[conversationID]
	if !ok || conv.userID != userID {
		return "", ErrNotFound
	}
	conv.turns = append(conv.turns, turns...)
	return conversationID, nil
}
