package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mmeshcher/claimdesk/internal/model"
)

// MemoryRepository хранит данные в памяти процесса и соблюдает те же
// ограничения уникальности, что и схема PostgreSQL.
type MemoryRepository struct {
	mu     sync.Mutex
	users  map[string]model.User
	claims map[string]model.Claim
	nextID int64
	now    func() time.Time
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]model.User),
		claims: make(map[string]model.Claim),
		now:    time.Now,
	}
}

// Close ничего не освобождает.
func (m *MemoryRepository) Close() error { return nil }

// Ping всегда успешен.
func (m *MemoryRepository) Ping(context.Context) error { return nil }

// CountUsers возвращает количество учётных записей.
func (m *MemoryRepository) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

// CreateAdmin создаёт администратора, только если пользователей ещё нет.
func (m *MemoryRepository) CreateAdmin(_ context.Context, email string, passwordHash []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.users) > 0 {
		return 0, ErrAdminExists
	}

	m.nextID++
	m.users[email] = model.User{
		ID:           m.nextID,
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		IsAdmin:      true,
		CreatedAt:    m.now().UTC(),
	}
	return m.nextID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// CreateClaim сохраняет заявку, если номер заказа ещё не использован.
func (m *MemoryRepository) CreateClaim(_ context.Context, c model.Claim) (*model.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.claims[c.OrderNumber]; ok {
		return nil, ErrOrderNumberExists
	}

	c.CreatedAt = m.now().UTC()
	m.claims[c.OrderNumber] = c
	return &c, nil
}
