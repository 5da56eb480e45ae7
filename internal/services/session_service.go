package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"galinhada/server/internal/models"
	"galinhada/server/internal/utils"
)

var (
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnchanged действие ничего не поменяло: Update не сохраняет и не оповещает
	ErrUnchanged = errors.New("order unchanged")
)

const (
	DefaultSessionTTL = 2 * time.Hour
	sessionKeyPrefix  = "order:session:"
	sessionLockShards = 64
)

// SessionStore хранит снапшот заказа на время одной сессии формы.
// Между сессиями ничего не переживает: TTL истек - заказа нет
type SessionStore interface {
	Load(ctx context.Context, id string) (models.OrderSnapshot, error)
	Save(ctx context.Context, id string, snap models.OrderSnapshot) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	snap      models.OrderSnapshot
	expiresAt time.Time
}

// MemorySessionStore хранилище в памяти процесса (по умолчанию, без Redis)
type MemorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (models.OrderSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return models.OrderSnapshot{}, ErrSessionNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return models.OrderSnapshot{}, ErrSessionNotFound
	}
	return entry.snap, nil
}

func (m *MemorySessionStore) Save(_ context.Context, id string, snap models.OrderSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	// заодно чистим протухшие сессии
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[id] = memoryEntry{snap: snap, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len количество живых записей (для метрик и тестов)
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisSessionStore снапшоты в Redis под ключом order:session:<id>, TTL обновляется при каждом сохранении
type RedisSessionStore struct {
	redis *utils.RedisClient
	ttl   time.Duration
}

func NewRedisSessionStore(redisUtil *utils.RedisClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{redis: redisUtil, ttl: ttl}
}

func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (models.OrderSnapshot, error) {
	var snap models.OrderSnapshot
	if err := r.redis.GetJSON(ctx, SessionKey(id), &snap); err != nil {
		if errors.Is(err, utils.ErrKeyNotFound) {
			return models.OrderSnapshot{}, ErrSessionNotFound
		}
		return models.OrderSnapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return snap, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, id string, snap models.OrderSnapshot) error {
	if err := r.redis.SetJSON(ctx, SessionKey(id), snap, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.redis.Delete(ctx, SessionKey(id))
}

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx)
}

// ChangeListener получает состояние после каждого сохраненного изменения
type ChangeListener func(id string, state *models.OrderState)

// SessionService выдает сессии формы и последовательно применяет к ним действия пользователя
type SessionService struct {
	store   SessionStore
	catalog *models.Catalog
	opts    models.OrderOptions
	logger  *zap.Logger
	locks   [sessionLockShards]sync.Mutex

	listeners []ChangeListener
}

func NewSessionService(store SessionStore, catalog *models.Catalog, opts models.OrderOptions, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:   store,
		catalog: catalog,
		opts:    opts,
		logger:  logger,
	}
}

func (s *SessionService) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%sessionLockShards]
}

// OnChange подписка на изменения. Регистрировать до начала обработки запросов.
// Слушатель вызывается под блокировкой сессии, поэтому изменения одной сессии
// приходят строго по порядку; блокироваться в нем нельзя
func (s *SessionService) OnChange(listener ChangeListener) {
	s.listeners = append(s.listeners, listener)
}

// StoreName "redis" или "memory", для health
func (s *SessionService) StoreName() string {
	if _, ok := s.store.(*RedisSessionStore); ok {
		return "redis"
	}
	return "memory"
}

// Ping проверяет хранилище, если оно внешнее
func (s *SessionService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Create новая сессия с пустым заказом
func (s *SessionService) Create(ctx context.Context) (string, *models.OrderState, error) {
	id := uuid.New().String()
	state := models.NewOrderState(s.catalog, s.opts)

	if err := s.store.Save(ctx, id, state.Snapshot()); err != nil {
		return "", nil, err
	}

	s.logger.Info("session created", zap.String("session_id", id))
	return id, state, nil
}

// Get текущее состояние заказа сессии
func (s *SessionService) Get(ctx context.Context, id string) (*models.OrderState, error) {
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.RestoreOrderState(s.catalog, s.opts, snap)
}

// Update применяет действие под блокировкой сессии и сохраняет результат
func (s *SessionService) Update(ctx context.Context, id string, fn func(*models.OrderState) error) (*models.OrderState, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// отклоненная мутация не меняет заказ, сохранять нечего
	if err := fn(state); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return state, nil
		}
		return state, err
	}

	if err := s.store.Save(ctx, id, state.Snapshot()); err != nil {
		return nil, err
	}
	for _, listener := range s.listeners {
		listener(id, state)
	}
	return state, nil
}

// Inspect читает заказ под блокировкой сессии: между чтением и fn
// никакое изменение этой сессии не проскочит
func (s *SessionService) Inspect(ctx context.Context, id string, fn func(*models.OrderState)) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(state)
	return nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("session discarded", zap.String("session_id", id))
	return nil
}
