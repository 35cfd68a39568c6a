package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ganttboard/internal/model"
)

// State 持久化的登录状态
type State struct {
	Token string             `json:"token"`
	User  *model.UserProfile `json:"user,omitempty"`
}

// Store 保存登录状态；Load 在没有保存过时返回空 State
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// Session 当前登录的 token 与用户信息，由 Client 在 401/403 时清空
type Session struct {
	mu    sync.RWMutex
	store Store
	state State
}

func NewSession(store Store) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Session{store: store}
}

// Hydrate 从 Store 恢复登录状态
func (s *Session) Hydrate() error {
	st, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func (s *Session) Set(token string, user model.UserProfile) error {
	s.mu.Lock()
	s.state = State{Token: token, User: &user}
	st := s.state
	s.mu.Unlock()
	return s.store.Save(st)
}

// SetUser 刷新用户信息，token 不变
func (s *Session) SetUser(user model.UserProfile) error {
	s.mu.Lock()
	s.state.User = &user
	st := s.state
	s.mu.Unlock()
	return s.store.Save(st)
}

func (s *Session) Clear() error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	return s.store.Clear()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Session) User() (model.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return model.UserProfile{}, false
	}
	return *s.state.User, true
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

func (s *Session) IsAdmin() bool {
	u, ok := s.User()
	return ok && u.IsAdmin
}

// MemoryStore 进程内保存，用于测试和一次性命令
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryStore) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
	return nil
}

// FileStore 以 JSON 保存在本地文件，权限 0600
type FileStore struct {
	Path string
}

// DefaultSessionPath 用户配置目录下的 ganttboard/session.json
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ganttboard", "session.json"), nil
}

func (f FileStore) Load() (State, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("corrupt session file %s: %w", f.Path, err)
	}
	return st, nil
}

func (f FileStore) Save(st State) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
