// Package store 提供房间快照与身份索引的键值存储
package store

import (
	"sort"
	"sync"

	"github.com/palemoky/undercover/internal/apperrors"
)

// Store 房间存储，房间 ID -> 房间快照
type Store[T any] interface {
	Get(id string) (T, bool)
	Put(id string, v T)
	Delete(id string)
	List() []string
}

// Registry 身份索引，身份 -> 房间 ID
type Registry interface {
	Register(identity, roomID string) error
	Unregister(identity string)
	Lookup(identity string) (string, bool)
}

// MemoryStore 内存房间存储
type MemoryStore[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{items: make(map[string]T)}
}

func (s *MemoryStore[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	return v, ok
}

func (s *MemoryStore[T]) Put(id string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = v
}

func (s *MemoryStore[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// List 返回排序后的全部 ID
func (s *MemoryStore[T]) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MemoryRegistry 内存身份索引
type MemoryRegistry struct {
	rooms map[string]string
	mu    sync.RWMutex
}

// NewMemoryRegistry 创建身份索引
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rooms: make(map[string]string)}
}

// Register 登记身份所在房间，同一身份只能在一个房间
func (r *MemoryRegistry) Register(identity, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.rooms[identity]; ok && current != roomID {
		return apperrors.ErrIdentityInRoom
	}
	r.rooms[identity] = roomID
	return nil
}

func (r *MemoryRegistry) Unregister(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, identity)
}

func (r *MemoryRegistry) Lookup(identity string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.rooms[identity]
	return roomID, ok
}
