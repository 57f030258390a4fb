package session

import (
	"sync"

	"grimaldi/internal/composition"
	"grimaldi/internal/i18n"
)

// Состояния диалога
const (
	StateIdle      = ""
	StateHeight    = "profile_height"
	StateWeight    = "profile_weight"
	StateAge       = "profile_age"
	StateSex       = "profile_sex"
	StateAwaitFoto = "await_photo"
)

// Session — данные одного чата между сообщениями
type Session struct {
	ChatID int64
	UserID int64
	Lang   i18n.Language
	State  string

	// Профиль, сохранённый в базе
	Profile *composition.Profile

	// Черновик профиля во время /perfil
	Draft composition.Profile
}

// Store хранит сессии в памяти. Передаётся явно, без глобального состояния.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Open открывает сессию при первом обращении. Существующая сессия
// сохраняется, меняется только userID.
func (s *Store) Open(chatID, userID int64, lang i18n.Language) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{ChatID: chatID, Lang: lang}
		s.sessions[chatID] = sess
	}
	sess.UserID = userID
	return copySession(sess)
}

// Get возвращает копию сессии
func (s *Store) Get(chatID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	return copySession(sess), true
}

// SetProfile кэширует профиль пользователя
func (s *Store) SetProfile(chatID int64, p composition.Profile) {
	s.update(chatID, func(sess *Session) {
		sess.Profile = &p
	})
}

// SetState меняет шаг диалога
func (s *Store) SetState(chatID int64, state string) {
	s.update(chatID, func(sess *Session) {
		sess.State = state
	})
}

// SetLang меняет язык
func (s *Store) SetLang(chatID int64, lang i18n.Language) {
	s.update(chatID, func(sess *Session) {
		sess.Lang = lang
	})
}

// UpdateDraft изменяет черновик профиля
func (s *Store) UpdateDraft(chatID int64, fn func(*composition.Profile)) {
	s.update(chatID, func(sess *Session) {
		fn(&sess.Draft)
	})
}

// Close закрывает сессию (выход пользователя)
func (s *Store) Close(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

// Reset удаляет все сессии (остановка приложения)
func (s *Store) Reset() {
	s.mu.Lock()
	s.sessions = make(map[int64]*Session)
	s.mu.Unlock()
}

// Len возвращает число открытых сессий
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) update(chatID int64, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return
	}
	fn(sess)
}

func copySession(sess *Session) Session {
	out := *sess
	if sess.Profile != nil {
		p := *sess.Profile
		out.Profile = &p
	}
	return out
}
