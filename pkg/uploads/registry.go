package uploads

import (
	"fmt"
	"sync"
	"time"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session is one in-flight chunked upload. Chunks are held in memory until
// Complete reassembles them, so sessions never survive a process restart.
type Session struct {
	ID          string
	Request     api.StartChunkedUploadRequest
	TotalChunks int
	CreatedAt   time.Time

	mu     sync.Mutex
	chunks map[int][]byte
}

func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > config.UploadSessionTimeout()
}

func (s *Session) PutChunk(number int, content []byte) error {
	if number < 0 || number >= s.TotalChunks {
		return fmt.Errorf("chunk number %d out of range [0, %d)", number, s.TotalChunks)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[number] = content
	return nil
}

// MissingChunks returns the chunk indices never received, in order.
func (s *Session) MissingChunks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []int
	for i := 0; i < s.TotalChunks; i++ {
		if _, ok := s.chunks[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Assemble concatenates the chunks in index order. All chunks must be
// present; call MissingChunks first.
func (s *Session) Assemble() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	content := make([]byte, 0, s.Request.FileSize)
	for i := 0; i < s.TotalChunks; i++ {
		content = append(content, s.chunks[i]...)
	}
	return content
}

// Registry tracks upload sessions for one process. Stale sessions are
// swept opportunistically on Start and lookup rather than by a timer.
type Registry struct {
	sessions *utils.ConcurrentMap[string, *Session]
}

func NewRegistry() *Registry {
	return &Registry{sessions: utils.NewConcurrentMap[string, *Session]()}
}

func (r *Registry) Start(request api.StartChunkedUploadRequest, totalChunks int) *Session {
	r.SweepStale(time.Now())
	session := &Session{
		ID:          uuid.NewString(),
		Request:     request,
		TotalChunks: totalChunks,
		CreatedAt:   time.Now(),
		chunks:      map[int][]byte{},
	}
	r.sessions.Set(session.ID, session)
	return session
}

// Get returns the live session, ErrSessionExpired for a session past its
// timeout, and ErrSessionNotFound otherwise.
func (r *Registry) Get(id string) (*Session, error) {
	session, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		r.sessions.Remove(id)
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (r *Registry) Remove(id string) {
	r.sessions.Remove(id)
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// SweepStale drops every session past its timeout.
func (r *Registry) SweepStale(now time.Time) {
	for _, id := range r.sessions.Keys() {
		session, ok := r.sessions.Get(id)
		if !ok {
			continue
		}
		if session.Expired(now) {
			log.Debug().Str("upload_id", id).Msg("dropping expired upload session")
			r.sessions.Remove(id)
		}
	}
}
