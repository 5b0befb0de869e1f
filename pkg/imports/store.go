package imports

import (
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Session holds the state of one in-progress import: the parsed sheets,
// the operator's manual jobsite link overrides, and bookkeeping. Sheets
// arrive one upload at a time; the merge only runs once all four are
// present.
type Session struct {
	ID        string               `json:"id"`
	TenantID  string               `json:"tenant_id"`
	Sheets    *models.ParsedSheets `json:"sheets"`
	Overrides map[string]*string   `json:"-"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Store is an in-memory session store. Reads hand out point-in-time
// copies and all mutation goes through Update under the store lock, so
// a merge can read a session while an upload rewrites it. Sessions are
// ephemeral working state; committed imports are persisted as import
// runs, so losing sessions on restart costs only re-uploading sheets.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore creates a session store. Sessions idle longer than ttl are
// dropped lazily on access; ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// snapshot copies the session so callers can read it outside the store
// lock while uploads and link edits mutate the stored one.
func (sess *Session) snapshot() *Session {
	clone := *sess
	clone.Sheets = sess.Sheets.Clone()
	clone.Overrides = make(map[string]*string, len(sess.Overrides))
	for id, accountID := range sess.Overrides {
		clone.Overrides[id] = accountID
	}
	return &clone
}

// Create starts a new session for a tenant.
func (s *Store) Create(tenantID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Sheets:    models.NewParsedSheets(),
		Overrides: make(map[string]*string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[session.ID] = session
	return session.snapshot()
}

// Get returns a point-in-time copy of a tenant's session. Callers read
// the copy freely; a concurrent upload on the same session lands in the
// stored session without racing them.
func (s *Store) Get(tenantID, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.TenantID != tenantID {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "import session %s not found", id)
	}
	if s.ttl > 0 && time.Since(session.UpdatedAt) > s.ttl {
		delete(s.sessions, id)
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "import session %s expired", id)
	}
	return session.snapshot(), nil
}

// Update runs fn against a tenant's session while holding the store
// lock, so concurrent uploads and link edits never interleave.
func (s *Store) Update(tenantID, id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.TenantID != tenantID {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "import session %s not found", id)
	}
	if err := fn(session); err != nil {
		return err
	}
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
