package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/tidwall/buntdb"
)

const sessionKey = "session"

var ErrNoSession = errors.New("not logged in")

// Store keeps the portal session on disk between command invocations.
type Store interface {
	Save(session attendance.Session) error
	Load() (attendance.Session, error)
	Clear() error
	Close() error
}

type record struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	Email      string    `json:"email"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type buntStore struct {
	db  *buntdb.DB
	now func() time.Time
}

// Open opens the store at path. ":memory:" keeps everything in memory.
func Open(path string) (Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &buntStore{db: db, now: time.Now}, nil
}

// Save replaces the stored session. A session with an expiry is dropped by
// the store once it passes.
func (s *buntStore) Save(session attendance.Session) error {
	bs, err := json.Marshal(record{
		Token:      session.Token,
		UserID:     session.UserID,
		EmployeeID: session.EmployeeID,
		CompanyID:  session.CompanyID,
		Email:      session.Email,
		ExpiresAt:  session.ExpiresAt,
	})
	if err != nil {
		return err
	}

	var opts *buntdb.SetOptions
	if !session.ExpiresAt.IsZero() {
		ttl := session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return fmt.Errorf("token expired at %s", session.ExpiresAt.Format(time.RFC3339))
		}
		opts = &buntdb.SetOptions{Expires: true, TTL: ttl}
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sessionKey, string(bs), opts)
		return err
	})
}

func (s *buntStore) Load() (attendance.Session, error) {
	var rec record
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(sessionKey)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &rec)
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return attendance.Session{}, ErrNoSession
	} else if err != nil {
		return attendance.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	return attendance.Session{
		Token:      rec.Token,
		UserID:     rec.UserID,
		EmployeeID: rec.EmployeeID,
		CompanyID:  rec.CompanyID,
		Email:      rec.Email,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}

func (s *buntStore) Clear() error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(sessionKey)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

func (s *buntStore) Close() error {
	return s.db.Close()
}
