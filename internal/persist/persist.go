// Package persist loads and saves the single user record. The backing
// medium is chosen by configuration; the rest of the program only sees
// the Persister interface.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"calassist/internal/config"
	appLog "calassist/internal/log"
	"calassist/internal/model"
)

// ErrNotFound means nothing has been persisted yet. It is recoverable:
// callers substitute model.EmptyUser.
var ErrNotFound = errors.New("user record not found")

// ErrReadOnly is returned by saves through a Persister guarding a record
// that exists but could not be read.
var ErrReadOnly = errors.New("user record is read-only")

// Persister is the storage collaborator of the event store.
type Persister interface {
	Load(ctx context.Context) (model.User, error)
	Save(ctx context.Context, u model.User) error
}

// LoadOrEmpty loads the user, substituting an empty record on ErrNotFound.
// Other errors are returned together with the empty record so the caller
// can keep running on in-memory state.
func LoadOrEmpty(ctx context.Context, p Persister) (model.User, error) {
	u, err := p.Load(ctx)
	switch {
	case err == nil:
		if u.Events == nil {
			u.Events = []model.Event{}
		}
		return u, nil
	case errors.Is(err, ErrNotFound):
		appLog.Warn("user record not found, starting with empty user")
		return model.EmptyUser(), nil
	default:
		return model.EmptyUser(), err
	}
}

// LoadGuarded is LoadOrEmpty for startup. When the stored record exists
// but cannot be read, the returned Persister refuses every save, so the
// unreadable record stays on disk untouched while the program keeps
// running on the empty in-memory record.
func LoadGuarded(ctx context.Context, p Persister) (model.User, Persister, error) {
	u, err := LoadOrEmpty(ctx, p)
	if err != nil {
		return u, ReadOnly(p, err), err
	}
	return u, p, nil
}

type readOnly struct {
	Persister
	cause error
}

// ReadOnly wraps p so that Save always fails with ErrReadOnly. Load is
// passed through.
func ReadOnly(p Persister, cause error) Persister {
	return readOnly{Persister: p, cause: cause}
}

func (r readOnly) Save(context.Context, model.User) error {
	if r.cause == nil {
		return ErrReadOnly
	}
	return fmt.Errorf("%w: %v", ErrReadOnly, r.cause)
}

// Open builds the Persister selected by cfg and a close func for it.
func Open(ctx context.Context, cfg config.StorageConfig) (Persister, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendFile, "":
		return NewFileStore(cfg.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// encodeUser renders u as compact JSON without HTML escaping, the same
// bytes a browser JSON.stringify would produce for this document.
// Strings holding invalid UTF-8 are the exception: those are written
// with U+FFFD substituted.
func encodeUser(u model.User) ([]byte, error) {
	if u.Events == nil {
		u.Events = []model.Event{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(u); err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return restoreLineSeparators(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// restoreLineSeparators undoes encoding/json's \u2028 and \u2029 escapes,
// which JSON.stringify writes as raw characters.
func restoreLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 == len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+5 < len(b) && string(b[i+2:i+5]) == "202" {
			switch b[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		// Copy the whole escape pair so an escaped backslash is never
		// taken for the start of another escape.
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

func decodeUser(data []byte) (model.User, error) {
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return model.User{}, fmt.Errorf("decode user: %w", err)
	}
	if u.Events == nil {
		u.Events = []model.Event{}
	}
	return u, nil
}
