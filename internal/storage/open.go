package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/stride/internal/constants"
)

// Kind names a storage backend.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindJSON     Kind = "json"
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindRedis    Kind = "redis"
	KindMemory   Kind = "memory"
)

// IsFile reports whether the backend lives in a local file.
func (k Kind) IsFile() bool {
	return k == KindSQLite || k == KindJSON
}

// Options selects and configures a backend.
type Options struct {
	// Target is a file path or connection string.
	Target string
	// Password is used by network backends whose Target has none.
	Password string
	// AllowCredentials permits a password inside Target. It is set when
	// Target came from the keyring rather than a config file or flag.
	AllowCredentials bool
	// RedisPrefix namespaces keys in Redis.
	RedisPrefix string
}

// KindOf picks the backend for target from its scheme or file extension.
func KindOf(target string) Kind {
	t := strings.TrimSpace(target)
	switch {
	case t == "memory:" || t == ":memory:":
		return KindMemory
	case isPostgresURL(t):
		return KindPostgres
	case isMySQLURL(t):
		return KindMySQL
	case isRedisURL(t):
		return KindRedis
	case strings.EqualFold(filepath.Ext(t), ".json"):
		return KindJSON
	default:
		return KindSQLite
	}
}

// Open returns an unloaded provider for opts.Target. Callers run Init or
// Load before use.
func Open(opts Options) (Provider, error) {
	target := strings.TrimSpace(opts.Target)
	if target == "" {
		return nil, fmt.Errorf("%w: no store configured", ErrInvalidConnectionString)
	}

	kind := KindOf(target)
	if !opts.AllowCredentials {
		if err := checkCredentials(kind, target); err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindMemory:
		return NewMemoryStore(), nil
	case KindJSON:
		return NewJSONStore(target), nil
	case KindPostgres:
		return NewPostgresStore(target), nil
	case KindMySQL:
		return NewMySQLStore(target, opts.Password)
	case KindRedis:
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = constants.DefaultRedisPrefix
		}
		return NewRedisStore(target, opts.Password, prefix)
	default:
		return NewSQLiteStore(target), nil
	}
}

func checkCredentials(kind Kind, target string) error {
	var err error
	switch kind {
	case KindPostgres:
		err = ValidatePostgresConnString(target)
	case KindMySQL:
		err = ValidateMySQLConnString(target)
	case KindRedis:
		err = ValidateRedisURL(target)
	}
	return err
}

// HasEmbeddedCredentials reports whether a network connection string
// carries a password.
func HasEmbeddedCredentials(target string) bool {
	return errors.Is(checkCredentials(KindOf(target), target), ErrEmbeddedCredentials)
}

// KindOfProvider reports the backend kind of p.
func KindOfProvider(p Provider) Kind {
	switch s := p.(type) {
	case *MemoryStore:
		return KindMemory
	case *JSONStore:
		return KindJSON
	case *RedisStore:
		return KindRedis
	case *SQLStore:
		return Kind(s.dialect.Name())
	default:
		return ""
	}
}
