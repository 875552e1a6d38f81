// Package cache persists per-target scan reports on disk with integrity
// checks and cross-process advisory locking.
//
// Layout: <dir>/<ascii-target>-<plugin-hash>.json holds the payload,
// <dir>/<ascii-target>-<plugin-hash>.lock is the advisory lock. The
// payload is {"data": <report>, "checksum": <hex sha-256>} where the
// checksum covers the canonical (key-sorted) serialization of data.
package cache

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"reconx/internal/core/domain"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

// LockTimeout is the acquisition budget before the cache is skipped.
// Contention never blocks a scan.
const LockTimeout = 1 * time.Second

const lockRetryDelay = 50 * time.Millisecond

// Store is an on-disk cache of TargetReports, shared across processes.
type Store struct {
	dir     string
	version string
	logger  logx.Logger
}

// envelope is the on-disk payload shape.
type envelope struct {
	Data     *domain.TargetReport `json:"data"`
	Checksum string               `json:"checksum"`
}

// NewStore opens (creating if needed) the cache directory.
func NewStore(dir, version string, logger logx.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create cache dir %s", dir)
	}

	return &Store{
		dir:     dir,
		version: version,
		logger:  logger.With("component", "cache"),
	}, nil
}

// PluginHash derives the cache-key component from the engine version and
// the selected plugin set: the first 8 hex digits of
// md5(version || sorted names joined with "," || feature toggles).
// Changing the version, the plugin set, or a toggle invalidates prior
// entries.
func PluginHash(version string, pluginNames []string, features []string) string {
	names := append([]string(nil), pluginNames...)
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(version)
	b.WriteString(strings.Join(names, ","))
	for _, f := range features {
		b.WriteString(f)
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:8]
}

// Canonical serializes a report in its canonical form: UTF-8 JSON, object
// keys sorted, no insignificant whitespace. encoding/json sorts map keys;
// TargetReport declares its fields in sorted key order.
func Canonical(report *domain.TargetReport) ([]byte, error) {
	if report.Contributions == nil {
		report.Contributions = make(map[string]int)
	}
	if report.Subdomains == nil {
		report.Subdomains = []string{}
	}
	return json.Marshal(report)
}

// Checksum returns the hex SHA-256 digest of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) payloadPath(asciiTarget, hash string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", asciiTarget, hash))
}

func (s *Store) lockPath(asciiTarget, hash string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.lock", asciiTarget, hash))
}

// acquire takes the advisory lock with the short timeout. Callers must
// Unlock the returned flock when err is nil.
func (s *Store) acquire(ctx context.Context, asciiTarget, hash string) (*flock.Flock, error) {
	lock := flock.New(s.lockPath(asciiTarget, hash))

	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Wrap(err, "lock acquisition failed")
	}
	if !locked {
		return nil, errors.Wrapf(errors.ErrLockHeld, "%s", lock.Path())
	}

	return lock, nil
}

// Read returns the cached report for (target, hash) if present and intact.
// Lock contention and corruption are both treated as a miss; corruption is
// logged. The boolean reports a usable hit.
func (s *Store) Read(ctx context.Context, asciiTarget, hash string) (*domain.TargetReport, bool) {
	lock, err := s.acquire(ctx, asciiTarget, hash)
	if err != nil {
		if errors.IsLockHeld(err) {
			s.logger.Warn("cache lock contended, scanning without cache", "target", asciiTarget)
		} else {
			s.logger.Warn("cache lock error", "target", asciiTarget, "error", err.Error())
		}
		return nil, false
	}
	defer lock.Unlock()

	raw, err := os.ReadFile(s.payloadPath(asciiTarget, hash))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache unreadable", "target", asciiTarget, "error", err.Error())
		}
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		s.logger.Warn("cache corrupt, rescanning", "target", asciiTarget)
		return nil, false
	}

	canonical, err := Canonical(env.Data)
	if err != nil {
		s.logger.Warn("cache not canonicalizable, rescanning", "target", asciiTarget)
		return nil, false
	}

	if Checksum(canonical) != env.Checksum {
		s.logger.Warn("cache checksum mismatch, rescanning", "target", asciiTarget)
		return nil, false
	}

	s.logger.Debug("cache hit", "target", asciiTarget, "subdomains", len(env.Data.Subdomains))
	return env.Data, true
}

// Write persists a report. Lock contention skips the write with a warning
// and is not fatal. The payload lands via a sibling .tmp file and an
// atomic rename so readers never observe a partial write.
func (s *Store) Write(ctx context.Context, asciiTarget, hash string, report *domain.TargetReport) error {
	lock, err := s.acquire(ctx, asciiTarget, hash)
	if err != nil {
		if errors.IsLockHeld(err) {
			s.logger.Warn("cache lock contended, skipping cache write", "target", asciiTarget)
			return nil
		}
		return err
	}
	defer lock.Unlock()

	canonical, err := Canonical(report)
	if err != nil {
		return errors.Wrap(err, "cannot canonicalize report")
	}

	env := envelope{Data: report, Checksum: Checksum(canonical)}
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "cannot marshal cache payload")
	}

	final := s.payloadPath(asciiTarget, hash)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write %s", tmp)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "cannot finalize %s", final)
	}

	s.logger.Debug("cache written", "target", asciiTarget, "subdomains", len(report.Subdomains))
	return nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}
