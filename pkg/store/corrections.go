package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const correctionsVersion = 1

// scopeMaps holds one community's approved corrections, names and scores
// kept in separate sub-maps.
type scopeMaps struct {
	Names  map[string]string `json:"names"`
	Scores map[string]int64  `json:"scores"`
}

// document is the on-disk envelope, versioned so a future format change can
// migrate old files in place.
type document struct {
	Version int                   `json:"version"`
	Scopes  map[string]*scopeMaps `json:"scopes"`
}

// Corrections is the durable memory of user-approved fixes to recurring OCR
// misreads. Keys are normalized raw OCR text (trim + lowercase), scoped per
// community. Writes are read-modify-persist under a single writer lock and
// the file is rewritten atomically; reads never take the lock, they see the
// last committed snapshot.
type Corrections struct {
	path string
	mu   sync.Mutex
	snap atomic.Value // *document
}

// OpenCorrections loads the correction document at path, starting empty when
// the file does not exist yet.
func OpenCorrections(path string) (*Corrections, error) {
	c := &Corrections{path: path}
	doc := &document{Version: correctionsVersion, Scopes: map[string]*scopeMaps{}}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("corrections %s: %w", path, err)
		}
		if doc.Scopes == nil {
			doc.Scopes = map[string]*scopeMaps{}
		}
	case os.IsNotExist(err):
		// first run
	default:
		return nil, fmt.Errorf("corrections %s: %w", path, err)
	}
	c.snap.Store(doc)
	return c, nil
}

// NormalizeKey is the canonical key form: surrounding whitespace stripped,
// lowercased.
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (c *Corrections) snapshot() *document {
	return c.snap.Load().(*document)
}

// GetNameCorrection returns the approved fix for a raw name misread, if any.
func (c *Corrections) GetNameCorrection(scope, raw string) (string, bool) {
	s, ok := c.snapshot().Scopes[scope]
	if !ok {
		return "", false
	}
	v, ok := s.Names[NormalizeKey(raw)]
	return v, ok
}

// GetScoreCorrection returns the approved fix for a raw score misread, if any.
func (c *Corrections) GetScoreCorrection(scope, raw string) (int64, bool) {
	s, ok := c.snapshot().Scopes[scope]
	if !ok {
		return 0, false
	}
	v, ok := s.Scores[NormalizeKey(raw)]
	return v, ok
}

// RecordNameCorrection stores a user-approved name fix and persists the
// document. The in-memory snapshot is updated even when the disk write
// fails; the error tells the caller persistence is not guaranteed.
func (c *Corrections) RecordNameCorrection(scope, raw, corrected string) error {
	return c.update(scope, func(s *scopeMaps) {
		s.Names[NormalizeKey(raw)] = corrected
	})
}

// RecordScoreCorrection stores a user-approved score fix and persists the
// document.
func (c *Corrections) RecordScoreCorrection(scope, raw string, corrected int64) error {
	return c.update(scope, func(s *scopeMaps) {
		s.Scores[NormalizeKey(raw)] = corrected
	})
}

func (c *Corrections) update(scope string, mut func(*scopeMaps)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot().clone()
	s, ok := next.Scopes[scope]
	if !ok {
		s = &scopeMaps{Names: map[string]string{}, Scores: map[string]int64{}}
		next.Scopes[scope] = s
	}
	mut(s)
	c.snap.Store(next)
	return c.persist(next)
}

// persist rewrites the whole document atomically: tmp file in the same
// directory, then rename over the old one.
func (c *Corrections) persist(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corrections: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("corrections dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".corrections-*.json")
	if err != nil {
		return fmt.Errorf("corrections tmp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write corrections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close corrections: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename corrections: %w", err)
	}
	return nil
}

func (d *document) clone() *document {
	out := &document{Version: d.Version, Scopes: make(map[string]*scopeMaps, len(d.Scopes))}
	for k, s := range d.Scopes {
		ns := &scopeMaps{
			Names:  make(map[string]string, len(s.Names)),
			Scores: make(map[string]int64, len(s.Scores)),
		}
		for rk, rv := range s.Names {
			ns.Names[rk] = rv
		}
		for rk, rv := range s.Scores {
			ns.Scores[rk] = rv
		}
		out.Scopes[k] = ns
	}
	return out
}
