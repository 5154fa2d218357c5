package presets

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	presetsObject   = "presets"
	presetsProperty = "messages"

	MaxMessageLength = 200
)

var (
	ErrEmptyMessage   = errors.New("preset message is empty")
	ErrMessageTooLong = fmt.Errorf("preset message longer than %d characters", MaxMessageLength)
)

// DefaultMessages seeds a store that has nothing saved yet.
func DefaultMessages() []string {
	return []string{
		"WELCOME",
		"GOAL!",
		"PENALTY",
		"TIMEOUT",
		"END OF PERIOD",
		"THANKS FOR COMING",
	}
}

type document struct {
	Messages []string `yaml:"messages"`
}

// Store is an ordered, duplicate-free list of preset scroll messages.
// With a nil gdata manager it runs memory-only.
type Store struct {
	mu       sync.Mutex
	gm       *gdata.Manager
	messages []string
}

// NewStore loads saved presets. A load failure is logged and the defaults
// are used instead.
func NewStore(gm *gdata.Manager) *Store {
	s := &Store{gm: gm, messages: DefaultMessages()}
	if err := s.load(); err != nil {
		log.Warn().Err(err).Msg("failed to load message presets, using defaults")
	}
	return s
}

func (s *Store) load() error {
	if s.gm == nil || !s.gm.ObjectPropExists(presetsObject, presetsProperty) {
		return nil
	}

	data, err := s.gm.LoadObjectProp(presetsObject, presetsProperty)
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal presets: %w", err)
	}
	s.messages = dedupe(doc.Messages)
	return nil
}

func (s *Store) saveLocked() error {
	if s.gm == nil {
		return nil
	}

	data, err := yaml.Marshal(document{Messages: s.messages})
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	if err := s.gm.SaveObjectProp(presetsObject, presetsProperty, data); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}

// List returns a copy of the presets in display order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// Add appends message unless it is already present. It reports whether the
// list changed.
func (s *Store) Add(message string) (bool, error) {
	message, err := normalize(message)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m == message {
			return false, nil
		}
	}
	s.messages = append(s.messages, message)
	if err := s.saveLocked(); err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		return false, err
	}
	return true, nil
}

// Remove deletes message. It reports whether it was present.
func (s *Store) Remove(message string) (bool, error) {
	message = strings.TrimSpace(message)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.messages {
		if m != message {
			continue
		}
		prev := s.messages
		s.messages = append(append([]string(nil), prev[:i]...), prev[i+1:]...)
		if err := s.saveLocked(); err != nil {
			s.messages = prev
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func normalize(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}

func dedupe(messages []string) []string {
	seen := make(map[string]struct{}, len(messages))
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
