package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// DefaultAnswerPrompt is the built-in answer-generation template.
const DefaultAnswerPrompt = "Context:\n%s\n\nQuestion: %s\n\nAnswer briefly:"

var builtinPrompts = map[string]string{
	driven.PromptAnswer: DefaultAnswerPrompt,
}

// PromptStore serves prompt templates from <dir>/<name>.txt.
//
// The directory and a copy of each built-in template are written on first
// use so users have a file to edit. Templates are cached until Reload.
type PromptStore struct {
	dir string

	seed    sync.Once
	seedErr error

	mu     sync.RWMutex
	loaded map[string]string
}

// NewPromptStore returns a store rooted at dir, or ~/.sercha-rag/prompts when
// dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, loaded: map[string]string{}}, nil
}

// Dir returns the directory templates are read from.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name. Built-in templates are returned
// when their file is missing or unreadable.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]

	s.seed.Do(s.writeBuiltins)
	if s.seedErr != nil {
		if known {
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, s.seedErr)
	}

	s.mu.RLock()
	text, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}

	text, err := s.read(name)
	switch {
	case err == nil:
	case known:
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompts: %s unreadable, using built-in: %v", name, err)
		}
		text = builtin
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent Load may have stored the template first; keep that one.
	if existing, ok := s.loaded[name]; ok {
		return existing, nil
	}
	s.loaded[name] = text
	return text, nil
}

// Reload forgets cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.loaded)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) writeBuiltins() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, text := range builtinPrompts {
		f, err := os.OpenFile(s.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			s.seedErr = fmt.Errorf("create prompt %q: %w", name, err)
			return
		}
		_, err = f.WriteString(text + "\n")
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			s.seedErr = fmt.Errorf("write prompt %q: %w", name, err)
			return
		}
	}
}
