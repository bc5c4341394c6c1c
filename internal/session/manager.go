package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekoallergy22/audio-app-2025/internal/audio"
	"github.com/nekoallergy22/audio-app-2025/internal/config"
	"github.com/nekoallergy22/audio-app-2025/internal/segment"
	"github.com/nekoallergy22/audio-app-2025/internal/tts"
	"github.com/nekoallergy22/audio-app-2025/internal/validate"
)

// ErrSessionNotFound is returned when no session has the given identifier.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live sessions and builds new ones bound to a speech
// engine.
type Manager struct {
	cfg    *config.Config
	engine tts.Engine
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager that synthesizes with engine.
func NewManager(cfg *config.Config, engine tts.Engine, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		engine:   engine,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with the given voice settings. Zero-valued
// settings fields fall back to the configured defaults before validation.
func (m *Manager) Create(settings VoiceSettings) (*Session, error) {
	settings = m.applyDefaults(settings)
	if err := validate.VoiceSettings(settings.Language, settings.VoiceName,
		settings.SpeakingRate, settings.Pitch, m.cfg.Languages); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		settings:  settings,
		delimiter: m.cfg.Delimiter,
		logger:    m.logger,
		subs:      make(map[chan segment.Event]struct{}),
	}
	sess.validate = func(text string) error {
		return validate.Text(text, m.cfg.MaxTextLength)
	}
	sess.store = segment.NewStore(segment.StoreConfig{
		Synthesize:    m.synthesizeFunc(settings),
		ProbeDuration: probeDuration,
		OnProgress:    sess.publish,
		Logger:        m.logger.With("session_id", sess.ID),
	})

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	m.logger.Info("session created",
		"session_id", sess.ID,
		"language", settings.Language,
		"voice", settings.VoiceName,
	)
	return sess, nil
}

// Get returns the session with the given identifier.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete closes the session and removes it from the manager.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.close()
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

// synthesizeFunc binds the engine and voice settings into the store's
// synthesize callback. Segment text is re-validated at call time since it
// can be edited after the session-level check.
func (m *Manager) synthesizeFunc(settings VoiceSettings) segment.SynthesizeFunc {
	return func(ctx context.Context, text string) ([]byte, error) {
		if err := validate.Text(text, m.cfg.MaxTextLength); err != nil {
			return nil, err
		}
		result, err := m.engine.Synthesize(ctx, tts.SynthesizeRequest{
			Text:         text,
			Language:     settings.Language,
			VoiceName:    settings.VoiceName,
			SpeakingRate: settings.SpeakingRate,
			Pitch:        settings.Pitch,
		})
		if err != nil {
			return nil, fmt.Errorf("engine %s: %w", m.engine.Name(), err)
		}
		return result.Data, nil
	}
}

func (m *Manager) applyDefaults(settings VoiceSettings) VoiceSettings {
	if settings.Language == "" {
		settings.Language = m.cfg.DefaultLanguage
	}
	if settings.VoiceName == "" {
		if settings.Language == m.cfg.DefaultLanguage {
			settings.VoiceName = m.cfg.DefaultVoice
		} else {
			settings.VoiceName = settings.Language + "-Standard-A"
		}
	}
	if settings.SpeakingRate == 0 {
		settings.SpeakingRate = m.cfg.DefaultSpeakingRate
	}
	if settings.Pitch == 0 {
		settings.Pitch = m.cfg.DefaultPitch
	}
	return settings
}

// probeDuration estimates playback duration from the synthesized bytes.
// Estimation failures are not fatal; the client can report a measured
// duration instead.
func probeDuration(data []byte) float64 {
	seconds, err := audio.EstimateDuration(data)
	if err != nil {
		return 0
	}
	return seconds
}
