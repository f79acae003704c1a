// Package manager provides the orchestration facade over sessions: creation,
// lookup, message dispatch through the agent loop, streaming, and expiration
// sweeps.
package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/context-kit/contextkit/internal/agent"
	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/event"
	"github.com/context-kit/contextkit/internal/logging"
	"github.com/context-kit/contextkit/internal/provider"
	"github.com/context-kit/contextkit/internal/repository"
	"github.com/context-kit/contextkit/internal/tool"
	"github.com/context-kit/contextkit/pkg/types"
)

// ErrSessionNotFound reports an unknown session id. It is distinguishable
// from provider and tool failures so transports can answer 404 instead of 500.
var ErrSessionNotFound = errors.New("session not found")

// ProviderSource resolves a session's provider configuration to a usable
// backend. *provider.Factory is the production implementation.
type ProviderSource interface {
	Get(ctx context.Context, cfg domain.ProviderConfig) (provider.Provider, error)
}

// Manager orchestrates sessions. All dependencies are injected; the process
// entry point owns construction.
type Manager struct {
	repo        repository.SessionRepository
	registry    *tool.Registry
	providers   ProviderSource
	controller  *agent.Controller
	bus         *event.Bus
	defaultCfg  domain.ProviderConfig
	maxAgeHours int
}

// NewManager creates a session manager.
func NewManager(
	repo repository.SessionRepository,
	registry *tool.Registry,
	providers ProviderSource,
	bus *event.Bus,
	defaultCfg domain.ProviderConfig,
	maxAgeHours int,
) *Manager {
	return &Manager{
		repo:        repo,
		registry:    registry,
		providers:   providers,
		controller:  agent.NewController(registry),
		bus:         bus,
		defaultCfg:  defaultCfg,
		maxAgeHours: maxAgeHours,
	}
}

// CreateSession allocates a new session and returns it together with a
// snapshot of which tool capabilities are enabled for it.
func (m *Manager) CreateSession(ctx context.Context, userID string, cfg *domain.ProviderConfig, systemPrompt string, activeTools []string) (*domain.Session, types.CapabilityProfile, error) {
	providerCfg := m.defaultCfg
	if cfg != nil {
		providerCfg = *cfg
	}

	session := domain.NewSession(userID, providerCfg, systemPrompt, activeTools)
	if err := m.repo.Save(ctx, session); err != nil {
		return nil, types.CapabilityProfile{}, fmt.Errorf("save session: %w", err)
	}

	m.bus.Publish(event.New(event.SessionCreated, session.ID().String(), ""))
	logging.Info().
		Str("session_id", session.ID().String()).
		Str("user_id", userID).
		Strs("active_tools", session.ActiveTools()).
		Msg("session created")

	return session, m.capabilityProfile(session), nil
}

// GetSession looks up a session by id.
func (m *Manager) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	session, err := m.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session. Deleting an unknown id reports
// ErrSessionNotFound.
func (m *Manager) DeleteSession(ctx context.Context, id domain.SessionID) error {
	err := m.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return err
	}
	m.bus.Publish(event.New(event.SessionDeleted, id.String(), ""))
	return nil
}

// SendMessage appends the user message, runs the agent loop and records the
// exchange as a task. The session is persisted on both the success and the
// failure path; on failure the returned task is still populated so callers
// can render the error without a second round trip.
func (m *Manager) SendMessage(ctx context.Context, id domain.SessionID, content, mode string) (*domain.Task, error) {
	session, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.AddMessage(domain.NewUserMessage(content, map[string]any{"mode": mode}))

	task := domain.NewTask(domain.ActionPrompt)
	session.AddTask(task)
	if err := task.Start(); err != nil {
		return nil, err
	}
	m.bus.Publish(event.New(event.TaskStarted, id.String(), task.ID()))

	// History excludes the just-added user message; the loop receives it
	// separately.
	history := session.Messages()
	loopSession, rerr := domain.RehydrateSession(
		session.ID(), session.UserID(), session.ProviderConfig(), session.SystemPrompt(),
		session.ActiveTools(), history[:len(history)-1], nil,
		session.CreatedAt(), session.LastActivityAt(),
	)
	if rerr != nil {
		return nil, rerr
	}

	// The session must be persisted on both outcome paths even when the
	// request context has been cancelled.
	defer func() {
		if saveErr := m.repo.Save(context.WithoutCancel(ctx), session); saveErr != nil {
			logging.Error().
				Str("session_id", id.String()).
				Err(saveErr).
				Msg("failed to persist session")
		}
	}()

	text, err := m.runLoop(ctx, loopSession, content)
	if err != nil {
		m.failTask(task, id, err)
		return task, err
	}

	session.AddMessage(domain.NewAssistantMessage(text))
	if err := task.Succeed(domain.NewTextOutput(text)); err != nil {
		return task, err
	}
	m.bus.Publish(event.New(event.TaskCompleted, id.String(), task.ID()))

	logging.Debug().
		Str("session_id", id.String()).
		Str("task_id", task.ID()).
		Msg("message processed")
	return task, nil
}

// StreamMessage runs the same lifecycle as SendMessage but reports progress
// as an ordered event sequence: task.started, zero or more tokens, then
// exactly one of task.completed / task.failed. An unknown session id fails
// synchronously before any event is emitted.
func (m *Manager) StreamMessage(ctx context.Context, id domain.SessionID, content, mode string) (<-chan types.StreamEvent, error) {
	session, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.AddMessage(domain.NewUserMessage(content, map[string]any{"mode": mode}))

	task := domain.NewTask(domain.ActionPrompt)
	session.AddTask(task)
	if err := task.Start(); err != nil {
		return nil, err
	}
	m.bus.Publish(event.New(event.TaskStarted, id.String(), task.ID()))

	history := session.Messages()
	loopSession, err := domain.RehydrateSession(
		session.ID(), session.UserID(), session.ProviderConfig(), session.SystemPrompt(),
		session.ActiveTools(), history[:len(history)-1], nil,
		session.CreatedAt(), session.LastActivityAt(),
	)
	if err != nil {
		return nil, err
	}

	events := make(chan types.StreamEvent, 16)
	go func() {
		defer close(events)
		// Persist even when the client disconnected mid-stream; a cancelled
		// request must not drop the user message or the failed task.
		defer func() {
			if saveErr := m.repo.Save(context.WithoutCancel(ctx), session); saveErr != nil {
				logging.Error().
					Str("session_id", id.String()).
					Err(saveErr).
					Msg("failed to persist session")
			}
		}()

		emit := func(e types.StreamEvent) bool {
			select {
			case events <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(types.TaskStartedEvent(task.ID())) {
			m.failTask(task, id, ctx.Err())
			return
		}

		prov, err := m.providers.Get(ctx, loopSession.ProviderConfig())
		if err != nil {
			m.failTask(task, id, err)
			emit(types.TaskFailedEvent(task.ID(), err.Error()))
			return
		}

		text, err := m.controller.RunStream(ctx, prov, loopSession, content, func(index int, token string) error {
			if !emit(types.TokenEvent(task.ID(), token, index)) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			m.failTask(task, id, err)
			emit(types.TaskFailedEvent(task.ID(), err.Error()))
			return
		}

		session.AddMessage(domain.NewAssistantMessage(text))
		if err := task.Succeed(domain.NewTextOutput(text)); err != nil {
			emit(types.TaskFailedEvent(task.ID(), err.Error()))
			return
		}
		m.bus.Publish(event.New(event.TaskCompleted, id.String(), task.ID()))
		emit(types.TaskCompletedEvent(task.ID()))
	}()

	return events, nil
}

// SweepExpired deletes sessions idle beyond the configured maximum age and
// returns how many were removed.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	return repository.CleanupExpired(ctx, m.repo, m.maxAgeHours)
}

// RunSweeper periodically sweeps expired sessions until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.SweepExpired(ctx); err != nil {
				logging.Warn().Err(err).Msg("expiration sweep failed")
			}
		}
	}
}

func (m *Manager) runLoop(ctx context.Context, session *domain.Session, content string) (string, error) {
	prov, err := m.providers.Get(ctx, session.ProviderConfig())
	if err != nil {
		return "", err
	}
	return m.controller.Run(ctx, prov, session, content)
}

func (m *Manager) failTask(task *domain.Task, sessionID domain.SessionID, err error) {
	errText := "unknown error"
	if err != nil {
		errText = err.Error()
	}
	if ferr := task.Fail(fmt.Sprintf("Error: %s", errText)); ferr != nil {
		logging.Error().Err(ferr).Str("task_id", task.ID()).Msg("could not mark task failed")
		return
	}
	m.bus.Publish(event.Event{
		Type:      event.TaskFailed,
		SessionID: sessionID.String(),
		TaskID:    task.ID(),
		Error:     errText,
		Timestamp: time.Now().UTC(),
	})
}

// capabilityProfile snapshots which registered capabilities the session has
// enabled. The profile is static in the current design.
func (m *Manager) capabilityProfile(session *domain.Session) types.CapabilityProfile {
	active := make(map[string]bool, len(session.ActiveTools()))
	for _, id := range session.ActiveTools() {
		active[id] = true
	}

	profile := types.CapabilityProfile{}
	for _, t := range m.registry.List() {
		profile.Tools = append(profile.Tools, types.ToolCapability{
			ID:          t.ID(),
			Description: t.Description(),
			Enabled:     active[t.ID()],
		})
	}
	return profile
}
