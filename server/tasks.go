package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	contractx "github.com/ascend-travel/assistant/agent/contract"
)

type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is the observable record of one asynchronous turn.
type Task struct {
	ID     string                `json:"task_id"`
	Status TaskStatus            `json:"status"`
	Result *contractx.TurnResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// CallbackPublisher pushes a completed task record to an external consumer.
type CallbackPublisher interface {
	PublishJSON(ctx context.Context, destination string, payload any) error
}

type TaskConfig struct {
	TTL         time.Duration `envconfig:"TTL" default:"1h"`
	TurnTimeout time.Duration `envconfig:"TURN_TIMEOUT" default:"3m"`
	CallbackURL string        `envconfig:"CALLBACK_URL"`
}

// TaskManager runs turns on worker goroutines and keeps their results in a
// TTL cache. Finished tasks expire rather than accumulate; a status poll
// after expiry reads as an unknown id.
type TaskManager struct {
	handler   TurnHandler
	tasks     *cache.Cache
	publisher CallbackPublisher
	cfg       TaskConfig
}

func NewTaskManager(cfg TaskConfig, handler TurnHandler, publisher CallbackPublisher) *TaskManager {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 3 * time.Minute
	}
	return &TaskManager{
		handler:   handler,
		tasks:     cache.New(cfg.TTL, cfg.TTL/4),
		publisher: publisher,
		cfg:       cfg,
	}
}

// Submit registers a new task and starts the turn in the background.
func (m *TaskManager) Submit(threadID, text string) string {
	taskID := uuid.NewString()
	m.tasks.SetDefault(taskID, Task{ID: taskID, Status: TaskRunning})

	go m.run(taskID, threadID, text)
	return taskID
}

func (m *TaskManager) Get(taskID string) (Task, bool) {
	v, ok := m.tasks.Get(taskID)
	if !ok {
		return Task{}, false
	}
	task, ok := v.(Task)
	return task, ok
}

func (m *TaskManager) run(taskID, threadID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.TurnTimeout)
	defer cancel()

	task := Task{ID: taskID}
	result, err := m.handler.HandleMessage(ctx, threadID, text)
	if err != nil {
		log.Error().Err(err).
			Str("task_id", taskID).
			Str("thread_id", threadID).
			Msg("async turn failed")
		task.Status = TaskFailed
		task.Error = err.Error()
	} else {
		task.Status = TaskCompleted
		task.Result = &result
	}
	m.tasks.SetDefault(taskID, task)

	m.notify(ctx, task)
}

func (m *TaskManager) notify(ctx context.Context, task Task) {
	if m.publisher == nil || m.cfg.CallbackURL == "" {
		return
	}
	if err := m.publisher.PublishJSON(ctx, m.cfg.CallbackURL, task); err != nil {
		log.Warn().Err(err).Str("task_id", task.ID).Msg("publish task callback")
	}
}
