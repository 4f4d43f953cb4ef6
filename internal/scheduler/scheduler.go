package scheduler

import (
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("easyref.scheduler")

// Token pins a deferred task to the document state it was planned against.
type Token struct {
	URI     string
	Version int32
	Line    int
}

// Task is a unit of work run on the scheduler's worker.
type Task struct {
	Name  string
	Token Token
	// Validate is called right before Execute. A false result drops the task.
	Validate func(Token) bool
	Execute  func() error
}

type pending struct {
	timer *time.Timer
	task  Task
}

// Scheduler runs tasks one at a time on a single worker goroutine. Tasks can
// be delayed and debounced by key.
type Scheduler struct {
	taskQueue chan Task
	stopChan  chan struct{}
	done      chan struct{}

	mu      sync.Mutex
	pending map[string]*pending
	stopped bool
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		pending:   make(map[string]*pending),
	}
}

// RunScheduler starts the worker loop
func (s *Scheduler) RunScheduler() {
	go func() {
		defer close(s.done)
		for {
			select {
			case task := <-s.taskQueue:
				s.run(task)
			case <-s.stopChan:
				for {
					select {
					case task := <-s.taskQueue:
						log.Debugf("draining task: %s", task.Name)
						s.run(task)
					default:
						return
					}
				}
			}
		}
	}()
}

func (s *Scheduler) run(task Task) {
	if task.Validate != nil && !task.Validate(task.Token) {
		log.Debugf("dropping stale task %s (%s v%d)", task.Name, task.Token.URI, task.Token.Version)
		return
	}
	log.Debugf("executing %s task", task.Name)
	if err := task.Execute(); err != nil {
		log.Errorf("task %s failed: %v", task.Name, err)
	}
}

// Submit queues task for immediate execution.
func (s *Scheduler) Submit(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueue(task)
}

// enqueue must be called with mu held.
func (s *Scheduler) enqueue(task Task) {
	if s.stopped {
		return
	}
	select {
	case s.taskQueue <- task:
	default:
		log.Warningf("skipped %s: queue is full", task.Name)
	}
}

// Defer queues task after delay. A task already waiting under key is
// cancelled, so repeated calls debounce until the caller goes quiet.
func (s *Scheduler) Defer(key string, delay time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
	}
	p := &pending{task: task}
	p.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Cancelled or superseded after the timer fired.
		if s.pending[key] != p {
			return
		}
		delete(s.pending, key)
		s.enqueue(p.task)
	})
	s.pending[key] = p
}

// Cancel drops the task waiting under key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
}

// CancelPrefix drops every waiting task whose key starts with prefix.
func (s *Scheduler) CancelPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		if strings.HasPrefix(key, prefix) {
			p.timer.Stop()
			delete(s.pending, key)
		}
	}
}

// Pending reports how many tasks are waiting on a timer.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// StopScheduler drops waiting timers, runs what is already queued and stops
// the worker.
func (s *Scheduler) StopScheduler() {
	log.Info("stopping scheduler")
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	close(s.stopChan)
	<-s.done
	log.Info("scheduler stopped")
}
