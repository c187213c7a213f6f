package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pedromiglou/JARR/app/cfg"
	"github.com/pedromiglou/JARR/app/database"
)

const taskQueueSize = 300

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueFeed(feed database.Feed) error
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs the crawl loop: a ticker enqueues a fetch task for every
// feed due for refresh and a worker pool drains the queue. Failed tasks are
// retried with capped exponential backoff.
type Scheduler struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	linkRepo    database.LinkRepository
	clusterizer *Clusterizer
	httpClient  *http.Client
	userAgent   string
	errorMax    int
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(feedRepo database.FeedRepository, articleRepo database.ArticleRepository,
	clusterRepo database.ClusterRepository, linkRepo database.LinkRepository,
	httpClient *http.Client, appCfg *cfg.Cfg) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		linkRepo:    linkRepo,
		clusterizer: NewClusterizer(clusterRepo, linkRepo),
		httpClient:  httpClient,
		userAgent:   appCfg.UserAgent,
		errorMax:    appCfg.FeedErrorMax,
		interval:    time.Duration(appCfg.CrawlerInterval) * time.Second,
		workerCount: appCfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueFeed schedules an immediate crawl of one feed, used by the manual
// fetch endpoint.
func (s *Scheduler) EnqueueFeed(feed database.Feed) error {
	task := NewFetchFeedTask(feed, s.httpClient, s.feedRepo, s.articleRepo, s.linkRepo, s.clusterizer, s.userAgent)
	return s.EnqueueTask(task)
}

func (s *Scheduler) enqueueDueTasks() {
	feeds, err := s.feedRepo.ListDueForFetch(s.errorMax, taskQueueSize)
	if err != nil {
		slog.Error("Failed to list feeds due for fetch", "error", err)
		return
	}
	if len(feeds) == 0 {
		slog.Debug("No feeds due for fetch")
		return
	}

	slog.Debug("Scheduling feed fetches", "count", len(feeds))

	for _, feed := range feeds {
		if err := s.EnqueueFeed(feed); err != nil {
			slog.Warn("Failed to enqueue fetch task", "feed", feed.Title, "feed_id", feed.ID, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "label", task.GetLabel(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
