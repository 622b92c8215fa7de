package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
)

// Loader reads a chain file.
type Loader interface {
	Load(path string) (*chain.LoadResult, error)
}

// Analyzer runs one analysis.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

type Manager struct {
	loader   Loader
	analyzer Analyzer
	workers  int
	logger   *zap.Logger
}

// TaskError records a failed task.
type TaskError struct {
	Path   string `json:"path"`
	Symbol string `json:"symbol,omitempty"`
	Error  string `json:"error"`
}

type BatchResult struct {
	Total     int           `json:"total"`
	Success   int           `json:"success"`
	Failed    int           `json:"failed"`
	Summaries []Summary     `json:"summaries"`
	Errors    []TaskError   `json:"errors,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

func NewManager(loader Loader, analyzer Analyzer, workers int, logger *zap.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		loader:   loader,
		analyzer: analyzer,
		workers:  workers,
		logger:   logger,
	}
}

// Execute analyzes every task on the worker pool. A failing task is counted
// and reported but does not stop the batch. Summaries and errors keep the
// order of tasks.
func (m *Manager) Execute(ctx context.Context, tasks []Task) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{Total: len(tasks), Summaries: []Summary{}}

	if len(tasks) == 0 {
		return result, nil
	}

	jobs := make(chan int, len(tasks))
	results := make(chan TaskResult, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			m.worker(ctx, workerID, tasks, jobs, results)
		}(i)
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for i := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*TaskResult, len(tasks))
	for r := range results {
		ordered[r.Index] = &r
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	for _, r := range ordered {
		if r == nil {
			continue
		}
		if r.Error != nil {
			result.Failed++
			result.Errors = append(result.Errors, TaskError{Path: r.Task.Path, Symbol: r.Task.Symbol, Error: r.Error.Error()})
			continue
		}
		result.Success++
		result.Summaries = append(result.Summaries, *r.Summary)
	}
	result.Duration = time.Since(start)

	m.logger.Info("batch complete",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (m *Manager) worker(ctx context.Context, id int, tasks []Task, jobs <-chan int, results chan<- TaskResult) {
	for i := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := m.processTask(ctx, i, tasks[i])
		if result.Error != nil {
			m.logger.Warn("task failed",
				zap.Int("worker", id),
				zap.String("task", tasks[i].String()),
				zap.Error(result.Error),
			)
		}

		select {
		case <-ctx.Done():
			return
		case results <- result:
		}
	}
}

func (m *Manager) processTask(ctx context.Context, index int, task Task) TaskResult {
	result := TaskResult{Index: index, Task: task}

	m.logger.Debug("analyzing", zap.String("task", task.String()))

	loaded, err := m.loader.Load(task.Path)
	if err != nil {
		result.Error = err
		return result
	}

	var chainSymbol string
	if len(loaded.Contracts) > 0 {
		chainSymbol = loaded.Contracts[0].Symbol
	}
	symbol := task.symbolFor(chainSymbol)

	report, err := m.analyzer.Run(ctx, analysis.Request{
		Symbol:    symbol,
		Spot:      task.Spot,
		Contracts: loaded.Contracts,
	})
	if err != nil {
		result.Error = fmt.Errorf("analyzing %s: %w", task.Path, err)
		return result
	}

	s := Summarize(report)
	s.Path = task.Path
	s.SkippedRows = len(loaded.Issues)
	result.Summary = &s
	return result
}
