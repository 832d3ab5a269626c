package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/rs/xid"

	"github.com/vokinneberg/research-assistant/internal/types"
)

//go:generate mockgen -source=controller.go -destination=mock_searcher.go -package=assistant Searcher

// Searcher defines the interface for the search backend
type Searcher interface {
	Search(ctx context.Context, query string) (*types.SearchResult, error)
}

// Controller owns the query text and display state of one page and issues
// backend searches on its behalf.
type Controller struct {
	searcher Searcher
	ctx      context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.Mutex
	query      string
	state      State
	generation uint64
	cancel     context.CancelFunc
}

// NewController creates a controller whose requests live at most as long as ctx.
func NewController(ctx context.Context, searcher Searcher) *Controller {
	ctx, stop := context.WithCancel(ctx)
	return &Controller{
		searcher: searcher,
		ctx:      ctx,
		stop:     stop,
		state:    Idle{},
	}
}

// View returns the current query text and state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View{Query: c.query, State: c.state}
}

// Submit starts a search for query. It returns false without touching any
// state when the trimmed query is empty or the controller is closed.
// A submission made while another is in flight cancels the older one, whose
// outcome is then discarded.
func (c *Controller) Submit(query string) bool {
	if strings.TrimSpace(query) == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return false
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.generation++
	gen := c.generation
	reqCtx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.query = query
	c.state = Loading{}

	c.wg.Add(1)
	go c.run(reqCtx, gen, query)

	return true
}

func (c *Controller) run(ctx context.Context, gen uint64, query string) {
	defer c.wg.Done()

	id := xid.New().String()
	logger := slog.With("submission_id", id, "generation", gen)
	logger.Info("Search started", "query", query)

	var next State = Loading{}
	defer func() {
		c.finish(gen, next)
	}()

	result, err := c.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.Info("Search cancelled")
			return
		}
		logger.Error("Search failed", "error", err)
		next = Failed{Message: err.Error()}
		return
	}

	sources := 0
	if result != nil {
		sources = len(result.Sources)
	}
	logger.Info("Search completed", "sources", sources)
	next = Success{Result: result}
}

// finish applies the outcome of generation gen and clears the in-flight
// marker. Outcomes of superseded generations are dropped.
func (c *Controller) finish(gen uint64, next State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	c.cancel()
	c.cancel = nil

	if _, stillLoading := next.(Loading); stillLoading {
		// Cancelled without a newer submission, i.e. the controller was closed.
		next = Idle{}
	}
	c.state = next
}

// Close cancels any in-flight request. Further submissions are ignored.
func (c *Controller) Close() {
	c.stop()
}

// Wait blocks until every started search has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}
