package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/puzpuzpuz/xsync/v3"

	contractx "github.com/ascend-travel/assistant/agent/contract"
	nodex "github.com/ascend-travel/assistant/agent/nodes"
	statex "github.com/ascend-travel/assistant/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidThread  = nodex.ErrInvalidThread
)

// Assistant drives one conversation turn end to end: load state, loop the
// router against the tool executor, finalize, persist, reply. Turns for the
// same thread are serialized; turns for different threads run freely in
// parallel.
type Assistant struct {
	store   statex.Store
	gateway contractx.ModelGateway
	catalog contractx.ToolCatalog

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	threadLocks *xsync.MapOf[string, *sync.Mutex]

	now func() time.Time
}

func New(
	store statex.Store,
	gateway contractx.ModelGateway,
	catalog contractx.ToolCatalog,
) (*Assistant, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if gateway == nil {
		return nil, errors.New("model gateway is required")
	}
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}

	a := &Assistant{
		store:       store,
		gateway:     gateway,
		catalog:     catalog,
		threadLocks: xsync.NewMapOf[string, *sync.Mutex](),
		now:         time.Now,
	}

	graphRunner, err := a.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

// HandleMessage processes one user turn for the given thread.
func (a *Assistant) HandleMessage(ctx context.Context, threadID string, text string) (contractx.TurnResult, error) {
	mu, _ := a.threadLocks.LoadOrCompute(threadID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	defer mu.Unlock()

	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID: threadID,
		Text:     text,
	})
	if err != nil {
		return contractx.TurnResult{}, err
	}
	return contractx.TurnResult{
		ThreadID:       out.ThreadID,
		Reply:          out.Reply,
		StructuredData: out.StructuredData,
	}, nil
}
