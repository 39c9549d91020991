package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raine/glowscan-bot/internal/glowscan"
	"github.com/raine/glowscan-bot/internal/page"
)

// recordingHandler logs "type:text" for every message and runs the hook
// registered for that label, if any.
type recordingHandler struct {
	mu    sync.Mutex
	seen  []string
	hooks map[string]func()
}

func (h *recordingHandler) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	label := msg.Type + ":" + msg.Text
	h.mu.Lock()
	h.seen = append(h.seen, label)
	hook := h.hooks[label]
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (h *recordingHandler) log() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func newWorkerSession(t *testing.T, id int64, hooks map[string]func()) (*UserSession, *recordingHandler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := &recordingHandler{hooks: hooks}
	s := &UserSession{
		userId:  id,
		inbox:   make(chan SessionMessage, 10),
		ctx:     ctx,
		cancel:  cancel,
		handler: h,
	}
	s.StartWorker()
	t.Cleanup(s.Stop)
	return s, h
}

func textMsg(text string) SessionMessage {
	return SessionMessage{Type: "text", Text: text}
}

func TestWorker(t *testing.T) {
	tests := []struct {
		name  string
		hooks map[string]func()
		async []SessionMessage
		sync  []SessionMessage
		want  []string
	}{
		{
			name:  "processes in arrival order",
			async: []SessionMessage{textMsg("Aqua"), {Type: "photo"}, {Type: "callback", Text: "analyze"}},
			sync:  []SessionMessage{textMsg("/text")},
			want:  []string{"text:Aqua", "photo:", "callback:analyze", "text:/text"},
		},
		{
			name:  "survives a panicking handler",
			hooks: map[string]func(){"callback:export:pdf": func() { panic("export handler") }},
			sync:  []SessionMessage{{Type: "callback", Text: "export:pdf"}, textMsg("/version")},
			want:  []string{"callback:export:pdf", "text:/version"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, h := newWorkerSession(t, 1, tt.hooks)
			for _, m := range tt.async {
				s.Send(m)
			}
			for _, m := range tt.sync {
				s.SendSync(m)
			}
			assert.Equal(t, tt.want, h.log())
		})
	}
}

func TestWorker_BlockedSessionDoesNotBlockOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	slow, slowLog := newWorkerSession(t, 1, map[string]func(){
		"photo:": func() { close(started); <-release },
	})
	fast, fastLog := newWorkerSession(t, 2, nil)

	syncDone := make(chan struct{})
	go func() {
		slow.SendSync(SessionMessage{Type: "photo"})
		close(syncDone)
	}()
	<-started

	fast.SendSync(textMsg("Aqua"))
	assert.Equal(t, []string{"text:Aqua"}, fastLog.log())

	select {
	case <-syncDone:
		t.Fatal("SendSync returned before the handler finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-syncDone:
	case <-time.After(time.Second):
		t.Fatal("SendSync did not return after the handler finished")
	}
	assert.Equal(t, []string{"photo:"}, slowLog.log())
}

func TestWorker_StopReleasesQueuedSenders(t *testing.T) {
	release := make(chan struct{})
	s, _ := newWorkerSession(t, 3, map[string]func(){
		"photo:": func() { <-release },
	})

	s.Send(SessionMessage{Type: "photo"})
	var queued []chan struct{}
	for i := 0; i < 5; i++ {
		done := make(chan struct{})
		queued = append(queued, done)
		s.inbox <- SessionMessage{Type: "text", Text: "queued", Done: done}
	}

	stopped := make(chan struct{})
	go func() {
		s.cancel()
		close(release)
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	for i, done := range queued {
		select {
		case <-done:
		default:
			t.Errorf("queued message %d was never released", i)
		}
	}
}

func TestBackground_StopWaitsForTasks(t *testing.T) {
	session, _ := newWorkerSession(t, 7, nil)

	started := make(chan struct{})
	var finished atomic.Bool
	session.runBackground("analyze", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	})
	<-started

	session.Stop()
	assert.True(t, finished.Load(), "Stop must wait for background tasks")
}

func TestBackground_PanicRecovery(t *testing.T) {
	session, h := newWorkerSession(t, 8, nil)

	session.runBackground("export pdf", func(ctx context.Context) {
		panic("renderer crashed")
	})
	session.waitBackground()

	session.SendSync(textMsg("/start"))
	assert.Equal(t, []string{"text:/start"}, h.log())
}

func TestReset_NewPageKeepsProductType(t *testing.T) {
	tg := new(botApiMock)
	session, _ := newWorkerSession(t, 9, nil)
	session.sender = tg
	session.newPage = func(view page.View) *page.Page {
		return page.New(view, nil, nil)
	}
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil).Maybe()

	session.reset()
	first := session.Page()
	session.currentView().SetProductType(glowscan.Serum)
	session.currentView().SetIngredients("Aqua")

	session.reset()
	require.NotSame(t, first, session.Page())
	assert.Equal(t, glowscan.Serum, session.currentView().ProductType())
	assert.Empty(t, session.currentView().Ingredients())
}
