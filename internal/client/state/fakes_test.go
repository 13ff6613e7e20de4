package state

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
)

type fakeCards struct {
	mu    sync.Mutex
	reqs  []models.GenerateRequest
	cards []models.GeneratedCard
	err   error

	// when set, GenerateCards signals started and waits for release
	started chan struct{}
	release chan struct{}

	// when set, every request is handed to the test and blocks until
	// answered or canceled
	pending chan cardsCall
}

// cardsCall is one pending request to fakeCards.
type cardsCall struct {
	ctx   context.Context
	reply chan cardsReply
}

type cardsReply struct {
	cards []models.GeneratedCard
	err   error
}

func (f *fakeCards) GenerateCards(ctx context.Context, req models.GenerateRequest) ([]models.GeneratedCard, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.pending != nil {
		c := cardsCall{ctx: ctx, reply: make(chan cardsReply, 1)}
		f.pending <- c
		r := <-c.reply
		return r.cards, r.err
	}
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return f.cards, f.err
}

func (f *fakeCards) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeResolver struct {
	payload models.Payload
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, t models.InputType, v models.InputValue) (models.Payload, error) {
	if f.err != nil {
		return models.Payload{}, f.err
	}
	if f.payload.InputType != "" {
		return f.payload, nil
	}
	s, _ := v.(models.TextInput)
	return models.Payload{InputType: t, Value: string(s)}, nil
}

type fakeSaver struct {
	got []models.CardSet
	id  string
	err error
}

func (f *fakeSaver) AddCardSet(_ context.Context, set models.CardSet) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.got = append(f.got, set)
	return f.id, nil
}

// tutorCall is one pending request to fakeTutor. The test answers it by
// sending on reply.
type tutorCall struct {
	kind  string
	front string
	reply chan tutorReply
}

type tutorReply struct {
	text string
	err  error
}

// fakeTutor answers immediately from its maps unless calls is set, in which
// case every request is handed to the test and blocks until answered.
type fakeTutor struct {
	hints   map[string]string
	details map[string]string
	err     error
	n       atomic.Int32

	calls chan tutorCall
}

func (f *fakeTutor) ask(ctx context.Context, kind, front string, answers map[string]string) (string, error) {
	f.n.Add(1)
	if f.calls != nil {
		c := tutorCall{kind: kind, front: front, reply: make(chan tutorReply, 1)}
		f.calls <- c
		select {
		case r := <-c.reply:
			return r.text, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if v, ok := answers[front]; ok {
		return v, nil
	}
	return fmt.Sprintf("%s for %s", kind, front), nil
}

func (f *fakeTutor) GenerateHint(ctx context.Context, front, _ string) (string, error) {
	return f.ask(ctx, "hint", front, f.hints)
}

func (f *fakeTutor) GenerateDetails(ctx context.Context, front, _ string) (string, error) {
	return f.ask(ctx, "details", front, f.details)
}

func seqIDs() func() string {
	var n atomic.Int32
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func noShuffle([]models.Flashcard) {}

func reverse(cards []models.Flashcard) {
	for i, j := 0, len(cards)-1; i < j; i, j = i+1, j-1 {
		cards[i], cards[j] = cards[j], cards[i]
	}
}

func newTestStore(d Deps) *Store {
	if d.Cards == nil {
		d.Cards = &fakeCards{}
	}
	if d.Tutor == nil {
		d.Tutor = &fakeTutor{}
	}
	if d.Resolver == nil {
		d.Resolver = &fakeResolver{}
	}
	if d.NewID == nil {
		d.NewID = seqIDs()
	}
	if d.Shuffle == nil {
		d.Shuffle = noShuffle
	}
	return New(d)
}

// countNotifications subscribes to s and returns a reader of the count.
func countNotifications(s *Store) func() int {
	var n atomic.Int32
	s.Subscribe(func() { n.Add(1) })
	return func() int { return int(n.Load()) }
}
