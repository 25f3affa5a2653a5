package reporter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/workernode/internal/cluster"
	"github.com/dreamware/workernode/internal/load"
)

// recordingSender captures sent messages. It fails while fail is set and
// checks that a deadline is present when wantDeadline is set.
type recordingSender struct {
	mu           sync.Mutex
	sent         []cluster.Message
	fail         bool
	wantDeadline bool
	missingDL    bool
}

func (r *recordingSender) Send(ctx context.Context, msg cluster.Message) (cluster.Ack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := ctx.Deadline(); r.wantDeadline && !ok {
		r.missingDL = true
	}
	r.sent = append(r.sent, msg)
	if r.fail {
		return cluster.Ack{}, errors.New("connection refused")
	}
	return cluster.Ack{Status: "ok"}, nil
}

func (r *recordingSender) setFail(v bool) {
	r.mu.Lock()
	r.fail = v
	r.mu.Unlock()
}

func (r *recordingSender) messages() []cluster.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cluster.Message(nil), r.sent...)
}

type recordingMirror struct {
	mu      sync.Mutex
	updates []cluster.LoadUpdate
	err     error
}

func (m *recordingMirror) PublishLoad(u cluster.LoadUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, u)
	return m.err
}

// sequence returns a generator yielding vals in order.
func sequence(vals ...int) load.Generator {
	i := 0
	return func() int {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

// TestLoadSimulatorTickSequence checks that after tick i, and before tick
// i+1, the state holds the value produced at tick i and that value is the one
// reported.
func TestLoadSimulatorTickSequence(t *testing.T) {
	state := load.NewState()
	sender := &recordingSender{}
	sim := NewLoadSimulator("n1", state, sender, time.Hour)
	vals := []int{12, 0, 99, 57, 57, 3}
	sim.SetGenerator(sequence(vals...))

	require.Equal(t, 0, state.Load())

	for i, want := range vals {
		got, err := sim.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, state.Load(), "after tick %d", i)
		assert.Equal(t, want, state.Load(), "repeated read after tick %d", i)
	}

	msgs := sender.messages()
	require.Len(t, msgs, len(vals))
	for i, m := range msgs {
		assert.Equal(t, cluster.LoadUpdate{ID: "n1", Load: vals[i]}, m)
	}
}

func TestLoadSimulatorClampsGenerator(t *testing.T) {
	state := load.NewState()
	sim := NewLoadSimulator("n1", state, &recordingSender{}, time.Hour)
	sim.SetGenerator(sequence(-40, 250))

	v, _ := sim.Tick(context.Background())
	assert.Equal(t, 0, v)
	v, _ = sim.Tick(context.Background())
	assert.Equal(t, 99, v)
	assert.Equal(t, 99, state.Load())
}

func TestLoadSimulatorDefaultGeneratorRange(t *testing.T) {
	state := load.NewState()
	sim := NewLoadSimulator("n1", state, &recordingSender{}, time.Hour)
	for i := 0; i < 200; i++ {
		v, _ := sim.Tick(context.Background())
		require.GreaterOrEqual(t, v, 0)
		require.LessOrEqual(t, v, 99)
	}
}

// TestLoadSimulatorFailureIsNotRetried checks that a failed send still
// commits the value and that the next tick reports only the new value.
func TestLoadSimulatorFailureIsNotRetried(t *testing.T) {
	state := load.NewState()
	sender := &recordingSender{fail: true}
	sim := NewLoadSimulator("n1", state, sender, time.Hour)
	sim.SetGenerator(sequence(10, 20))

	v, err := sim.Tick(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 10, state.Load())

	sender.setFail(false)
	_, err = sim.Tick(context.Background())
	require.NoError(t, err)

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, cluster.LoadUpdate{ID: "n1", Load: 20}, msgs[1])
}

func TestLoadSimulatorMirror(t *testing.T) {
	mirror := &recordingMirror{err: errors.New("broker down")}
	sender := &recordingSender{}
	sim := NewLoadSimulator("n1", load.NewState(), sender, time.Hour)
	sim.SetGenerator(sequence(33))
	sim.SetMirror(mirror)

	_, err := sim.Tick(context.Background())
	require.NoError(t, err, "mirror failures do not affect the coordinator send")
	assert.Equal(t, []cluster.LoadUpdate{{ID: "n1", Load: 33}}, mirror.updates)
	assert.Len(t, sender.messages(), 1)
}

func TestLoadSimulatorSendTimeout(t *testing.T) {
	sender := &recordingSender{wantDeadline: true}
	sim := NewLoadSimulator("n1", load.NewState(), sender, time.Hour)
	sim.SetSendTimeout(time.Second)

	_, err := sim.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, sender.missingDL)
}

func TestLoadSimulatorRun(t *testing.T) {
	state := load.NewState()
	sender := &recordingSender{}
	sim := NewLoadSimulator("n1", state, sender, 20*time.Millisecond)
	sim.SetGenerator(sequence(7))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sender.messages()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 7, state.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHeartbeatTick(t *testing.T) {
	sender := &recordingSender{}
	hb := NewHeartbeat("n1", sender, time.Hour)

	require.NoError(t, hb.Tick(context.Background()))
	sender.setFail(true)
	assert.Error(t, hb.Tick(context.Background()))
	sender.setFail(false)
	require.NoError(t, hb.Tick(context.Background()))

	msgs := sender.messages()
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.Equal(t, cluster.Heartbeat{ID: "n1"}, m)
	}
}

func TestHeartbeatRunSurvivesFailures(t *testing.T) {
	sender := &recordingSender{fail: true}
	hb := NewHeartbeat("n1", sender, 10*time.Millisecond)
	hb.SetSendTimeout(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hb.Run(ctx)

	require.Eventually(t, func() bool { return len(sender.messages()) >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestEveryFirstTickAfterInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	first := make(chan time.Duration, 1)
	go every(ctx, 50*time.Millisecond, func(context.Context) {
		select {
		case first <- time.Since(start):
		default:
		}
	})

	select {
	case d := <-first:
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick")
	}
}
