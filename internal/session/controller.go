package session

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/smartstocks/pvp-tui/internal/client"
)

const (
	eventBuffer  = 64
	updateBuffer = 64
)

// ErrNoConnector is returned by Run when SetConnector was never called.
var ErrNoConnector = errors.New("session: no connector attached")

// Connector is the transport the controller drives.
type Connector interface {
	Connect(ctx context.Context, token string) error
	Disconnect()
}

// API is the REST surface the controller drives.
type API interface {
	JoinQueue(ctx context.Context) (*client.JoinQueueResponse, error)
	LeaveQueue(ctx context.Context) error
	SubmitDecision(ctx context.Context, req client.SubmitDecisionRequest) error
}

// Profile is the external user-profile collaborator.
type Profile interface {
	UserID() string
	UpdateStats(points int, tier string)
	// RecordResult tallies a finished match; result is "win", "loss" or
	// "draw" and streak is the server's count, 0 when not reported.
	RecordResult(result string, streak int)
}

// Update is published after every processed event.
type Update struct {
	Session Session
	Notices []Notice
}

// Controller runs the state machine on a single goroutine and carries out
// its effects against the transport, the REST API, the round timer and the
// profile store.
type Controller struct {
	machine *Machine
	conn    Connector
	api     API
	profile Profile
	token   func() string
	timer   *RoundTimer
	log     zerolog.Logger

	events  chan Event
	updates chan Update
	done    chan struct{}
	runCtx  context.Context
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock that drives the round timer.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.timer = NewRoundTimer(clock, c.Post) }
}

// WithLogger sets the controller and machine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithProfile attaches the profile collaborator.
func WithProfile(p Profile) Option {
	return func(c *Controller) { c.profile = p }
}

// WithTokenSource sets where the bearer token for Connect comes from.
func WithTokenSource(f func() string) Option {
	return func(c *Controller) { c.token = f }
}

// NewController creates a controller in the idle state.
func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		token:   func() string { return "" },
		log:     zerolog.Nop(),
		events:  make(chan Event, eventBuffer),
		updates: make(chan Update, updateBuffer),
		done:    make(chan struct{}),
	}
	c.timer = NewRoundTimer(clockwork.NewRealClock(), c.Post)
	for _, o := range opts {
		o(c)
	}
	c.machine = NewMachine(c.log.With().Str("component", "machine").Logger())
	return c
}

// SetConnector attaches the transport. Must be called before Run.
func (c *Controller) SetConnector(conn Connector) {
	c.conn = conn
}

// TransportHandlers returns connector callbacks that feed this controller.
func (c *Controller) TransportHandlers() client.Handlers {
	return client.Handlers{
		OnConnect: func() { c.Post(TransportOpened{}) },
		OnDisconnect: func(d client.Disconnect) {
			c.Post(Disconnected{Err: d.Err, Requested: d.Requested})
		},
		OnError: func(err error) { c.Post(TransportError{Err: err}) },
		OnMessage: func(msg client.Message) {
			ev, err := Decode(msg)
			if err != nil {
				c.log.Warn().Err(err).Msg("dropping undecodable frame")
				return
			}
			if ev != nil {
				c.Post(ev)
			}
		},
	}
}

// Updates returns the snapshot stream. It is closed when Run returns.
func (c *Controller) Updates() <-chan Update { return c.updates }

// Post enqueues an event. It never blocks once Run has returned.
func (c *Controller) Post(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// JoinQueue posts a queue-join intent for the current profile.
func (c *Controller) JoinQueue() {
	var id string
	if c.profile != nil {
		id = c.profile.UserID()
	}
	c.Post(JoinQueue{UserID: id})
}

// Submit posts a decision for the current round.
func (c *Controller) Submit(choice client.Decision) { c.Post(SubmitDecision{Choice: choice}) }

// Leave posts a leave intent.
func (c *Controller) Leave() { c.Post(Leave{}) }

// Reset posts a reset intent.
func (c *Controller) Reset() { c.Post(Reset{}) }

// Run processes events in order until ctx is cancelled, then tears the
// session down.
func (c *Controller) Run(ctx context.Context) error {
	if c.conn == nil {
		return ErrNoConnector
	}
	c.runCtx = ctx
	defer close(c.updates)
	defer close(c.done)

	c.publish(nil)
	for {
		select {
		case <-ctx.Done():
			c.drain()
			c.dispatch(Reset{})
			return ctx.Err()
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

// drain processes events already queued, so a Leave posted just before
// shutdown still reaches the server.
func (c *Controller) drain() {
	for {
		select {
		case ev := <-c.events:
			c.dispatch(ev)
		default:
			return
		}
	}
}

func (c *Controller) dispatch(ev Event) {
	var notices []Notice
	for _, eff := range c.machine.Apply(ev) {
		if n, ok := eff.(Notify); ok {
			notices = append(notices, n.Notice)
			continue
		}
		c.execute(eff)
	}
	c.publish(notices)
}

func (c *Controller) execute(eff Effect) {
	ctx := c.runCtx
	switch eff := eff.(type) {
	case Connect:
		token := c.token()
		gen := eff.Gen
		go func() {
			if err := c.conn.Connect(ctx, token); err != nil {
				c.Post(ConnectFailed{Gen: gen, Err: err})
				return
			}
			c.Post(Connected{Gen: gen})
		}()
	case RequestJoin:
		gen := eff.Gen
		go func() {
			resp, err := c.api.JoinQueue(ctx)
			if err != nil {
				c.Post(QueueJoinFailed{Gen: gen, Err: err})
				return
			}
			c.Post(QueueJoined{Gen: gen, Position: resp.Position})
		}()
	case RequestLeave:
		// Runs detached from ctx so an unmount still reaches the server.
		go func() {
			if err := c.api.LeaveQueue(context.WithoutCancel(ctx)); err != nil {
				c.Post(LeaveFailed{Err: err})
			}
		}()
	case RequestSubmit:
		req := eff.SubmitDecisionRequest
		c.log.Info().
			Str("match_id", req.MatchID).
			Int("round", req.RoundNumber).
			Str("decision", string(req.Decision)).
			Float64("elapsed", req.TimeElapsed).
			Msg("submitting decision")
		go func() {
			if err := c.api.SubmitDecision(ctx, req); err != nil {
				c.Post(SubmitFailed{Err: err})
			}
		}()
	case CloseTransport:
		c.conn.Disconnect()
	case StartTimer:
		c.timer.Start(eff.Round, eff.Seconds)
	case StopTimer:
		c.timer.Stop()
	case UpdateProfile:
		if c.profile != nil {
			c.profile.UpdateStats(eff.Points, eff.Tier)
			c.profile.RecordResult(string(eff.Outcome), eff.WinStreak)
		}
	}
}

func (c *Controller) publish(notices []Notice) {
	u := Update{Session: c.machine.Session(), Notices: notices}
	select {
	case c.updates <- u:
	default:
		c.log.Warn().Str("status", string(u.Session.Status)).Int("notices", len(notices)).Msg("subscriber slow, dropping update")
	}
}
