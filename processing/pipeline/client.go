package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"swapstudio/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type MessageType string

const (
	MsgRun       MessageType = "run"
	MsgDetect    MessageType = "detect"
	MsgProviders MessageType = "providers"
	MsgProgress  MessageType = "progress"
	MsgResult    MessageType = "result"
	MsgFaces     MessageType = "faces"
	MsgError     MessageType = "error"
)

// Envelope is the single JSON message shape exchanged with the inference
// service. Replies carry the ID of the request they answer.
type Envelope struct {
	ID        string           `json:"id"`
	Type      MessageType      `json:"type"`
	Job       *models.Job      `json:"job,omitempty"`
	Image     []byte           `json:"image,omitempty"`
	Faces     []models.Face    `json:"faces,omitempty"`
	Providers []string         `json:"providers,omitempty"`
	Progress  *models.Progress `json:"progress,omitempty"`
	Result    *models.Result   `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

var (
	ErrDisconnected = errors.New("inference service disconnected")
	ErrStopped      = errors.New("pipeline client stopped")
)

// RemoteError is an error reported by the inference service itself.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "inference service: " + e.Message
}

type pendingCall struct {
	ch     chan Envelope
	failed chan struct{}
	done   chan struct{}
	err    error

	doneOnce sync.Once
}

// Client keeps a websocket connection to the inference service open,
// reconnecting when it drops, and correlates requests with their replies.
type Client struct {
	serverURL string
	dialer    *websocket.Dialer
	retry     time.Duration
	// connectWait bounds how long a request made while disconnected waits
	// for the connection to come up.
	connectWait time.Duration
	log         *zap.Logger

	outbox chan Envelope

	mu      sync.Mutex
	pending map[string]*pendingCall

	started   atomic.Bool
	connected atomic.Bool
	stopOnce  sync.Once
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewClient(host string, log *zap.Logger) *Client {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		serverURL:   u.String(),
		dialer:      websocket.DefaultDialer,
		retry:       2 * time.Second,
		connectWait: 3 * time.Second,
		log:         log,
		outbox:      make(chan Envelope),
		pending:     make(map[string]*pendingCall),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

func (c *Client) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.runLoop()
	}
}

// Stop closes the connection and fails every outstanding request.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		if c.started.Load() {
			<-c.doneChan
		} else {
			c.failPending(ErrStopped)
		}
	})
}

func (c *Client) runLoop() {
	defer close(c.doneChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-c.stopChan:
			c.failPending(ErrStopped)
			return
		default:
		}

		c.log.Info("connecting to inference service", zap.String("url", c.serverURL))
		conn, _, err := c.dialer.DialContext(ctx, c.serverURL, nil)

		if err != nil {
			c.log.Warn("connection failed", zap.Error(err), zap.Duration("retry_in", c.retry))
			select {
			case <-c.stopChan:
				c.failPending(ErrStopped)
				return
			case <-time.After(c.retry):
			}
			continue
		}

		c.log.Info("connected to inference service")
		c.serve(conn)
		c.failPending(ErrDisconnected)
	}
}

func (c *Client) serve(conn *websocket.Conn) {
	c.connected.Store(true)
	defer c.connected.Store(false)

	errChan := make(chan error, 2)
	connDone := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-c.stopChan:
				return
			case <-connDone:
				return
			case env := <-c.outbox:
				if err := conn.WriteJSON(env); err != nil {
					errChan <- err
					return
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				errChan <- err
				return
			}
			c.dispatch(env)
		}
	}()

	select {
	case err := <-errChan:
		c.log.Warn("connection lost", zap.Error(err))
	case <-c.stopChan:
	}

	close(connDone)
	conn.Close()
	wg.Wait()
}

func (c *Client) dispatch(env Envelope) {
	c.mu.Lock()
	p, ok := c.pending[env.ID]
	c.mu.Unlock()

	if !ok {
		c.log.Debug("reply for unknown request", zap.String("id", env.ID), zap.String("type", string(env.Type)))
		return
	}

	select {
	case p.ch <- env:
	case <-p.done:
	case <-c.stopChan:
	}
}

func (c *Client) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, p := range c.pending {
		p.err = err
		close(p.failed)
		delete(c.pending, id)
	}
}

func (c *Client) request(ctx context.Context, env Envelope) (*pendingCall, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	p := &pendingCall{
		ch:     make(chan Envelope, 16),
		failed: make(chan struct{}),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	select {
	case <-c.stopChan:
		c.mu.Unlock()
		return nil, ErrStopped
	default:
	}
	if _, dup := c.pending[env.ID]; dup {
		c.mu.Unlock()
		return nil, fmt.Errorf("request %s already in flight", env.ID)
	}
	c.pending[env.ID] = p
	c.mu.Unlock()

	var wait <-chan time.Time
	if !c.connected.Load() {
		timer := time.NewTimer(c.connectWait)
		defer timer.Stop()
		wait = timer.C
	}

	select {
	case c.outbox <- env:
		return p, nil
	case <-p.failed:
		return nil, p.err
	case <-wait:
		c.release(env.ID, p)
		return nil, fmt.Errorf("%w: no connection to %s", ErrDisconnected, c.serverURL)
	case <-ctx.Done():
		c.release(env.ID, p)
		return nil, ctx.Err()
	}
}

func (c *Client) release(id string, p *pendingCall) {
	c.mu.Lock()
	if c.pending[id] == p {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	p.doneOnce.Do(func() { close(p.done) })
}

func (c *Client) next(ctx context.Context, p *pendingCall) (Envelope, error) {
	select {
	case env := <-p.ch:
		if env.Type == MsgError {
			return env, &RemoteError{Message: env.Error}
		}
		return env, nil
	case <-p.failed:
		return Envelope{}, p.err
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// Run submits a job and blocks until the service reports its result.
// onProgress, when set, is called for every progress update.
func (c *Client) Run(ctx context.Context, job models.Job, onProgress func(models.Progress)) (models.Result, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	p, err := c.request(ctx, Envelope{ID: job.ID, Type: MsgRun, Job: &job})
	if err != nil {
		return models.Result{}, err
	}
	defer c.release(job.ID, p)

	for {
		env, err := c.next(ctx, p)
		if err != nil {
			return models.Result{}, err
		}

		switch env.Type {
		case MsgProgress:
			if env.Progress != nil && onProgress != nil {
				onProgress(*env.Progress)
			}
		case MsgResult:
			if env.Result == nil {
				return models.Result{}, fmt.Errorf("job %s: empty result", job.ID)
			}
			return *env.Result, nil
		default:
			c.log.Debug("ignoring message", zap.String("job", job.ID), zap.String("type", string(env.Type)))
		}
	}
}

// Detect sends one JPEG encoded frame and returns the faces found in it.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]models.Face, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("JPEG encode: %w", err)
	}

	env, err := c.call(ctx, Envelope{Type: MsgDetect, Image: buf.Bytes()}, MsgFaces)
	if err != nil {
		return nil, err
	}
	return env.Faces, nil
}

// Providers lists the execution providers available to the service.
func (c *Client) Providers(ctx context.Context) ([]string, error) {
	env, err := c.call(ctx, Envelope{Type: MsgProviders}, MsgProviders)
	if err != nil {
		return nil, err
	}
	return env.Providers, nil
}

func (c *Client) call(ctx context.Context, req Envelope, want MessageType) (Envelope, error) {
	req.ID = uuid.NewString()

	p, err := c.request(ctx, req)
	if err != nil {
		return Envelope{}, err
	}
	defer c.release(req.ID, p)

	for {
		env, err := c.next(ctx, p)
		if err != nil {
			return Envelope{}, err
		}
		if env.Type == want {
			return env, nil
		}
	}
}
