package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type DispatcherConfig struct {
	Buffer    int
	RetryMax  int
	RetryBase time.Duration
	Timeout   time.Duration
}

type job struct {
	msg     Message
	attempt int
}

// Dispatcher is a Mailer that queues messages and delivers them through the
// wrapped Mailer on a worker goroutine, retrying with exponential backoff.
type Dispatcher struct {
	cfg   DispatcherConfig
	inner Mailer

	queue chan job
	done  chan struct{}

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

func NewDispatcher(inner Mailer, cfg DispatcherConfig) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		cfg:   cfg,
		inner: inner,
		queue: make(chan job, cfg.Buffer),
		done:  make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.wg.Add(1)
	go d.worker(ctx)
}

// Stop ends the worker. Queued and pending retries are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	close(d.done)
	d.mu.Unlock()
	d.wg.Wait()
}

// SendPasswordReset never blocks on delivery. A full queue drops the message.
func (d *Dispatcher) SendPasswordReset(_ context.Context, to, link string) error {
	d.enqueue(job{msg: Message{Kind: KindPasswordReset, To: to, Link: link}}, 0)
	return nil
}

func (d *Dispatcher) enqueue(j job, delay time.Duration) {
	push := func() {
		select {
		case <-d.done:
			return
		case d.queue <- j:
			metricMailQueuedTotal.Add(1)
			metricMailQueueLen.Set(int64(len(d.queue)))
		default:
			metricMailDroppedTotal.Add(1)
			log.Warn().Str("kind", j.msg.Kind).Msg("mail queue full, message dropped")
		}
	}
	if delay <= 0 {
		push()
		return
	}
	time.AfterFunc(delay, push)
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case j := <-d.queue:
			metricMailQueueLen.Set(int64(len(d.queue)))
			d.deliver(ctx, j)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	var err error
	switch j.msg.Kind {
	case KindPasswordReset:
		err = d.inner.SendPasswordReset(sendCtx, j.msg.To, j.msg.Link)
	default:
		metricMailDroppedTotal.Add(1)
		return
	}
	if err == nil {
		metricMailSentTotal.Add(1)
		return
	}
	metricMailFailedTotal.Add(1)
	if j.attempt >= d.cfg.RetryMax {
		metricMailRetryDroppedTotal.Add(1)
		log.Warn().Err(err).Str("kind", j.msg.Kind).Int("attempts", j.attempt+1).Msg("mail delivery gave up")
		return
	}
	j.attempt++
	metricMailRetryTotal.Add(1)
	d.enqueue(j, d.cfg.RetryBase*time.Duration(1<<(j.attempt-1)))
}
