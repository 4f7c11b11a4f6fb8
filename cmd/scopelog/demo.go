package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	scopelog "github.com/gxo-labs/scopelog/pkg/scopelog/v1"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// Every debugEvery-th request runs with FINEST logging forced.
const debugEvery = 7

var (
	requestType = scopelog.NewScopeType("request")
	routeKey    = metadata.NewKey("route")
	userKey     = metadata.NewKey("user")

	routes = []string{"/cart", "/checkout", "/search"}
	users  = []string{"alice", "bob", "carol", "dave", "erin"}
)

// demo simulates a request-serving process whose handlers log through one
// scoped Logger.
type demo struct {
	log    *scopelog.Logger
	tracer trace.Tracer
	debug  *level.Map
	audits sync.WaitGroup
}

func newDemo(log *scopelog.Logger, tracer trace.Tracer) *demo {
	return &demo{
		log:    log,
		tracer: tracer,
		debug:  level.Create(map[string]level.Level{log.Name(): level.Finest}, level.Off),
	}
}

// run handles requests on a pool of workers and returns the number of
// requests that succeeded. It stops feeding requests when ctx is done.
func (d *demo) run(ctx context.Context, requests, workers int) int {
	jobs := make(chan int)
	var handled atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for id := range jobs {
				if err := d.handle(ctx, worker, id); err != nil {
					d.log.AtSevere(ctx).AtMostEvery(time.Second).WithCause(err).Logf("request %d failed", id)
					continue
				}
				handled.Add(1)
			}
		}(w)
	}

feed:
	for id := 0; id < requests; id++ {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	d.audits.Wait()
	return int(handled.Load())
}

func (d *demo) handle(ctx context.Context, worker, id int) error {
	ctx, span := d.tracer.Start(ctx, "request")
	defer span.End()

	user := users[id%len(users)]
	b := scopelog.NewContext(ctx).
		WithType(requestType).
		WithTags(tags.NewBuilder().AddInt("request_id", int64(id)).AddInt("worker", int64(worker)).Build()).
		WithMetadata(routeKey, routes[id%len(routes)])
	if id%debugEvery == 0 {
		b = b.WithLogLevelMap(d.debug)
	}
	return b.Run(func(ctx context.Context) error {
		d.log.AtFine(ctx).Logf("request %d accepted", id)
		scopelog.AddMetadata(ctx, userKey, user)

		d.lookup(ctx, user)
		if id%13 == 12 {
			return fmt.Errorf("payment backend rejected request %d", id)
		}
		d.log.AtInfo(ctx).Every(10).Logf("handled request %d", id)
		d.log.AtWarning(ctx).AtMostEvery(50*time.Millisecond).Per(user).Logf("slow backend for %s", user)
		d.audit(ctx, id)
		return nil
	})
}

// lookup retries a cache read, logging every other attempt of each request.
func (d *demo) lookup(ctx context.Context, user string) {
	for attempt := 1; attempt <= 3; attempt++ {
		d.log.AtFiner(ctx).Every(2).PerScope(requestType).Logf("cache lookup for %s, attempt %d", user, attempt)
	}
}

// audit finishes request id in the background with the request's scope.
func (d *demo) audit(ctx context.Context, id int) {
	snap := scopelog.Capture(ctx)
	d.audits.Add(1)
	go func() {
		defer d.audits.Done()
		ctx := scopelog.Attach(context.Background(), snap)
		scopelog.AddTags(ctx, tags.Of("audit", nil))
		d.log.AtInfo(ctx).OnAverageEvery(5).Logf("audited request %d", id)
	}()
}
