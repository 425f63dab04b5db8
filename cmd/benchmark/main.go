package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/delaneyj/rxstate/result"
	"github.com/delaneyj/rxstate/rx"
	"github.com/delaneyj/rxstate/store"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var cpuProfile = flag.String("cpuprofile", "", "write a CPU profile to this file")

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkSelectors(false)

	benchmarkSelectors(true)
	benchmarkReducer(true)
	benchmarkAsync(true)
}

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100}
	iters = 100
)

type counterAction struct{ by int }

func (counterAction) ActionType() string { return "add" }

func addBy(total int, a counterAction) int {
	return total + a.by
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendTimes(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
}

// benchmarkSelectors times one write to a store feeding w chains of h
// selectors, each chain subscribed at its end.
func benchmarkSelectors(shouldRender bool) {
	tbl := newTable("Selectors")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			src := store.NewStore(1)
			subs := make([]*rx.Subscription, 0, w)
			for i := 0; i < w; i++ {
				var (
					last store.Readable[int] = src
					leaf *store.Selector[int]
				)
				for j := 0; j < h; j++ {
					prev := last
					leaf = store.NewSelector(func(g *store.Getter) int {
						return store.Get(g, prev) + 1
					})
					last = leaf
				}
				subs = append(subs, leaf.Subscribe(rx.OnNext(func(int) {})))
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Next(src.Value() + 1)
				tach.AddTime(time.Since(start))
			}
			for _, sub := range subs {
				sub.Unsubscribe()
			}

			appendTimes(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkReducer times one dispatch to w reducer stores sharing a
// dispatcher.
func benchmarkReducer(shouldRender bool) {
	tbl := newTable("Reducer stores")

	for _, w := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		d := store.NewDispatcher[counterAction]()
		subs := make([]*rx.Subscription, 0, w)
		for i := 0; i < w; i++ {
			r := store.NewReducerStore(0, struct{}{}, addBy, nil, store.WithDispatcher(d))
			subs = append(subs, r.Subscribe(rx.OnNext(func(int) {})))
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			d.Next(counterAction{by: 1})
			tach.AddTime(time.Since(start))
		}
		for _, sub := range subs {
			sub.Unsubscribe()
		}

		appendTimes(tbl, fmt.Sprintf("dispatch: %d stores", w), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkAsync times a forced load from call to settled value, including
// the hop to the getter's goroutine and back.
func benchmarkAsync(shouldRender bool) {
	tbl := newTable("Async stores")
	tach := tachymeter.New(&tachymeter.Config{Size: iters})

	var n atomic.Int64
	a := store.NewAsyncStore[int64](func(context.Context) (int64, error) {
		return n.Add(1), nil
	}, nil)
	sub := a.Subscribe(rx.OnNext(func(result.Result[int64]) {}))
	defer sub.Unsubscribe()

	ctx := context.Background()
	for i := 0; i < iters; i++ {
		start := time.Now()
		if _, err := a.Load(true).Wait(ctx); err != nil {
			log.Fatal(err)
		}
		tach.AddTime(time.Since(start))
	}
	appendTimes(tbl, "load", tach)

	if shouldRender {
		tbl.Render()
	}
}
