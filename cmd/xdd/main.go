// Command xdd runs the pre-issue pipeline for every op of a
// multi-target plan loaded from an INI plan file: a small flag set
// wires command-line options straight into the run's immutable config,
// and logrus is configured once at startup for its level. The reads and
// writes themselves are not issued here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	xdd "github.com/xdd-io/xdd"
	"github.com/xdd-io/xdd/pkg/pipeline"
	"github.com/xdd-io/xdd/pkg/planfile"
	"github.com/xdd-io/xdd/pkg/raw"
	"github.com/xdd-io/xdd/pkg/syncio"
	"github.com/xdd-io/xdd/pkg/target"
	"github.com/xdd-io/xdd/pkg/transport"
	"github.com/xdd-io/xdd/pkg/worker"
)

func main() {
	var (
		planPath     = flag.String("plan", "", "path to the target plan file (required)")
		syncioPeriod = flag.Int("syncio-period", 0, "syncio rendezvous period in ops, 0 disables syncio")
		pageSize     = flag.Int64("page-size", 4096, "page size in bytes, used by the DIO alignment check")
		verbose      = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "xdd: -plan is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := &xdd.RunConfig{SyncioPeriod: *syncioPeriod, PageSize: *pageSize}
	plan, err := planfile.LoadPlan(*planPath, cfg)
	if err != nil {
		log.Fatalf("xdd: loading plan: %v", err)
	}

	if err := run(plan); err != nil {
		log.Fatalf("xdd: run failed: %v", err)
	}
}

// run drives every target's worker to completion. Each target gets a
// single worker (queue slot 0) whatever its queue depth; syncio is
// shared plan-wide.
func run(plan *xdd.Plan) error {
	driver := pipeline.New(plan.Config, plan.State)

	// Syncio is the one stage with plan-wide rather than per-target
	// configuration, so it is built once here and shared by every
	// target's Stages.
	syncCoord := syncio.New(plan.Config.SyncioPeriod, len(plan.Targets))

	done := make(chan struct{}, len(plan.Targets))
	for _, t := range plan.Targets {
		t.NextPass(0)
		w := worker.New(t, 0)
		if err := openHandle(w, t); err != nil {
			log.Errorf("[target %d] open %q: %v", t.ID, t.Path, err)
			plan.State.SetAbort()
			done <- struct{}{}
			continue
		}
		w.Reset()
		stages := buildStages(t, w, syncCoord)
		go func(wk *worker.Worker, s *pipeline.Stages) {
			defer func() { done <- struct{}{} }()
			runWorker(driver, wk, s)
		}(w, stages)
	}
	for range plan.Targets {
		<-done
	}
	syncCoord.Close()
	if plan.State.Abort() {
		return xdd.ErrAbort
	}
	return nil
}

// openHandle opens t's backing path through pkg/transport, choosing the
// dio backend when the target requests direct I/O. A target with no
// path configured runs with a nil handle; checkDIO and the RAW reader
// stage both tolerate that.
func openHandle(w *worker.Worker, t *target.Target) error {
	if t.Path == "" {
		return nil
	}
	scheme := "file"
	if t.Options.Has(target.OptDIO) {
		scheme = "dio"
	}
	handle, err := transport.Open(context.Background(), scheme, transport.OpenOptions{
		Path: t.Path,
		DIO:  t.Options.Has(target.OptDIO),
	})
	if err != nil {
		return err
	}
	w.Handle = handle
	w.Path = t.Path
	return nil
}

// buildStages assembles the pipeline collaborators t's options call for.
// Trigger, lockstep and E2E pairings need cross-target configuration
// (peer ids, thresholds, a network connection) the plan file does not
// carry yet, so those stages stay nil here; they are exercised by the
// trigger, lockstep and e2e packages' own tests.
func buildStages(t *target.Target, w *worker.Worker, syncCoord *syncio.Coordinator) *pipeline.Stages {
	s := &pipeline.Stages{Syncio: syncCoord}
	if t.Options.Has(target.OptRawReader) && w.Handle != nil {
		s.Raw = raw.NewFileStatPoll(w.Handle)
	}
	return s
}

func runWorker(driver *pipeline.Pipeline, w *worker.Worker, stages *pipeline.Stages) {
	t := w.Target
	for !w.PassRing && !w.ErrorBreak {
		if driver.State.Abort() {
			return
		}
		if w.CurrentOp >= t.TargetOps {
			return
		}
		t.CurrentOp = w.CurrentOp
		res, err := driver.Process(w, stages)
		switch res {
		case pipeline.ResultLoop:
			continue
		case pipeline.ResultFailed:
			log.Errorf("[worker %d] target %d op %d failed: %v", w.Index, t.ID, w.CurrentOp, err)
			return
		}
		w.CurrentOp++
	}
}
