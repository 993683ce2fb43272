package evidence

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/xray"
)

// Mode selects how the evidence items of one test are uploaded.
type Mode int

const (
	// ModeConcurrent uploads all items of a test at once, in no particular order.
	ModeConcurrent Mode = iota
	// ModeSequential uploads the items of a test one after the other, in payload order.
	ModeSequential
)

func (m Mode) String() string {
	if m == ModeSequential {
		return "sequential"
	}
	return "concurrent"
}

// ParseMode parses "concurrent" or "sequential". An empty string means concurrent.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "concurrent":
		return ModeConcurrent, nil
	case "sequential":
		return ModeSequential, nil
	}
	return ModeConcurrent, fmt.Errorf("unknown evidence mode %q (expected concurrent or sequential)", s)
}

// DefaultConcurrency bounds the number of evidence uploads in flight across all tests.
const DefaultConcurrency = 8

// Distributor imports execution results and attaches their evidence afterwards.
type Distributor struct {
	importer xray.ExecutionImporter
	system   System
	mode     Mode
	log      logrus.FieldLogger

	// Concurrency bounds parallel uploads across all tests of a payload. Zero or less removes
	// the bound.
	Concurrency int
}

// NewDistributor creates a new Distributor.
func NewDistributor(importer xray.ExecutionImporter, system System, mode Mode, log logrus.FieldLogger) *Distributor {
	return &Distributor{
		importer:    importer,
		system:      system,
		mode:        mode,
		log:         log,
		Concurrency: DefaultConcurrency,
	}
}

// SplitAndUpload imports payload without its evidence exactly once and then attaches every
// detached item to its test run. Only the import can fail the call; evidence failures are logged.
func (d *Distributor) SplitAndUpload(ctx context.Context, payload domain.ImportPayload) (string, error) {
	split := SplitPayload(payload)

	execKey, err := d.importer.ImportExecution(ctx, split.Payload)
	if err != nil {
		return "", domain.NewError(domain.PhaseUpload, "", 0, "failed to import execution results", err)
	}
	d.log.Infof("Imported execution results into %s", execKey)

	var slots *semaphore.Weighted
	if d.Concurrency > 0 {
		slots = semaphore.NewWeighted(int64(d.Concurrency))
	}
	var g errgroup.Group
	for _, testKey := range split.Order {
		items := split.Evidence[testKey]
		g.Go(func() error {
			d.uploadTest(ctx, slots, execKey, testKey, items)
			return nil
		})
	}
	_ = g.Wait()
	return execKey, nil
}

// uploadTest attaches the items of one test. slots is shared by all tests and may be nil.
func (d *Distributor) uploadTest(ctx context.Context, slots *semaphore.Weighted, execKey, testKey string, items []domain.EvidenceItem) {
	run, err := d.system.resolveRun(ctx, execKey, testKey)
	if err != nil {
		d.log.Warnf("Failed to find the test run of %s in %s, skipping %d evidence item(s): %v",
			testKey, execKey, len(items), err)
		return
	}
	d.log.Debugf("Attaching %d evidence item(s) to test run %s of %s", len(items), run, testKey)

	upload := func(item domain.EvidenceItem) {
		if slots != nil {
			if err := slots.Acquire(ctx, 1); err != nil {
				d.log.Warnf("Failed to upload evidence %s of test %s in test execution %s: %v",
					item.Filename, testKey, execKey, err)
				return
			}
			defer slots.Release(1)
		}
		warnings, err := run.attach(ctx, item)
		if err != nil {
			d.log.Warnf("Failed to upload evidence %s of test %s in test execution %s: %v",
				item.Filename, testKey, execKey, err)
			return
		}
		for _, w := range warnings {
			d.log.Warnf("Evidence %s of test %s: %s", item.Filename, testKey, w)
		}
	}

	if d.mode == ModeSequential {
		for _, item := range items {
			upload(item)
		}
		return
	}

	var g errgroup.Group
	for _, item := range items {
		g.Go(func() error {
			upload(item)
			return nil
		})
	}
	_ = g.Wait()
}
