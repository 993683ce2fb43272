package evidence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fjglira/xraysync/internal/domain"
	"github.com/fjglira/xraysync/internal/xray"
)

// System is the Xray flavor evidence is attached through. It is built with ServerSystem or
// CloudSystem.
type System interface {
	resolveRun(ctx context.Context, execKey, testKey string) (testRun, error)
}

// testRun attaches single evidence items and returns non-fatal warnings.
type testRun interface {
	attach(ctx context.Context, item domain.EvidenceItem) ([]string, error)
	fmt.Stringer
}

type serverSystem struct {
	api xray.ServerRunAPI
}

// ServerSystem attaches evidence through Xray Server, which identifies runs by number.
func ServerSystem(api xray.ServerRunAPI) System {
	return serverSystem{api: api}
}

func (s serverSystem) resolveRun(ctx context.Context, execKey, testKey string) (testRun, error) {
	run, err := s.api.GetTestRun(ctx, execKey, testKey)
	if err != nil {
		return nil, err
	}
	return serverRun{api: s.api, id: run.ID}, nil
}

type serverRun struct {
	api xray.ServerRunAPI
	id  int
}

func (r serverRun) attach(ctx context.Context, item domain.EvidenceItem) ([]string, error) {
	return nil, r.api.AddEvidence(ctx, r.id, item)
}

func (r serverRun) String() string {
	return strconv.Itoa(r.id)
}

type cloudSystem struct {
	api xray.CloudRunAPI
}

// CloudSystem attaches evidence through Xray Cloud, where a run lookup returns a list that must
// hold exactly one run with an id.
func CloudSystem(api xray.CloudRunAPI) System {
	return cloudSystem{api: api}
}

func (s cloudSystem) resolveRun(ctx context.Context, execKey, testKey string) (testRun, error) {
	runs, err := s.api.GetTestRunResults(ctx, []string{execKey}, []string{testKey})
	if err != nil {
		return nil, err
	}
	switch {
	case len(runs) == 0:
		return nil, domain.ErrNoTestRun
	case len(runs) > 1:
		return nil, fmt.Errorf("%w: got %d", domain.ErrMultipleTestRuns, len(runs))
	case runs[0].ID == nil || *runs[0].ID == "":
		return nil, domain.ErrTestRunWithoutID
	}
	return cloudRun{api: s.api, id: *runs[0].ID}, nil
}

type cloudRun struct {
	api xray.CloudRunAPI
	id  string
}

func (r cloudRun) attach(ctx context.Context, item domain.EvidenceItem) ([]string, error) {
	res, err := r.api.AddEvidenceToTestRun(ctx, r.id, []domain.EvidenceItem{item})
	if err != nil {
		return nil, err
	}
	return res.Warnings, nil
}

func (r cloudRun) String() string {
	return r.id
}
