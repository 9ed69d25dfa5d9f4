package services_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/core/ports/sources"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/shopspring/decimal"
)

const (
	testVendor  = "isracard"
	testAccount = "1234"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func rawTxn(date, description, amount string) domain.RawTransaction {
	return domain.RawTransaction{
		Vendor:        testVendor,
		AccountNumber: testAccount,
		Date:          day(date),
		Amount:        decimal.RequireFromString(amount),
		Description:   description,
	}
}

func installmentLeg(date, description, amount string, number, total int) domain.RawTransaction {
	r := rawTxn(date, description, amount)
	r.Type = domain.TransactionTypeInstallments
	r.InstallmentNumber = number
	r.InstallmentTotal = total
	return r
}

// scriptedSource replays a fixed list of events per Open call.
type scriptedSource struct {
	mu      sync.Mutex
	vendors map[string]bool
	scripts [][]scriptStep
	opened  []sources.OpenRequest
	openErr error
}

// scriptStep is either an event or an error returned from Next. block makes
// Next wait for ctx to be cancelled.
type scriptStep struct {
	event sources.Event
	err   error
	block bool
}

func newScriptedSource(scripts ...[]scriptStep) *scriptedSource {
	return &scriptedSource{vendors: map[string]bool{testVendor: true}, scripts: scripts}
}

func (s *scriptedSource) SupportsVendor(vendor string) bool {
	return s.vendors[vendor]
}

func (s *scriptedSource) Open(_ context.Context, req sources.OpenRequest) (sources.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, req)
	if s.openErr != nil {
		return nil, s.openErr
	}
	var script []scriptStep
	if len(s.scripts) > 0 {
		script, s.scripts = s.scripts[0], s.scripts[1:]
	}
	return &scriptedSession{steps: script}, nil
}

func (s *scriptedSource) openRequests() []sources.OpenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sources.OpenRequest, len(s.opened))
	copy(out, s.opened)
	return out
}

type scriptedSession struct {
	steps  []scriptStep
	pos    int
	closed bool
}

func (s *scriptedSession) Next(ctx context.Context) (sources.Event, error) {
	if s.pos >= len(s.steps) {
		return sources.Event{}, io.EOF
	}
	step := s.steps[s.pos]
	s.pos++
	if step.block {
		<-ctx.Done()
		return sources.Event{}, ctx.Err()
	}
	if step.err != nil {
		return sources.Event{}, step.err
	}
	return step.event, nil
}

func (s *scriptedSession) Close() error {
	s.closed = true
	return nil
}

func stepEvent(name, message string) scriptStep {
	return scriptStep{event: sources.Event{Step: &sources.Step{Name: name, Message: message}}}
}

func accountEvent(account string, txns ...domain.RawTransaction) scriptStep {
	return scriptStep{event: sources.Event{Account: &sources.AccountBatch{AccountNumber: account, Transactions: txns}}}
}

// drain collects events until the stream closes or the timeout hits.
func drain(events <-chan progress.Event, timeout time.Duration) ([]progress.Event, bool) {
	var out []progress.Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out, true
			}
			out = append(out, ev)
		case <-deadline:
			return out, false
		}
	}
}
