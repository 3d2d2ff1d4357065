package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/chainlaunch/asset-gateway/pkg/fabric/broker"
)

const (
	KindSubmit   = "submit"
	KindEvaluate = "evaluate"
)

// Call is one recorded contract invocation.
type Call struct {
	Kind string
	Name string
	Args []string
}

// FakeContract records calls and answers with scripted payloads.
type FakeContract struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string][]byte
	errs      map[string]error
}

func NewFakeContract() *FakeContract {
	return &FakeContract{
		responses: map[string][]byte{},
		errs:      map[string]error{},
	}
}

// On scripts the payload returned for transaction name.
func (c *FakeContract) On(name string, payload []byte) *FakeContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[name] = payload
	return c
}

// Fail scripts an error for transaction name.
func (c *FakeContract) Fail(name string, err error) *FakeContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[name] = err
	return c
}

func (c *FakeContract) SubmitTransaction(name string, args ...string) ([]byte, error) {
	return c.record(KindSubmit, name, args)
}

func (c *FakeContract) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	return c.record(KindEvaluate, name, args)
}

func (c *FakeContract) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *FakeContract) record(kind, name string, args []string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Kind: kind, Name: name, Args: append([]string{}, args...)})
	if err, ok := c.errs[name]; ok {
		return nil, err
	}
	return c.responses[name], nil
}

// FakeConnector hands out connections to a shared FakeContract and counts
// opens and closes.
type FakeConnector struct {
	Contract *FakeContract
	// Err, when set, fails every Connect.
	Err error

	mu       sync.Mutex
	opens    int
	closes   int
	requests []broker.ConnectRequest
}

func NewFakeConnector(contract *FakeContract) *FakeConnector {
	if contract == nil {
		contract = NewFakeContract()
	}
	return &FakeConnector{Contract: contract}
}

func (f *FakeConnector) Connect(ctx context.Context, req broker.ConnectRequest) (broker.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	f.opens++
	return &fakeConnection{parent: f}, nil
}

func (f *FakeConnector) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *FakeConnector) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// Requests returns every Connect request, including failed ones.
func (f *FakeConnector) Requests() []broker.ConnectRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]broker.ConnectRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type fakeConnection struct {
	parent *FakeConnector
}

func (c *fakeConnection) Contract() broker.Contract {
	return c.parent.Contract
}

func (c *fakeConnection) Close() error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.closes++
	if c.parent.closes > c.parent.opens {
		return fmt.Errorf("connection closed more times than opened")
	}
	return nil
}
