// Package approval drives the approving device's login approval screen.
//
// A ViewModel owns a single State value. Actions are processed one at a time by a loop goroutine,
// network calls post their results back as actions, and one-shot Events are delivered on a
// separate channel. Cancelling the context passed to NewViewModel stops the loop and any call in flight.
package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtacn/vaultgate/pkg/logger"
	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

const (
	actionBuffer = 16
	eventBuffer  = 8
)

// RequestService is the part of the API client the screen needs. *vaultclient.Client satisfies it.
type RequestService interface {
	GetAuthRequestByFingerprint(ctx context.Context, fingerprint string) (*vaultclient.AuthRequest, error)
	UpdateAuthRequest(ctx context.Context, id string, in *vaultclient.UpdateAuthRequestInput) (*vaultclient.AuthRequest, error)
}

// Config describes the request being approved and how to present it.
type Config struct {
	Fingerprint string
	Email       string
	// Location is the viewer's time zone. Defaults to time.Local.
	Location *time.Location
	Logger   logger.Logger
}

type ViewModel struct {
	ctx     context.Context
	client  RequestService
	loc     *time.Location
	logger  logger.Logger
	actions chan Action
	events  chan Event
	updates chan State
	done    chan struct{}

	mu       sync.RWMutex
	snapshot State

	// loop-owned
	state    State
	request  *vaultclient.AuthRequest
	inFlight bool
	// decided is set once a decision was accepted; the screen is finished.
	decided bool
}

var _ RequestService = (*vaultclient.Client)(nil)

// NewViewModel starts the screen loop and fetches the request for cfg.Fingerprint.
func NewViewModel(ctx context.Context, client RequestService, cfg Config) *ViewModel {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	initial := State{
		Fingerprint: cfg.Fingerprint,
		Email:       cfg.Email,
		ViewState:   Loading{},
	}
	vm := &ViewModel{
		ctx:      ctx,
		client:   client,
		loc:      cfg.Location,
		logger:   cfg.Logger.WithComponent("approval"),
		actions:  make(chan Action, actionBuffer),
		events:   make(chan Event, eventBuffer),
		updates:  make(chan State, 1),
		done:     make(chan struct{}),
		snapshot: initial,
		state:    initial,
	}

	vm.inFlight = true
	go vm.fetch(cfg.Fingerprint)
	go vm.loop()
	return vm
}

// State returns the latest state snapshot.
func (vm *ViewModel) State() State {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.snapshot
}

// StateUpdates delivers the newest state after each change. Stale snapshots are dropped
// when the reader falls behind. The channel is closed when the loop stops.
func (vm *ViewModel) StateUpdates() <-chan State {
	return vm.updates
}

// Events delivers one-shot events to a single consumer. The channel is closed when the loop stops.
func (vm *ViewModel) Events() <-chan Event {
	return vm.events
}

// Done is closed once the loop has stopped.
func (vm *ViewModel) Done() <-chan struct{} {
	return vm.done
}

// Dispatch queues an action. Actions sent after the loop stopped are dropped.
func (vm *ViewModel) Dispatch(a Action) {
	select {
	case vm.actions <- a:
	case <-vm.done:
	}
}

func (vm *ViewModel) loop() {
	defer func() {
		close(vm.events)
		close(vm.updates)
		close(vm.done)
	}()

	for {
		select {
		case <-vm.ctx.Done():
			return
		case a := <-vm.actions:
			vm.handle(a)
		}
	}
}

func (vm *ViewModel) handle(action Action) {
	switch a := action.(type) {
	case ApproveRequestClick:
		vm.submit(true)
	case DeclineRequestClick:
		vm.submit(false)
	case CloseClick:
		vm.emit(NavigateBack{})
	case ErrorDialogDismiss:
		vm.state.ShouldShowErrorDialog = false
		vm.publish()
	case fetchResult:
		vm.handleFetchResult(a)
	case decisionResult:
		vm.handleDecisionResult(a)
	default:
		panic(fmt.Sprintf("approval: unhandled action %T", action))
	}
}

func (vm *ViewModel) handleFetchResult(r fetchResult) {
	vm.inFlight = false
	if r.err != nil {
		vm.logger.Warn(vm.ctx, "Failed to load auth request",
			logger.String("fingerprint", vm.state.Fingerprint), logger.Error(r.err))
		vm.state.ViewState = Error{Message: genericErrorMessage}
		vm.publish()
		return
	}

	vm.request = r.request
	vm.state.ViewState = contentFrom(r.request, vm.state.Email, vm.loc)
	vm.publish()
}

func (vm *ViewModel) handleDecisionResult(r decisionResult) {
	vm.inFlight = false
	if r.err != nil {
		vm.logger.Warn(vm.ctx, "Failed to submit decision",
			logger.Bool("approved", r.approved), logger.Error(r.err))
		vm.state.ShouldShowErrorDialog = true
		vm.publish()
		return
	}

	vm.decided = true
	if r.approved {
		vm.emit(ShowToast{Message: ToastLoginApproved})
	}
	vm.emit(NavigateBack{})
}

// submit is ignored unless content is shown, no call is in flight and no decision was accepted yet.
func (vm *ViewModel) submit(approved bool) {
	if vm.inFlight || vm.decided || vm.request == nil {
		return
	}
	if _, ok := vm.state.ViewState.(Content); !ok {
		return
	}

	req := vm.request
	in := &vaultclient.UpdateAuthRequestInput{
		MasterPasswordHash: req.MasterPasswordHash,
		PublicKey:          req.PublicKey,
		RequestApproved:    &approved,
	}

	vm.inFlight = true
	go func() {
		_, err := vm.client.UpdateAuthRequest(vm.ctx, req.ID, in)
		vm.post(decisionResult{approved: approved, err: err})
	}()
}

func (vm *ViewModel) fetch(fingerprint string) {
	req, err := vm.client.GetAuthRequestByFingerprint(vm.ctx, fingerprint)
	if err == nil && req == nil {
		err = vaultclient.ErrNotFound
	}
	vm.post(fetchResult{request: req, err: err})
}

// post delivers a call result back to the loop.
func (vm *ViewModel) post(a Action) {
	select {
	case vm.actions <- a:
	case <-vm.ctx.Done():
	}
}

func (vm *ViewModel) emit(e Event) {
	select {
	case vm.events <- e:
	case <-vm.ctx.Done():
	}
}

func (vm *ViewModel) publish() {
	vm.mu.Lock()
	vm.snapshot = vm.state
	vm.mu.Unlock()

	select {
	case <-vm.updates:
	default:
	}
	vm.updates <- vm.state
}
