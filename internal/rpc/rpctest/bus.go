// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpctest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
)

// HandlerFunc answers an outgoing call.
type HandlerFunc func(args []any) ([]any, error)

// Record is an outgoing call recorded by [Bus].
type Record struct {
	Object rpc.Object
	Method string
	Args   []any
}

type subscriber struct {
	obj    rpc.Object
	member string
	ch     chan Signal
}

// Signal is an alias to keep test code short.
type Signal = rpc.Signal

// Bus is an in-memory [rpc.Bus].
type Bus struct {
	mu          sync.Mutex
	records     []Record
	handlers    map[string]HandlerFunc
	props       map[string]any
	objects     map[string][]string
	subscribers []*subscriber
	received    []*channel.Handle
	peers       []*Peer

	peerAdded chan struct{}
}

var _ rpc.Bus = (*Bus)(nil)

// New creates a new [Bus]. All descriptors received by calls are closed on
// test cleanup.
func New(tb testing.TB) *Bus {
	tb.Helper()

	bus := &Bus{
		handlers:  make(map[string]HandlerFunc),
		props:     make(map[string]any),
		objects:   make(map[string][]string),
		peerAdded: make(chan struct{}, 1),
	}

	tb.Cleanup(bus.closeReceived)

	return bus
}

func methodKey(obj rpc.Object, method string) string {
	return obj.Path + " " + obj.Method(method)
}

// HandleCall sets the handler answering calls of the method on the object.
// Calls without handler succeed without reply values.
func (b *Bus) HandleCall(obj rpc.Object, method string, fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[methodKey(obj, method)] = fn
}

// FailCall lets all calls of the method on the object fail with err.
func (b *Bus) FailCall(obj rpc.Object, method string, err error) {
	b.HandleCall(obj, method, func([]any) ([]any, error) {
		return nil, err
	})
}

// SetProperty sets the value returned for property reads.
func (b *Bus) SetProperty(obj rpc.Object, name string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.props[methodKey(obj, name)] = value
}

// SetObjects sets the managed objects returned by [Bus.Objects].
func (b *Bus) SetObjects(objects map[string][]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects = objects
}

// Calls returns all recorded calls of the given method. If method is empty,
// all calls are returned.
func (b *Bus) Calls(method string) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	var records []Record

	for _, record := range b.records {
		if method == "" || record.Method == method {
			records = append(records, record)
		}
	}

	return records
}

// Emit sends a signal to all matching watchers. Signals are dropped for
// watchers that do not keep up.
func (b *Bus) Emit(obj rpc.Object, member string, body ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		if sub.obj.Path != obj.Path || sub.member != member {
			continue
		}

		select {
		case sub.ch <- Signal{Path: obj.Path, Member: member, Body: body}:
		default:
		}
	}
}

// Call implements [rpc.Bus].
func (b *Bus) Call(
	ctx context.Context,
	obj rpc.Object,
	method string,
	args []any,
	reply ...any,
) error {
	if err := ctx.Err(); err != nil {
		return &rpc.CallError{Object: obj, Method: method, Err: err}
	}

	recorded := make([]any, len(args))

	for idx, arg := range args {
		handle, ok := arg.(*channel.Handle)
		if !ok {
			recorded[idx] = arg
			continue
		}

		// The peer gets its own descriptor, like with real descriptor
		// passing.
		dup, err := handle.Dup()
		if err != nil {
			return &rpc.CallError{Object: obj, Method: method, Err: err}
		}

		recorded[idx] = dup
	}

	b.mu.Lock()
	b.records = append(b.records, Record{Object: obj, Method: method, Args: recorded})

	for _, arg := range recorded {
		if handle, ok := arg.(*channel.Handle); ok {
			b.received = append(b.received, handle)
		}
	}

	handler := b.handlers[methodKey(obj, method)]
	b.mu.Unlock()

	if handler == nil {
		return nil
	}

	values, err := handler(recorded)
	if err != nil {
		return &rpc.CallError{Object: obj, Method: method, Err: err}
	}

	err = store(values, reply)
	if err != nil {
		return &rpc.CallError{Object: obj, Method: method, Err: err}
	}

	return nil
}

// Property implements [rpc.Bus].
func (b *Bus) Property(_ context.Context, obj rpc.Object, name string, value any) error {
	b.mu.Lock()
	prop, exists := b.props[methodKey(obj, name)]
	b.mu.Unlock()

	if !exists {
		return &rpc.CallError{Object: obj, Method: name, Err: ErrUnknownProperty}
	}

	err := store([]any{prop}, []any{value})
	if err != nil {
		return &rpc.CallError{Object: obj, Method: name, Err: err}
	}

	return nil
}

// Serve implements [rpc.Bus].
func (b *Bus) Serve(_ context.Context, _ *channel.Handle, obj rpc.Object) (rpc.Server, error) {
	return b.host(obj), nil
}

// Export implements [rpc.Bus].
func (b *Bus) Export(_ context.Context, obj rpc.Object) (rpc.Server, error) {
	return b.host(obj), nil
}

func (b *Bus) host(obj rpc.Object) *server {
	srv := newServer()

	b.mu.Lock()
	b.peers = append(b.peers, &Peer{Object: obj, server: srv})
	b.mu.Unlock()

	select {
	case b.peerAdded <- struct{}{}:
	default:
	}

	return srv
}

// Objects implements [rpc.Bus].
func (b *Bus) Objects(_ context.Context, root rpc.Object) (map[string][]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	objects := make(map[string][]string)

	for path, ifaces := range b.objects {
		if strings.HasPrefix(path, root.Path) {
			objects[path] = ifaces
		}
	}

	return objects, nil
}

// Watch implements [rpc.Bus].
func (b *Bus) Watch(ctx context.Context, obj rpc.Object, member string) (<-chan rpc.Signal, error) {
	sub := &subscriber{
		obj:    obj,
		member: member,
		ch:     make(chan Signal, 16),
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for idx, s := range b.subscribers {
			if s == sub {
				b.subscribers = append(b.subscribers[:idx], b.subscribers[idx+1:]...)
				break
			}
		}

		close(sub.ch)
	})

	return sub.ch, nil
}

// NextPeer returns the peer of the next hosted object. It blocks until an
// object is hosted or ctx is done.
func (b *Bus) NextPeer(ctx context.Context) (*Peer, error) {
	for {
		b.mu.Lock()
		if len(b.peers) > 0 {
			peer := b.peers[0]
			b.peers = b.peers[1:]
			b.mu.Unlock()

			return peer, nil
		}
		b.mu.Unlock()

		select {
		case <-b.peerAdded:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (b *Bus) closeReceived() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, handle := range b.received {
		_ = handle.Close()
	}

	b.received = nil
}

func store(values, dest []any) error {
	if len(dest) > len(values) {
		return fmt.Errorf("%d reply values for %d destinations", len(values), len(dest))
	}

	for idx, ptr := range dest {
		target := reflect.ValueOf(ptr)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("destination %d is not a pointer", idx)
		}

		value := reflect.ValueOf(values[idx])
		if !value.IsValid() {
			target.Elem().SetZero()
			continue
		}

		if !value.Type().AssignableTo(target.Elem().Type()) {
			if !value.Type().ConvertibleTo(target.Elem().Type()) {
				return fmt.Errorf("value %d of type %T can not be stored in %T",
					idx, values[idx], ptr)
			}

			value = value.Convert(target.Elem().Type())
		}

		target.Elem().Set(value)
	}

	return nil
}
