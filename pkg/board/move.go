package board

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Pending tracks the confirmation of one move.
type Pending struct {
	done chan struct{}
	noop bool
	err  error
}

func resolved(noop bool) *Pending {
	p := &Pending{done: make(chan struct{}), noop: noop}
	close(p.done)
	return p
}

// Done is closed once the move is confirmed or rolled back.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Noop reports whether the move changed nothing.
func (p *Pending) Noop() bool {
	return p.noop
}

// Err returns the outcome once Done is closed; nil before that.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the move settles or ctx ends. A server rejection is
// returned as *MoveError.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Move relocates itemID from one column to another at index, clamped to the
// destination's bounds. The local change is visible through Columns before
// Move returns. Moves between columns are then confirmed with the server in
// the background; a rejection triggers a full resync. Reordering inside one
// column stays local.
func (b *Board) Move(ctx context.Context, itemID, from, to string, index int) (*Pending, error) {
	if !b.layout.Has(from) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, from)
	}
	if !b.layout.Has(to) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, to)
	}

	b.mu.Lock()
	if _, busy := b.inFlight[itemID]; busy {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrMoveInFlight, itemID)
	}

	pos := indexOf(b.columns[from], itemID)
	if pos < 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s not in %s", ErrItemNotFound, itemID, from)
	}

	if from == to {
		dest := clamp(index, len(b.columns[from])-1)
		if dest == pos {
			b.mu.Unlock()
			return resolved(true), nil
		}
		item := b.columns[from][pos]
		b.columns[from] = insertAt(removeAt(b.columns[from], pos), dest, item)
		snap := b.snapshotLocked()
		b.mu.Unlock()

		b.changed(snap)
		return resolved(false), nil
	}

	item := b.columns[from][pos]
	b.columns[from] = removeAt(b.columns[from], pos)
	moved := item
	moved.Status = to
	b.columns[to] = insertAt(b.columns[to], clamp(index, len(b.columns[to])), moved)
	b.inFlight[itemID] = struct{}{}
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.changed(snap)

	p := &Pending{done: make(chan struct{})}
	go b.confirm(ctx, p, item, pos, to)
	return p, nil
}

func (b *Board) confirm(ctx context.Context, p *Pending, origin Item, originPos int, to string) {
	defer close(p.done)

	log := b.log.WithFields(logrus.Fields{
		"item": origin.ID,
		"from": origin.Status,
		"to":   to,
	})

	err := b.src.UpdateStatus(ctx, origin.ID, to)
	// The item stays locked until its rollback has landed.
	defer b.release(origin.ID)

	if err == nil {
		log.Debug("Move confirmed")
		return
	}

	log.WithError(err).Warn("Move rejected, resyncing board")
	moveErr := &MoveError{ItemID: origin.ID, From: origin.Status, To: to, Err: err}

	// The caller's context may be what failed the update; the refetch still has to run.
	if rerr := b.Resync(context.WithoutCancel(ctx)); rerr != nil {
		log.WithError(rerr).Error("Resync after rejected move failed, reverting item locally")
		moveErr.ResyncErr = rerr
		b.revert(origin, originPos)
	}
	p.err = moveErr
}

func (b *Board) release(itemID string) {
	b.mu.Lock()
	delete(b.inFlight, itemID)
	b.mu.Unlock()
}

// revert puts origin back at its pre-move position, wherever the item is now.
func (b *Board) revert(origin Item, pos int) {
	b.mu.Lock()
	for key, items := range b.columns {
		if i := indexOf(items, origin.ID); i >= 0 {
			b.columns[key] = removeAt(items, i)
		}
	}
	b.columns[origin.Status] = insertAt(b.columns[origin.Status], clamp(pos, len(b.columns[origin.Status])), origin)
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.changed(snap)
}

func indexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}

func removeAt(items []Item, i int) []Item {
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func insertAt(items []Item, i int, it Item) []Item {
	out := make([]Item, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, it)
	return append(out, items[i:]...)
}
