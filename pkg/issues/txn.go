package issues

// txn stages the effects of one notification, or of a whole Batch. A
// notification that fails leaves neither saved issues nor dedup entries
// behind. Sinks cannot take a save back, so when a save fails at commit the
// notifications the sink already accepted stay and every later one is undone.
type txn struct {
	pending []pendingSave
	undos   []func()
	// from is where the undos of the current notification start.
	from int
}

type pendingSave struct {
	save  func() error
	count func(*Stats)
	from  int
}

// begin opens the next notification of the transaction.
func (t *txn) begin() {
	t.from = len(t.undos)
}

func (t *txn) save(fn func() error, count func(*Stats)) {
	t.pending = append(t.pending, pendingSave{save: fn, count: count, from: t.from})
}

func (t *txn) undo(fn func()) {
	t.undos = append(t.undos, fn)
}

func (t *txn) rollback() {
	t.rollbackFrom(0)
}

// rollbackFrom undoes, newest first, everything recorded since undo index from.
func (t *txn) rollbackFrom(from int) {
	for i := len(t.undos) - 1; i >= from; i-- {
		t.undos[i]()
	}
	t.pending, t.undos, t.from = nil, nil, 0
}

// apply runs fn in its own transaction unless a Batch is being applied.
func (r *Reconciler) apply(fn func() error) error {
	if r.closed {
		return ErrClosed
	}
	if r.tx != nil {
		r.tx.begin()
		return fn()
	}
	r.tx = &txn{}
	defer func() { r.tx = nil }()
	if err := fn(); err != nil {
		r.tx.rollback()
		return err
	}
	return r.commit()
}

func (r *Reconciler) commit() error {
	for _, p := range r.tx.pending {
		if err := p.save(); err != nil {
			r.tx.rollbackFrom(p.from)
			return err
		}
		p.count(&r.stats)
	}
	return nil
}

// Apply replays b in one transaction. A notification error undoes all of b.
// A sink error keeps what the sink already accepted and undoes the rest, so
// applying b again saves only what is missing.
func (r *Reconciler) Apply(b *Batch) error {
	if r.closed {
		return ErrClosed
	}
	r.tx = &txn{}
	defer func() { r.tx = nil }()
	for _, ev := range b.events {
		if err := ev(r); err != nil {
			r.tx.rollback()
			return err
		}
	}
	return r.commit()
}
