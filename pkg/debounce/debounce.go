package debounce

import (
	"sync"
	"time"
)

// Debouncer откладывает вызов функции до тех пор, пока вызовы Trigger не прекратятся
// на время delay. Выполняется только последний переданный вызов.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
	stopped bool
}

// New создает Debouncer с заданной задержкой
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger планирует fn, отменяя ранее запланированный вызов
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = fn
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush немедленно выполняет отложенный вызов, если он есть. Возвращает true, если вызов был.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.take()
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending сообщает, есть ли отложенный вызов
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop отменяет отложенный вызов; последующие Trigger игнорируются
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.take()
}

// fire срабатывает только для последнего Trigger: таймер, уже запущенный к моменту
// нового Trigger, ничего не делает
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// take вызывается под мьютексом
func (d *Debouncer) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	fn := d.pending
	d.pending = nil
	return fn
}
