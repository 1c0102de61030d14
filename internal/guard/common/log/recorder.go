package log

import "sync"

// Entry is a single record captured by a Recorder.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// Recorder is an in-memory Logger used by tests across the module.
// Panic and Fatal are recorded but do not terminate.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(level string, fields map[string]any, msg string) {
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: cp})
	r.mu.Unlock()
}

func (r *Recorder) Info(f map[string]any, msg string)  { r.add("info", f, msg) }
func (r *Recorder) Error(f map[string]any, msg string) { r.add("error", f, msg) }
func (r *Recorder) Debug(f map[string]any, msg string) { r.add("debug", f, msg) }
func (r *Recorder) Warn(f map[string]any, msg string)  { r.add("warn", f, msg) }
func (r *Recorder) Panic(f map[string]any, msg string) { r.add("panic", f, msg) }
func (r *Recorder) Fatal(f map[string]any, msg string) { r.add("fatal", f, msg) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Level returns the entries recorded at the given level.
func (r *Recorder) Level(level string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards all recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

var _ Logger = (*Recorder)(nil)
