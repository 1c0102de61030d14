package log

// Diagnostic is the record emitted for every block decision.
// Severity is always warn; Destination is omitted when the decision had none
// (blanket-disabled capabilities).
type Diagnostic struct {
	Message     string
	Capability  string
	Destination string
	Site        string // registrable domain of Destination, when known
}

// Fields renders the diagnostic as a log field map.
func (d Diagnostic) Fields() map[string]any {
	f := map[string]any{"capability": d.Capability}
	if d.Destination != "" {
		f["destination"] = d.Destination
	}
	if d.Site != "" {
		f["site"] = d.Site
	}
	return f
}

// Emit writes d to l at warn level.
func Emit(l Logger, d Diagnostic) {
	if l == nil {
		l = global
	}
	l.Warn(d.Fields(), d.Message)
}
