package nn

// Mode is the training/eval switch shared by every module built from the same
// framework instance. Dropout is active only while training. A nil *Mode is
// permanently in eval mode.
type Mode struct {
	training bool
}

// NewMode returns a Mode in eval state.
func NewMode() *Mode {
	return &Mode{}
}

func (m *Mode) Train() { m.training = true }
func (m *Mode) Eval()  { m.training = false }

// Training reports whether dropout should be applied.
func (m *Mode) Training() bool {
	return m != nil && m.training
}
