package audio

// Gate blocks the page until one user gesture. Passing it hands control to the
// controller's audible path; there is no way back.
type Gate struct {
	ctrl    *Controller
	entered bool
}

func NewGate(ctrl *Controller) *Gate {
	return &Gate{ctrl: ctrl}
}

// Enter records the gesture. It reports false when the gate was already open.
func (g *Gate) Enter() bool {
	if g.entered {
		return false
	}
	g.entered = true
	g.ctrl.Enter()
	return true
}

// Entered reports whether the overlay has been dismissed.
func (g *Gate) Entered() bool { return g.entered }
