package session

// Decision is the gate's verdict over a protected view.
type Decision int

const (
	// DecisionPending: the credential check has not settled; show a neutral
	// pending indicator, neither the protected view nor the sign-in flow.
	DecisionPending Decision = iota

	// DecisionSignIn: settled and unauthenticated; send the user to the
	// sign-in entry point. The original destination is not preserved.
	DecisionSignIn

	// DecisionAllow: render the protected view unmodified.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionSignIn:
		return "sign-in"
	default:
		return "allow"
	}
}

// Gate guards protected features behind the session store. It holds no state
// of its own; every Decide call reads the store afresh, so repeated calls
// while the store is Loading keep returning Pending until settlement.
type Gate struct {
	store *Store
}

func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

func (g *Gate) Decide() Decision {
	switch g.store.State() {
	case StateLoading:
		return DecisionPending
	case StateAuthenticated:
		if g.store.User().IsAuthenticated() {
			return DecisionAllow
		}
		return DecisionSignIn
	default:
		return DecisionSignIn
	}
}
