package agents

// Lifecycle thresholds, in status updates.
const (
	TrampleDeathThreshold = 3 // Trampled this many times while down -> dead
	RecoveryTicks         = 3 // Down this long without dying -> back on their feet
	BlockedPanicThreshold = 3 // Blocked this many times -> loses composure
)

// Change records which transitions an UpdateStatus call applied.
type Change uint8

const (
	ChangeDied Change = 1 << iota
	ChangeRecovered
	ChangeUnnerved // Relaxed trait lost to a blocked streak
)

// Has reports whether c includes flag.
func (c Change) Has(flag Change) bool {
	return c&flag != 0
}

// Fall knocks the agent down. Dead agents stay dead.
func (a *Agent) Fall() {
	if a.IsDead {
		return
	}
	a.IsFallen = true
	a.FallenCounter = 0
}

// Blocked records a tick in which the agent tried to move and could not.
func (a *Agent) Blocked() {
	a.BlockedCounter++
}

// ResetBlocked clears the blocked streak after progress.
func (a *Agent) ResetBlocked() {
	a.BlockedCounter = 0
}

// Trampled records another agent passing over this one while it is down.
func (a *Agent) Trampled() {
	a.TrampledCounter++
}

// ResetTrampled clears the trample count.
func (a *Agent) ResetTrampled() {
	a.TrampledCounter = 0
}

// UpdateStatus advances the lifecycle by one tick. It must be called once per
// agent per tick, after movement. Trampling death takes priority over
// recovery; the blocked streak is evaluated independently. Dead is terminal.
func (a *Agent) UpdateStatus() Change {
	if a.IsDead {
		return 0
	}

	var change Change
	if a.IsFallen {
		a.FallenCounter++
		if a.TrampledCounter >= TrampleDeathThreshold {
			a.IsDead = true
			a.IsFallen = false
			change |= ChangeDied
		} else if a.FallenCounter >= RecoveryTicks {
			a.IsFallen = false
			a.FallenCounter = 0
			change |= ChangeRecovered
		}
	}

	if a.BlockedCounter >= BlockedPanicThreshold {
		if a.IsRelaxed {
			change |= ChangeUnnerved
		}
		a.IsRelaxed = false
		a.BlockedCounter = 0
	}

	return change
}
