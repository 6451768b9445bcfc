package domain

// GuardState: состояние подтверждения смены поставщика.
type GuardState string

const (
	GuardIdle                GuardState = "IDLE"
	GuardPendingConfirmation GuardState = "PENDING_CONFIRMATION"
)

// GuardDecision: результат запроса смены поставщика.
type GuardDecision string

const (
	// GuardApplied: поставщик сменён сразу (черновик был пуст).
	GuardApplied GuardDecision = "applied"
	// GuardAwaitingConfirmation: черновик не пуст, нужна явная команда подтверждения.
	GuardAwaitingConfirmation GuardDecision = "awaiting_confirmation"
	// GuardUnchanged: выбран текущий поставщик.
	GuardUnchanged GuardDecision = "unchanged"
)

// SupplierGuard перехватывает смену поставщика при непустом черновике.
type SupplierGuard struct {
	State     GuardState
	Candidate string
}

// Pending сообщает, ждёт ли guard подтверждения.
func (g *SupplierGuard) Pending() bool {
	return g.State == GuardPendingConfirmation
}

// Request обрабатывает выбор поставщика. При пустом черновике смена применяется сразу,
// иначе кандидат запоминается до Confirm или Cancel. Повторный Request заменяет кандидата.
func (g *SupplierGuard) Request(draft *Draft, supplierID string) GuardDecision {
	if supplierID == draft.SupplierID {
		g.reset()
		return GuardUnchanged
	}
	if len(draft.Items) == 0 {
		g.reset()
		applySupplier(draft, supplierID)
		return GuardApplied
	}
	g.State = GuardPendingConfirmation
	g.Candidate = supplierID
	return GuardAwaitingConfirmation
}

// Confirm применяет кандидата: новые supplierID, пустые позиции и имя.
func (g *SupplierGuard) Confirm(draft *Draft) (string, error) {
	if !g.Pending() {
		return "", ErrNoPendingSupplierChange
	}
	candidate := g.Candidate
	g.reset()
	applySupplier(draft, candidate)
	return candidate, nil
}

// Cancel отбрасывает кандидата, черновик не меняется.
func (g *SupplierGuard) Cancel() bool {
	if !g.Pending() {
		return false
	}
	g.reset()
	return true
}

func (g *SupplierGuard) reset() {
	g.State = GuardIdle
	g.Candidate = ""
}

func applySupplier(draft *Draft, supplierID string) {
	draft.SupplierID = supplierID
	draft.Reset()
}
