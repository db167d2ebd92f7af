package quiz

// InitialBonus is the number of points a first-try correct answer is worth.
const InitialBonus = 4

// Ledger holds the session score. Only the Engine that owns it mutates it.
type Ledger struct {
	total int
	bonus int
}

func NewLedger() *Ledger {
	return &Ledger{bonus: InitialBonus}
}

func (l *Ledger) Total() int { return l.total }

func (l *Ledger) Bonus() int { return l.bonus }

// ApplyCorrect adds the current bonus to the total, resets the bonus and
// returns the points awarded.
func (l *Ledger) ApplyCorrect() int {
	awarded := l.bonus
	l.total += awarded
	l.bonus = InitialBonus
	return awarded
}

// ApplyIncorrect lowers the bonus by one point, never below zero.
func (l *Ledger) ApplyIncorrect() {
	if l.bonus > 0 {
		l.bonus--
	}
}
