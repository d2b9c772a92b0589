package domain

// State — состояние планировщика.
//
// Жизненный цикл:
//
//	PARSING → READY → WAITING → RUNNING → DRAINING → DONE
//	        ↘ FAILED
//
// FAILED достижим только из PARSING: планировщик с ошибкой разбора
// вызывающему не возвращается.
type State string

const (
	// StateParsing — запрос разбирается, воркеры создаются и валидируются.
	StateParsing State = "PARSING"

	// StateReady — все воркеры валидны, можно вызывать Start.
	StateReady State = "READY"

	// StateWaiting — setup выполнен (или выполняется), ожидание момента запуска.
	StateWaiting State = "WAITING"

	// StateRunning — воркеры запускаются в порядке объявления.
	StateRunning State = "RUNNING"

	// StateDraining — join и teardown всех воркеров.
	StateDraining State = "DRAINING"

	// StateDone — планировщик завершён.
	StateDone State = "DONE"

	// StateFailed — запрос отклонён на этапе разбора.
	StateFailed State = "FAILED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s State) IsTerminal() bool {
	switch s {
	case StateDone, StateFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление State.
func (s State) String() string {
	return string(s)
}

// next — допустимые переходы.
var next = map[State][]State{
	StateParsing:  {StateReady, StateFailed},
	StateReady:    {StateWaiting},
	StateWaiting:  {StateRunning},
	StateRunning:  {StateDraining},
	StateDraining: {StateDone},
}

// CanTransition проверяет, допустим ли переход из s в to.
func (s State) CanTransition(to State) bool {
	for _, st := range next[s] {
		if st == to {
			return true
		}
	}
	return false
}
