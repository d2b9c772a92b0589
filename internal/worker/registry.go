package worker

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Constructor создаёт новый, ещё не провалидированный воркер.
type Constructor func() Worker

// Entry — запись таблицы регистрации.
type Entry struct {
	Type string
	New  Constructor
}

// Registry — реестр конструкторов воркеров по типу.
//
// Заполняется один раз в NewRegistry и дальше только читается,
// поэтому безопасен для конкурентного использования без блокировок.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry создаёт реестр из таблицы регистрации.
//
// Пустой тип, nil-конструктор или повторная регистрация типа —
// ошибка программиста, поэтому NewRegistry паникует.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{constructors: make(map[string]Constructor, len(entries))}
	for _, e := range entries {
		if e.Type == "" || e.New == nil {
			panic("worker: invalid registry entry")
		}
		if _, dup := r.constructors[e.Type]; dup {
			panic("worker: duplicate registration for type " + e.Type)
		}
		r.constructors[e.Type] = e.New
	}
	return r
}

// Build создаёт и валидирует воркер.
//
// Возвращает ErrUnknownType, если тип не зарегистрирован, и ErrInvalidArgs,
// если Validate вернул ошибку. Вызывающий никогда не получает
// непровалидированный воркер.
func (r *Registry) Build(workerType string, args Args, requestID uuid.UUID, background bool) (*Handle, error) {
	constructor, ok := r.constructors[workerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, workerType)
	}

	if args == nil {
		args = Args{}
	}

	impl := constructor()
	if err := impl.Validate(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, workerType, err)
	}
	if ra, ok := impl.(RequestAware); ok {
		ra.SetRequestID(requestID)
	}

	return newHandle(workerType, impl, args, requestID, background), nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(workerType string) bool {
	_, ok := r.constructors[workerType]
	return ok
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных типов.
func (r *Registry) Count() int {
	return len(r.constructors)
}
