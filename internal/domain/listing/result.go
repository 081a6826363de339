package listing

// Page страница элементов, полученная от каталога
type Page[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
}

// Result состояние списка в одном контексте витрины
type Result[T any] struct {
	Page[T]
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`

	// issued номер последнего отправленного запроса, applied - последнего примененного
	issued  uint64
	applied uint64
}

// Event событие жизненного цикла запроса списка
type Event[T any] interface {
	seq() uint64
}

// Started запрос отправлен
type Started[T any] struct{ Seq uint64 }

// Succeeded запрос завершился успешно
type Succeeded[T any] struct {
	Seq  uint64
	Page Page[T]
}

// Failed запрос завершился ошибкой
type Failed[T any] struct {
	Seq     uint64
	Message string
}

func (e Started[T]) seq() uint64   { return e.Seq }
func (e Succeeded[T]) seq() uint64 { return e.Seq }
func (e Failed[T]) seq() uint64    { return e.Seq }

// Reduce применяет событие к состоянию и возвращает новое состояние.
// Ответы на запросы старше уже примененного отбрасываются.
func Reduce[T any](s Result[T], ev Event[T]) Result[T] {
	switch e := ev.(type) {
	case Started[T]:
		if e.Seq > s.issued {
			s.issued = e.Seq
		}
		s.Loading = true
		s.Error = ""
	case Succeeded[T]:
		if e.Seq < s.applied {
			return s
		}
		s.applied = e.Seq
		s.Page = e.Page
		if s.Items == nil {
			s.Items = []T{}
		}
		s.Loading = s.issued > e.Seq
		s.Error = ""
	case Failed[T]:
		if e.Seq < s.applied {
			return s
		}
		s.applied = e.Seq
		s.Loading = s.issued > e.Seq
		s.Error = e.Message
	}
	return s
}

// Stale сообщает, будет ли событие отброшено текущим состоянием
func (s Result[T]) Stale(ev Event[T]) bool {
	switch ev.(type) {
	case Succeeded[T], Failed[T]:
		return ev.seq() < s.applied
	}
	return false
}
