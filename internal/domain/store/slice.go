package store

// Slice состояние одного раздела хранилища (корзина, избранное)
type Slice[T any] struct {
	Value   T      `json:"value"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Action действие над разделом
type Action[T any] interface {
	apply(Slice[T]) Slice[T]
}

// Requested запрос к хранилищу начат
type Requested[T any] struct{}

// Received получено новое состояние целиком
type Received[T any] struct{ Value T }

// Rejected запрос завершился ошибкой; прежнее значение сохраняется
type Rejected[T any] struct{ Message string }

func (Requested[T]) apply(s Slice[T]) Slice[T] {
	s.Loading = true
	s.Error = ""
	return s
}

func (a Received[T]) apply(s Slice[T]) Slice[T] {
	return Slice[T]{Value: a.Value}
}

func (a Rejected[T]) apply(s Slice[T]) Slice[T] {
	s.Loading = false
	s.Error = a.Message
	return s
}

// Reduce применяет действие к разделу
func Reduce[T any](s Slice[T], a Action[T]) Slice[T] {
	return a.apply(s)
}
