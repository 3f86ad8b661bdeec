package curation

import "sync"

// Eventos de ciclo de vida publicados por el Store. No llevan payload:
// los suscriptores re-consultan en lugar de recibir deltas.
const (
	EventApproved  = "document:approved"
	EventRejected  = "document:rejected"
	EventReady     = "document:ready"
	EventPublished = "document:published"
)

// Bus es un emisor publish/subscribe en memoria para refrescos de UI
// y otros suscriptores del proceso.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

// NewBus crea un bus de eventos vacío.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan struct{})}
}

// Subscribe registra un suscriptor para un evento y devuelve su canal.
// El canal tiene buffer 1; las publicaciones repetidas antes de consumir
// se colapsan en una sola señal.
func (b *Bus) Subscribe(event string) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{}, 1)
	b.subs[event] = append(b.subs[event], ch)
	return ch
}

// Publish notifica a todos los suscriptores del evento sin bloquear.
func (b *Bus) Publish(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[event] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
