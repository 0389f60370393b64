package notify

import "context"

// Message es lo único que el motor decide: a quién, por qué canal y con qué
// contenido. La mecánica de entrega (push, email) vive del otro lado del port.
type Message struct {
	UserID  string
	Channel string
	Subject string
	Body    string
}

// Sender entrega un mensaje por el canal indicado.
type Sender interface {
	Send(ctx context.Context, m Message) error
}
