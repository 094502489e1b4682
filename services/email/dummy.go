package emailsvc

import (
	"sync"

	"github.com/trezcool/nodue/core"
)

// DummyService records messages instead of sending them; used by tests.
// Messages are sent synchronously so tests can assert right after the call.
type DummyService struct {
	mu           sync.Mutex
	SentMessages []core.EmailMessage
}

var _ core.EmailService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{SentMessages: make([]core.EmailMessage, 0)}
}

func (svc *DummyService) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		if msg.HasRecipients() && msg.HasContent() {
			svc.SentMessages = append(svc.SentMessages, *msg)
		}
	}
}

func (svc *DummyService) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.SentMessages))
	copy(out, svc.SentMessages)
	return out
}
