package usecase

import (
	"context"

	"wakescribe/internal/ports"
)

// recognizerRun is one live recognizer session owned by the listener. The
// done channel closes once the consume loop has drained both session channels.
type recognizerRun struct {
	id      string
	cancel  context.CancelFunc
	session ports.RecognizerSession
	done    chan struct{}
}

func (r *recognizerRun) shutdown() {
	r.cancel()
	_ = r.session.Close()
	<-r.done
}
