package agent

import (
	"github.com/firebase/genkit/go/ai"

	"github.com/skein-ai/skein/internal/tools"
)

// Response wraps one model message together with the tool outputs
// accumulated on the task up to and including the step that produced it.
type Response struct {
	Message *ai.Message
	Sources []tools.Output
}

// Text returns the message's concatenated text content.
func (r *Response) Text() string {
	if r == nil || r.Message == nil {
		return ""
	}
	return r.Message.Text()
}
