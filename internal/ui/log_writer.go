package ui

// ChannelWriter is an io.Writer that forwards each write as a string on a
// channel. Sends are non-blocking: when the channel is full the line is
// dropped, so a stalled UI can never block the logger.
type ChannelWriter struct {
	ch chan string
}

func NewChannelWriter(buffer int) *ChannelWriter {
	return &ChannelWriter{ch: make(chan string, buffer)}
}

// Lines returns the receive side for the dashboard's log tail pane.
func (w *ChannelWriter) Lines() <-chan string {
	return w.ch
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}
