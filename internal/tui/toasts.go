package tui

// toastMsg carries one user-facing notification into update handling.
type toastMsg struct {
	severity string
	text     string
}

// ToastNotifier bridges queue and connectivity notifications into the
// running program through a buffered channel.
type ToastNotifier struct {
	ch chan toastMsg
}

// NewToastNotifier constructs a new value for this package.
func NewToastNotifier() *ToastNotifier {
	return &ToastNotifier{ch: make(chan toastMsg, 32)}
}

// Success reports a success notification.
func (t *ToastNotifier) Success(msg string) { t.push("ok", msg) }

// Warning reports a warning notification.
func (t *ToastNotifier) Warning(msg string) { t.push("warn", msg) }

// Info reports an informational notification.
func (t *ToastNotifier) Info(msg string) { t.push("info", msg) }

// Error reports an error notification.
func (t *ToastNotifier) Error(msg string) { t.push("err", msg) }

// push never blocks the caller; a full channel drops the oldest entry.
func (t *ToastNotifier) push(severity, text string) {
	msg := toastMsg{severity: severity, text: text}
	for {
		select {
		case t.ch <- msg:
			return
		default:
			select {
			case <-t.ch:
			default:
			}
		}
	}
}
