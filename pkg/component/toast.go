package component

import (
	"github.com/devicelab-dev/pagekit/pkg/actions"
)

// Toast container markup shared by every page.
const (
	toastContainer = `[data-test="toast-messages"]`
	toastMessage   = ` [data-test="toast"] [data-test="toast-message"]`
)

// Toast reads the transient notification banners the app raises after save
// and delete operations.
type Toast struct {
	Base
}

// NewToast binds a toast reader to the page's shared toast container.
func NewToast(parent *actions.Actions, name string) *Toast {
	t := &Toast{Base: newBase(parent, name, toastContainer)}
	t.actions.Registry().RegisterCSS("toast_message", toastContainer+toastMessage)
	return t
}

// Message waits for the toast container and returns the current banner text.
func (t *Toast) Message() (string, error) {
	if _, err := t.actions.WaitVisible(t.name); err != nil {
		return "", err
	}
	return t.actions.Text("toast_message")
}
