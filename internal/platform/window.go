package platform

import "errors"

var (
	// ErrViewAttached is returned when a view is added while another one is
	// still attached.
	ErrViewAttached = errors.New("a view is already attached")
	// ErrViewNotAttached is returned when removing a view that is not the
	// attached one.
	ErrViewNotAttached = errors.New("view not attached")
)

// WindowType selects the window layer an overlay is drawn in.
type WindowType string

// TypeApplicationOverlay is the overlay layer drawn above other apps.
const TypeApplicationOverlay WindowType = "application_overlay"

// Size values for WindowParams.
const (
	MatchParent = "match_parent"
	WrapContent = "wrap_content"
	Translucent = "translucent"
)

// WindowParams are the layout parameters an overlay is added with.
type WindowParams struct {
	Type            WindowType `json:"type"`
	Width           string     `json:"width"`
	Height          string     `json:"height"`
	Format          string     `json:"format"`
	Focusable       bool       `json:"focusable"`
	KeepScreenOn    bool       `json:"keepScreenOn"`
	TurnScreenOn    bool       `json:"turnScreenOn"`
	ShowWhenLocked  bool       `json:"showWhenLocked"`
	DismissKeyguard bool       `json:"dismissKeyguard"`
}

// OverlayParams returns the parameters for the caller overlay. The window
// never takes focus and wakes the screen; lockScreen adds the flags that
// let it appear above the keyguard.
func OverlayParams(lockScreen bool) WindowParams {
	return WindowParams{
		Type:            TypeApplicationOverlay,
		Width:           MatchParent,
		Height:          WrapContent,
		Format:          Translucent,
		Focusable:       false,
		KeepScreenOn:    true,
		TurnScreenOn:    true,
		ShowWhenLocked:  lockScreen,
		DismissKeyguard: lockScreen,
	}
}

// OverlayContent is what the overlay shows. Empty strings and a nil photo
// mean the corresponding element is hidden.
type OverlayContent struct {
	AppName     string `json:"appName"`
	ShowAppIcon bool   `json:"showAppIcon"`
	CallerName  string `json:"callerName"`
	Appointment string `json:"appointment,omitempty"`
	Location    string `json:"location,omitempty"`
	// Photo holds the decoded image bytes, nil when the record has no
	// photo or it could not be decoded.
	Photo     []byte `json:"-"`
	PhotoMime string `json:"photoMime,omitempty"`
}

// View is one overlay window instance.
type View struct {
	ID      string         `json:"id"`
	Content OverlayContent `json:"content"`
	Params  WindowParams   `json:"params"`
}
