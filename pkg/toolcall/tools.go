package toolcall

import (
	"context"
	"fmt"
)

// Concrete client-side tools. Each one is a thin typed surface over the
// correlation caller; the client application executes the method and
// reports back over the push channel.

// NavigationTool drives the client application's screen navigation.
type NavigationTool struct {
	*Caller
}

// NewNavigationTool creates the navigation tool.
func NewNavigationTool(sender Sender) *NavigationTool {
	return &NavigationTool{
		Caller: NewCaller("navigation", sender,
			"navigate_to_screen", "list_available_screens", "go_back"),
	}
}

// Navigate asks the client to open the named screen.
func (t *NavigationTool) Navigate(ctx context.Context, screen string) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "navigate_to_screen", map[string]interface{}{"screen": screen}, screen)
}

// ListScreens returns the screens the client can navigate to.
func (t *NavigationTool) ListScreens(ctx context.Context) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "list_available_screens", map[string]interface{}{}, "")
}

// Back pops the client's navigation stack.
func (t *NavigationTool) Back(ctx context.Context) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "go_back", map[string]interface{}{}, "")
}

// SafetyTool configures fall detection on the phone and the paired watch.
type SafetyTool struct {
	*Caller
}

// NewSafetyTool creates the fall-detection/safety tool.
func NewSafetyTool(sender Sender) *SafetyTool {
	return &SafetyTool{
		Caller: NewCaller("safety", sender,
			"set_sensitivity", "set_watchos_sensitivity",
			"toggle_fall_detection", "toggle_watchos_fall_detection",
			"delay_emergency"),
	}
}

var validSensitivities = map[string]bool{"low": true, "medium": true, "high": true}

// SetSensitivity sets fall-detection sensitivity on the phone.
func (t *SafetyTool) SetSensitivity(ctx context.Context, level string) (map[string]interface{}, error) {
	if !validSensitivities[level] {
		return nil, fmt.Errorf("invalid sensitivity level %q (want low, medium or high)", level)
	}
	return t.Dispatch(ctx, "set_sensitivity", map[string]interface{}{"level": level}, level)
}

// SetWatchSensitivity sets fall-detection sensitivity on the paired watch.
func (t *SafetyTool) SetWatchSensitivity(ctx context.Context, level string) (map[string]interface{}, error) {
	if !validSensitivities[level] {
		return nil, fmt.Errorf("invalid sensitivity level %q (want low, medium or high)", level)
	}
	return t.Dispatch(ctx, "set_watchos_sensitivity", map[string]interface{}{"level": level}, level)
}

// ToggleFallDetection enables or disables phone fall detection.
func (t *SafetyTool) ToggleFallDetection(ctx context.Context, enabled bool) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "toggle_fall_detection", map[string]interface{}{"enabled": enabled}, "")
}

// ToggleWatchFallDetection enables or disables watch fall detection.
func (t *SafetyTool) ToggleWatchFallDetection(ctx context.Context, enabled bool) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "toggle_watchos_fall_detection", map[string]interface{}{"enabled": enabled}, "")
}

// DelayEmergency postpones an in-progress emergency escalation.
func (t *SafetyTool) DelayEmergency(ctx context.Context, seconds int) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "delay_emergency", map[string]interface{}{"seconds": seconds}, "")
}

// LocationTool controls the client's location tracking.
type LocationTool struct {
	*Caller
}

// NewLocationTool creates the location tracking tool.
func NewLocationTool(sender Sender) *LocationTool {
	return &LocationTool{
		Caller: NewCaller("location", sender,
			"toggle_location_tracking", "update_location_interval"),
	}
}

// ToggleTracking enables or disables location tracking.
func (t *LocationTool) ToggleTracking(ctx context.Context, enabled bool) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "toggle_location_tracking", map[string]interface{}{"enabled": enabled}, "")
}

// UpdateInterval changes the location reporting interval.
func (t *LocationTool) UpdateInterval(ctx context.Context, minutes int) (map[string]interface{}, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", minutes)
	}
	return t.Dispatch(ctx, "update_location_interval", map[string]interface{}{"minutes": minutes}, "")
}

// PreferencesTool reads and writes user preferences stored on the client.
type PreferencesTool struct {
	*Caller
}

// NewPreferencesTool creates the preferences tool.
func NewPreferencesTool(sender Sender) *PreferencesTool {
	return &PreferencesTool{
		Caller: NewCaller("preferences", sender,
			"get_preferences", "set_preference"),
	}
}

// Get fetches the user's preferences.
func (t *PreferencesTool) Get(ctx context.Context) (map[string]interface{}, error) {
	return t.Dispatch(ctx, "get_preferences", map[string]interface{}{}, "")
}

// Set writes a single preference.
func (t *PreferencesTool) Set(ctx context.Context, key string, value interface{}) (map[string]interface{}, error) {
	if key == "" {
		return nil, fmt.Errorf("preference key is required")
	}
	return t.Dispatch(ctx, "set_preference", map[string]interface{}{"key": key, "value": value}, key)
}

// CallTool starts video calls with the user's contacts on the client.
type CallTool struct {
	*Caller
}

// NewCallTool creates the video call tool.
func NewCallTool(sender Sender) *CallTool {
	return &CallTool{
		Caller: NewCaller("call", sender, "start_video_call"),
	}
}

// StartVideoCall asks the client to place a video call.
func (t *CallTool) StartVideoCall(ctx context.Context, contact string) (map[string]interface{}, error) {
	if contact == "" {
		return nil, fmt.Errorf("contact is required")
	}
	return t.Dispatch(ctx, "start_video_call", map[string]interface{}{"contact": contact}, contact)
}
