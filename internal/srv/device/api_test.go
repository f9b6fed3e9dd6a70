package device

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jypelle/inkpanel/apimodel"
	"github.com/jypelle/inkpanel/internal/srv/config"
	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
)

type fakeBackend struct {
	sent       []event.Event
	full       bool
	controller *SimController
}

func (b *fakeBackend) PanelState() apimodel.PanelState {
	return apimodel.PanelState{Screen: "dashboard", StackDepth: 1}
}

func (b *fakeBackend) Stats() apimodel.Stats {
	return apimodel.Stats{FullRepaints: 3}
}

func (b *fakeBackend) Send(ev event.Event) bool {
	if b.full {
		return false
	}
	b.sent = append(b.sent, ev)
	return true
}

func (b *fakeBackend) Screenshot() image.Image {
	return image.NewGray(image.Rect(0, 0, 4, 4))
}

func (b *fakeBackend) SetButton(name string, pressed bool) error {
	return b.controller.SetButton(name, pressed)
}

func (b *fakeBackend) SetAxes(axes Axes) error {
	b.controller.SetAxes(axes)
	return nil
}

func (b *fakeBackend) SetControllerConnected(connected bool) error {
	b.controller.SetConnected(connected)
	return nil
}

func newTestApi() (*Api, *fakeBackend) {
	backend := &fakeBackend{controller: NewSimController()}
	cfg := &config.ServerConfig{
		ServerParam: &config.ServerParam{ApiParam: config.ApiParam{Enabled: true, ApiKey: "secret"}},
	}
	return NewApi(cfg, backend), backend
}

func serve(api *Api, method, target, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestApiRequiresKey(t *testing.T) {
	api, _ := newTestApi()
	if rec := serve(api, "GET", "/api/is_alive", ""); rec.Code != http.StatusForbidden {
		t.Errorf("no key: status %d", rec.Code)
	}
	if rec := serve(api, "GET", "/api/is_alive", "wrong"); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status %d", rec.Code)
	}
	if rec := serve(api, "GET", "/api/is_alive", "secret"); rec.Code != http.StatusOK {
		t.Errorf("valid key: status %d", rec.Code)
	}
}

func TestApiState(t *testing.T) {
	api, _ := newTestApi()
	rec := serve(api, "GET", "/api/state", "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var st apimodel.PanelState
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Screen != "dashboard" {
		t.Errorf("screen = %q", st.Screen)
	}
}

func TestApiScreenshot(t *testing.T) {
	api, _ := newTestApi()
	rec := serve(api, "GET", "/api/screenshot", "secret")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("status %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestApiEvent(t *testing.T) {
	api, backend := newTestApi()
	if rec := serve(api, "POST", "/api/event/nav_right", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := serve(api, "POST", "/api/event/trigger_left?intensity=128", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(backend.sent) != 2 || backend.sent[0].Dx != 1 || backend.sent[1].Intensity != 128 {
		t.Errorf("sent = %+v", backend.sent)
	}

	if rec := serve(api, "POST", "/api/event/jump", "secret"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown event: status %d", rec.Code)
	}
	if rec := serve(api, "GET", "/api/event/select", "secret"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on event: status %d", rec.Code)
	}
}

func TestApiQueueFull(t *testing.T) {
	api, backend := newTestApi()
	backend.full = true
	if rec := serve(api, "POST", "/api/refresh", "secret"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d", rec.Code)
	}
}

func TestApiScreen(t *testing.T) {
	api, backend := newTestApi()
	if rec := serve(api, "POST", "/api/screen/climate", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(backend.sent) != 1 || backend.sent[0].Type != event.SCREEN_CHANGE_EVENT || backend.sent[0].Screen != model.CLIMATE_SCREEN {
		t.Errorf("sent = %+v", backend.sent)
	}
	if rec := serve(api, "POST", "/api/screen/attic", "secret"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown screen: status %d", rec.Code)
	}
}

func TestApiButton(t *testing.T) {
	api, backend := newTestApi()
	if rec := serve(api, "POST", "/api/button/a/press", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !backend.controller.Snapshot().A {
		t.Error("button a not pressed")
	}
	serve(api, "POST", "/api/button/a/release", "secret")
	if backend.controller.Snapshot().A {
		t.Error("button a not released")
	}
	if rec := serve(api, "POST", "/api/button/turbo/press", "secret"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown button: status %d", rec.Code)
	}
}

func TestEventFromName(t *testing.T) {
	tests := []struct {
		name      string
		intensity string
		want      event.Type
		ok        bool
	}{
		{"nav_up", "", event.NAV_UP_EVENT, true},
		{"select", "", event.SELECT_EVENT, true},
		{"force_full_refresh", "", event.FORCE_FULL_REFRESH_EVENT, true},
		{"trigger_right", "255", event.TRIGGER_RIGHT_EVENT, true},
		{"trigger_right", "256", event.NONE_EVENT, false},
		{"trigger_right", "", event.NONE_EVENT, false},
		{"screen_change", "", event.NONE_EVENT, false},
		{"none", "", event.NONE_EVENT, false},
		{"bogus", "", event.NONE_EVENT, false},
	}
	for _, tc := range tests {
		ev, ok := EventFromName(tc.name, tc.intensity)
		if ok != tc.ok || ev.Type != tc.want {
			t.Errorf("EventFromName(%q, %q) = %s, %t", tc.name, tc.intensity, ev.Type, ok)
		}
	}
}

func TestSimControllerRumbleBounded(t *testing.T) {
	c := NewSimController()
	for i := 0; i < 40; i++ {
		c.Rumble(model.TICK_HAPTIC)
	}
	if got := len(c.Rumbles()); got != maxRumbles {
		t.Errorf("rumbles = %d, want %d", got, maxRumbles)
	}
	if got := len(c.Rumbles()); got != 0 {
		t.Errorf("rumbles not forgotten, got %d", got)
	}
}

func TestApiAxes(t *testing.T) {
	api, backend := newTestApi()
	if rec := serve(api, "POST", "/api/axes?lx=-20000&rt=65535", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	snap := backend.controller.Snapshot()
	if snap.LeftStickX != -20000 || snap.LeftStickY != 0 || snap.RightTrigger != 65535 || snap.LeftTrigger != 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	if rec := serve(api, "POST", "/api/axes?lx=40000", "secret"); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range stick: status %d", rec.Code)
	}
	if rec := serve(api, "POST", "/api/axes?lt=-1", "secret"); rec.Code != http.StatusBadRequest {
		t.Errorf("negative trigger: status %d", rec.Code)
	}
}

func TestApiControllerConnection(t *testing.T) {
	api, backend := newTestApi()
	if rec := serve(api, "POST", "/api/controller/disconnect", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if backend.controller.IsConnected() {
		t.Error("controller still connected")
	}
	serve(api, "POST", "/api/controller/connect", "secret")
	if !backend.controller.IsConnected() {
		t.Error("controller not reconnected")
	}
}

func TestUnknownButtonListsNames(t *testing.T) {
	err := NewSimController().SetButton("turbo", true)
	if err == nil || !strings.Contains(err.Error(), strings.Join(ButtonNames(), ", ")) {
		t.Errorf("err = %v", err)
	}
}
