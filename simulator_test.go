package smartcast

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// simNode is one node of the simulated settings tree.
type simNode struct {
	cname    string
	name     string
	wireType string
	value    any
	hashval  uint32
	hidden   bool
	readOnly bool

	children []*simNode

	// sliderBounds, when set, are served from the static tree.
	sliderBounds *simSlider
	elements     []string
}

type simSlider struct {
	min, max, increment, center int32
}

// simulator is an in-process fake of a SmartCast device built on
// httptest. It implements the envelope protocol over plain HTTP; tests
// point the client at it by overriding the scheme and port seams.
type simulator struct {
	server *httptest.Server

	mu sync.Mutex

	// Pairing state
	pairingActive bool
	pairingToken  uint32
	challenge     uint32
	pin           string
	issuedToken   string

	// Auth state
	requireAuth bool
	authToken   string

	// Device state
	poweredOn    bool
	settingsRoot string
	currentInput string
	inputHashval uint32
	inputs       []simInput
	root         *simNode
	nodes        map[string]*simNode

	// Remote control state. When altDpad is set the device only accepts
	// the alternate directional code table.
	altDpad  bool
	lastKeys []keyEvent

	// raceInput makes every current-input read hand out a hashval that
	// is stale by the time it is used, as if another controller changed
	// the input in between.
	raceInput bool

	// dropNode, when set to a node's cname, makes the simulator drop
	// the connection on reads of that node without answering, as if the
	// device went offline.
	dropNode string

	// App state
	currentApp  AppPayload
	launchedApp *AppPayload
}

type simInput struct {
	name     string
	friendly string
	hashval  uint32
}

// newSimulator starts a simulated device with a populated settings tree
// and registers its shutdown with the test.
func newSimulator(t *testing.T) *simulator {
	t.Helper()

	s := &simulator{
		pin:          "1234",
		settingsRoot: "tv_settings",
		poweredOn:    true,
		currentInput: "HDMI-1",
		inputHashval: 12345,
		inputs: []simInput{
			{name: "HDMI-1", friendly: "Chromecast", hashval: 101},
			{name: "HDMI-2", friendly: "Console", hashval: 102},
			{name: "SMARTCAST", friendly: "SmartCast", hashval: 103},
		},
		currentApp: AppPayload{NameSpace: 2, AppID: "3", Message: ""},
	}
	s.buildTree()

	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

// buildTree populates the simulated settings tree:
//
//	tv_settings
//	  picture
//	    backlight   Slider  [-100, 100]
//	    picture_mode List
//	  audio
//	    tv_speakers Value (bool)
//	    eq          XList
//	    volume      Value (number) with static bounds, so it
//	                reclassifies as a Slider on expand
//	    analog_out  List publishing no elements on either endpoint
//	  system
//	    serial      Value (string, read-only)
func (s *simulator) buildTree() {
	backlight := &simNode{
		cname: "backlight", name: "Backlight", wireType: "T_VALUE_ABS_V1",
		value: float64(50), hashval: 201,
		sliderBounds: &simSlider{min: -100, max: 100, increment: 1, center: 0},
	}
	pictureMode := &simNode{
		cname: "picture_mode", name: "Picture Mode", wireType: "T_LIST_V1",
		value: "Standard", hashval: 202,
		elements: []string{"Standard", "Calibrated", "Vivid", "Game", "Sports"},
	}
	speakers := &simNode{
		cname: "tv_speakers", name: "TV Speakers", wireType: "T_VALUE_V1",
		value: true, hashval: 301,
	}
	eq := &simNode{
		cname: "eq", name: "Equalizer", wireType: "T_LIST_X_V1",
		value: "Flat", hashval: 302,
		elements: []string{"Flat", "Rock", "Classical", "Pop", "Jazz"},
	}
	volume := &simNode{
		cname: "volume", name: "Volume", wireType: "T_VALUE_V1",
		value: float64(20), hashval: 303,
		sliderBounds: &simSlider{min: 0, max: 100, increment: 1, center: 50},
	}
	analogOut := &simNode{
		cname: "analog_out", name: "Analog Audio Out", wireType: "T_LIST_V1",
		value: "Fixed", hashval: 304,
	}
	serial := &simNode{
		cname: "serial", name: "Serial Number", wireType: "T_VALUE_V1",
		value: "SIM123456", hashval: 401, readOnly: true,
	}

	picture := &simNode{cname: "picture", name: "Picture", wireType: "T_MENU_V1", hashval: 20,
		children: []*simNode{backlight, pictureMode}}
	audio := &simNode{cname: "audio", name: "Audio", wireType: "T_MENU_V1", hashval: 30,
		children: []*simNode{speakers, eq, volume, analogOut}}
	system := &simNode{cname: "system", name: "System", wireType: "T_MENU_V1", hashval: 40,
		children: []*simNode{serial}}

	s.root = &simNode{cname: s.settingsRoot, wireType: "T_MENU_V1",
		children: []*simNode{picture, audio, system}}

	s.nodes = make(map[string]*simNode)
	var index func(prefix string, n *simNode)
	index = func(prefix string, n *simNode) {
		path := prefix + "/" + n.cname
		s.nodes[path] = n
		for _, c := range n.children {
			index(path, c)
		}
	}
	index("", s.root)
}

// useFlatTree replaces the settings tree with three leaves directly
// under the root: one slider, one boolean value, one XList.
func (s *simulator) useFlatTree() {
	backlight := &simNode{
		cname: "backlight", name: "Backlight", wireType: "T_VALUE_ABS_V1",
		value: float64(0), hashval: 201,
		sliderBounds: &simSlider{min: -100, max: 100, increment: 1, center: 0},
	}
	speakers := &simNode{
		cname: "tv_speakers", name: "TV Speakers", wireType: "T_VALUE_V1",
		value: true, hashval: 301,
	}
	eq := &simNode{
		cname: "eq", name: "Equalizer", wireType: "T_LIST_X_V1",
		value: "Flat", hashval: 302,
		elements: []string{"Flat", "Rock", "Classical", "Pop", "Jazz"},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = &simNode{cname: s.settingsRoot, wireType: "T_MENU_V1",
		children: []*simNode{backlight, speakers, eq}}
	s.nodes = map[string]*simNode{
		"/" + s.settingsRoot:                  s.root,
		"/" + s.settingsRoot + "/backlight":   backlight,
		"/" + s.settingsRoot + "/tv_speakers": speakers,
		"/" + s.settingsRoot + "/eq":          eq,
	}
}

// port returns the port the simulator listens on.
func (s *simulator) port() int {
	_, portStr, _ := net.SplitHostPort(s.server.Listener.Addr().String())
	p, _ := strconv.Atoi(portStr)
	return p
}

// connect points the client seams at the simulator and connects a
// Device to it.
func (s *simulator) connect(t *testing.T, opts ...Option) *Device {
	t.Helper()
	s.route(t)

	d, err := NewDevice(context.Background(), "", "Vizio", "", "127.0.0.1", "sim-uuid-1", opts...)
	if err != nil {
		t.Fatalf("connect to simulator: %v", err)
	}
	return d
}

// route overrides the scheme and port seams so the client reaches the
// simulator, restoring them when the test ends.
func (s *simulator) route(t *testing.T, extraPorts ...int) {
	t.Helper()
	prevScheme, prevPorts := apiScheme, apiPorts
	apiScheme = "http"
	apiPorts = append(extraPorts, s.port())
	t.Cleanup(func() {
		apiScheme = prevScheme
		apiPorts = prevPorts
	})
}

// requirePairing makes every authenticated endpoint demand the given
// token via the AUTH header.
func (s *simulator) requirePairing(token string) {
	s.mu.Lock()
	s.requireAuth = true
	s.authToken = token
	s.mu.Unlock()
}

func (s *simulator) writeEnvelope(w http.ResponseWriter, result, detail string, body map[string]any) {
	env := map[string]any{
		"STATUS": map[string]string{"RESULT": result, "DETAIL": detail},
	}
	for k, v := range body {
		env[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func (s *simulator) writeSuccess(w http.ResponseWriter, body map[string]any) {
	s.writeEnvelope(w, "SUCCESS", "Success", body)
}

func (s *simulator) writeError(w http.ResponseWriter, code ErrorCode) {
	s.writeEnvelope(w, strings.ToUpper(string(code)), "", nil)
}

// authorized checks the AUTH header when the simulator requires it.
func (s *simulator) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.requireAuth {
		return true
	}
	return r.Header.Get("AUTH") == s.authToken
}

func (s *simulator) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/pairing/start":
		s.handlePairStart(w, r)
	case path == "/pairing/pair":
		s.handlePairFinish(w, r)
	case path == "/pairing/cancel":
		s.handlePairCancel(w, r)
	case path == "/state/device/deviceinfo":
		s.handleDeviceInfo(w)
	case path == "/state/device/power_mode":
		s.handlePowerMode(w)
	case path == "/key_command/":
		s.handleKeyCommand(w, r)
	case path == "/app/current":
		s.handleCurrentApp(w, r)
	case path == "/app/launch":
		s.handleLaunchApp(w, r)
	case strings.HasPrefix(path, "/menu_native/"):
		s.handleMenu(w, r)
	default:
		s.writeError(w, CodeURINotFound)
	}
}

func (s *simulator) handlePairStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceName string `json:"DEVICE_NAME"`
		DeviceID   string `json:"DEVICE_ID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == "" {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	s.mu.Lock()
	if s.pairingActive {
		s.mu.Unlock()
		s.writeError(w, CodeBlocked)
		return
	}
	s.pairingActive = true
	s.pairingToken++
	s.challenge = 1
	token, challenge := s.pairingToken, s.challenge
	s.mu.Unlock()

	s.writeSuccess(w, map[string]any{
		"ITEM": map[string]any{
			"PAIRING_REQ_TOKEN": token,
			"CHALLENGE_TYPE":    challenge,
		},
	})
}

func (s *simulator) handlePairFinish(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID        string `json:"DEVICE_ID"`
		ChallengeType   uint32 `json:"CHALLENGE_TYPE"`
		ResponseValue   string `json:"RESPONSE_VALUE"`
		PairingReqToken uint32 `json:"PAIRING_REQ_TOKEN"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pairingActive || body.PairingReqToken != s.pairingToken {
		s.writeError(w, CodeInvalidParameter)
		return
	}
	if body.ResponseValue != s.pin {
		s.writeError(w, CodePairingDenied)
		return
	}
	s.pairingActive = false
	s.issuedToken = "simtoken-" + strconv.Itoa(int(s.pairingToken))
	if s.requireAuth {
		s.authToken = s.issuedToken
	}
	s.writeSuccess(w, map[string]any{
		"ITEM": map[string]any{"AUTH_TOKEN": s.issuedToken},
	})
}

func (s *simulator) handlePairCancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PairingReqToken uint32 `json:"PAIRING_REQ_TOKEN"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pairingActive || body.PairingReqToken != s.pairingToken {
		s.writeError(w, CodeInvalidParameter)
		return
	}
	s.pairingActive = false
	s.writeSuccess(w, map[string]any{"ITEM": map[string]any{}})
}

func (s *simulator) handleDeviceInfo(w http.ResponseWriter) {
	s.mu.Lock()
	root := s.settingsRoot
	s.mu.Unlock()

	inputNames := []string{}
	for _, in := range s.inputs {
		inputNames = append(inputNames, in.name)
	}

	s.writeSuccess(w, map[string]any{
		"ITEMS": []map[string]any{{
			"NAME": "Device Info",
			"VALUE": map[string]any{
				"CAST_NAME":     "Simulated TV",
				"MODEL_NAME":    "SIM-55",
				"SETTINGS_ROOT": root,
				"INPUTS":        inputNames,
				"SYSTEM_INFO": map[string]any{
					"CHIPSET":       3,
					"SERIAL_NUMBER": "SIM123456",
					"VERSION":       "1.0.0",
				},
			},
		}},
	})
}

func (s *simulator) handlePowerMode(w http.ResponseWriter) {
	s.mu.Lock()
	power := 0
	if s.poweredOn {
		power = 1
	}
	s.mu.Unlock()

	s.writeSuccess(w, map[string]any{
		"ITEMS": []map[string]any{{"TYPE": "T_VALUE_V1", "NAME": "Power Mode", "VALUE": power}},
	})
}

// dpadPrimary and dpadAlternate are the directional code tables the
// simulator recognizes.
var (
	dpadPrimary   = map[uint8]bool{0: true, 1: true, 8: true, 7: true}
	dpadAlternate = map[uint8]bool{4: true, 6: true, 3: true, 5: true}
)

func (s *simulator) handleKeyCommand(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.writeError(w, CodeRequiresPairing)
		return
	}

	var body struct {
		KeyList []keyEvent `json:"KEYLIST"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.KeyList) == 0 {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range body.KeyList {
		if ev.CodeSet == 3 && ev.Code != 2 {
			accepted := dpadPrimary
			if s.altDpad {
				accepted = dpadAlternate
			}
			if !accepted[ev.Code] {
				s.writeError(w, CodeInvalidParameter)
				return
			}
		}
	}
	s.lastKeys = append(s.lastKeys, body.KeyList...)
	s.writeSuccess(w, map[string]any{"ITEM": map[string]any{}})
}

func (s *simulator) handleCurrentApp(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.writeError(w, CodeRequiresPairing)
		return
	}
	s.mu.Lock()
	app := s.currentApp
	s.mu.Unlock()

	s.writeSuccess(w, map[string]any{
		"ITEM": map[string]any{
			"TYPE": "T_APP_V1",
			"VALUE": map[string]any{
				"NAME_SPACE": app.NameSpace,
				"APP_ID":     app.AppID,
				"MESSAGE":    app.Message,
			},
		},
	})
}

func (s *simulator) handleLaunchApp(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.writeError(w, CodeRequiresPairing)
		return
	}
	var body struct {
		Value *AppPayload `json:"VALUE"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == nil {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	s.mu.Lock()
	s.launchedApp = body.Value
	s.currentApp = *body.Value
	s.mu.Unlock()
	s.writeSuccess(w, map[string]any{"ITEM": map[string]any{}})
}

func (s *simulator) handleMenu(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.writeError(w, CodeRequiresPairing)
		return
	}

	var static bool
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/menu_native/dynamic"):
		path = strings.TrimPrefix(path, "/menu_native/dynamic")
	case strings.HasPrefix(path, "/menu_native/static"):
		path = strings.TrimPrefix(path, "/menu_native/static")
		static = true
	default:
		s.writeError(w, CodeURINotFound)
		return
	}

	// Input endpoints live under the settings root but are modeled
	// separately from the settings tree.
	s.mu.Lock()
	root := "/" + s.settingsRoot
	s.mu.Unlock()
	switch path {
	case root + "/devices/current_input":
		s.handleCurrentInput(w, r)
		return
	case root + "/devices/name_input":
		s.handleNameInput(w)
		return
	}

	s.mu.Lock()
	node, ok := s.nodes[path]
	drop := ok && s.dropNode != "" && node.cname == s.dropNode
	s.mu.Unlock()
	if !ok {
		s.writeError(w, CodeURINotFound)
		return
	}
	if drop && r.Method != http.MethodPut {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			panic(err)
		}
		conn.Close()
		return
	}

	if r.Method == http.MethodPut {
		s.handleMenuWrite(w, r, node)
		return
	}
	if static {
		s.handleMenuStatic(w, node)
		return
	}
	s.handleMenuDynamic(w, node)
}

// nodeWire renders a node as its dynamic-tree listing entry.
func (s *simulator) nodeWire(n *simNode) map[string]any {
	entry := map[string]any{
		"CNAME":    n.cname,
		"HASHVAL":  n.hashval,
		"HIDDEN":   boolWord(n.hidden),
		"NAME":     n.name,
		"READONLY": boolWord(n.readOnly),
		"TYPE":     n.wireType,
	}
	if n.value != nil {
		entry["VALUE"] = n.value
	}
	if n.elements != nil {
		entry["ELEMENTS"] = n.elements
	}
	return entry
}

func boolWord(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (s *simulator) handleMenuDynamic(w http.ResponseWriter, node *simNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.wireType == "T_MENU_V1" {
		items := []map[string]any{}
		for _, c := range node.children {
			items = append(items, s.nodeWire(c))
		}
		s.writeSuccess(w, map[string]any{"ITEMS": items})
		return
	}
	s.writeSuccess(w, map[string]any{"ITEMS": []map[string]any{s.nodeWire(node)}})
}

func (s *simulator) handleMenuStatic(w http.ResponseWriter, node *simNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.sliderBounds == nil {
		s.writeError(w, CodeURINotFound)
		return
	}
	b := node.sliderBounds
	s.writeSuccess(w, map[string]any{
		"ITEMS": []map[string]any{{
			"CNAME":     node.cname,
			"NAME":      node.name,
			"TYPE":      "T_VALUE_ABS_V1",
			"DECMARKER": "-",
			"INCMARKER": "+",
			"INCREMENT": b.increment,
			"MAXIMUM":   b.max,
			"MINIMUM":   b.min,
			"CENTER":    b.center,
		}},
	})
}

func (s *simulator) handleMenuWrite(w http.ResponseWriter, r *http.Request, node *simNode) {
	var body struct {
		Request string          `json:"REQUEST"`
		Value   json.RawMessage `json:"VALUE"`
		Hashval uint32          `json:"HASHVAL"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Request != "MODIFY" {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if node.readOnly || node.wireType == "T_MENU_V1" {
		s.writeError(w, CodeInvalidParameter)
		return
	}
	if body.Hashval != node.hashval {
		s.writeError(w, CodeInvalidParameter)
		return
	}

	var value any
	if err := json.Unmarshal(body.Value, &value); err != nil {
		s.writeError(w, CodeInvalidParameter)
		return
	}
	if node.sliderBounds != nil {
		f, ok := value.(float64)
		if !ok || f < float64(node.sliderBounds.min) || f > float64(node.sliderBounds.max) {
			s.writeError(w, CodeValueOutOfRange)
			return
		}
	}
	node.value = value
	s.writeSuccess(w, map[string]any{"ITEM": map[string]any{}})
}

func (s *simulator) handleCurrentInput(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut {
		var body struct {
			Request string `json:"REQUEST"`
			Value   string `json:"VALUE"`
			Hashval uint32 `json:"HASHVAL"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Request != "MODIFY" {
			s.writeError(w, CodeInvalidParameter)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if body.Hashval != s.inputHashval {
			s.writeError(w, CodeInvalidParameter)
			return
		}
		found := false
		for _, in := range s.inputs {
			if in.name == body.Value {
				found = true
				break
			}
		}
		if !found {
			s.writeError(w, CodeInvalidParameter)
			return
		}
		s.currentInput = body.Value
		s.inputHashval++
		s.writeSuccess(w, map[string]any{"ITEM": map[string]any{}})
		return
	}

	s.mu.Lock()
	current, hashval := s.currentInput, s.inputHashval
	if s.raceInput {
		s.inputHashval++
	}
	s.mu.Unlock()
	s.writeSuccess(w, map[string]any{
		"ITEMS": []map[string]any{{
			"CNAME":   "current_input",
			"NAME":    "Current Input",
			"TYPE":    "T_DEVICE_V1",
			"VALUE":   current,
			"HASHVAL": hashval,
		}},
	})
}

func (s *simulator) handleNameInput(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []map[string]any{}
	for _, in := range s.inputs {
		items = append(items, map[string]any{
			"CNAME":   strings.ToLower(in.name),
			"NAME":    in.name,
			"TYPE":    "T_DEVICE_V1",
			"VALUE":   map[string]any{"NAME": in.friendly},
			"HASHVAL": in.hashval,
		})
	}
	s.writeSuccess(w, map[string]any{"ITEMS": items})
}
