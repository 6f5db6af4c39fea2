// Package controls maps key presses from the display loop to actions.
package controls

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Action is what a key press asks the loop to do.
type Action int

// Actions understood by the display loops.
const (
	None Action = iota
	Record
	Calibrate
	Snapshot
	ToggleCorners
	Quit
)

var actionNames = map[Action]string{
	None:          "none",
	Record:        "record",
	Calibrate:     "calibrate",
	Snapshot:      "snapshot",
	ToggleCorners: "corners",
	Quit:          "quit",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction resolves an action by name.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name && a != None {
			return a, nil
		}
	}
	return None, errors.Wrapf(ErrUnknownAction, "%q", name)
}

var (
	// ErrDuplicateKey is returned when one key is bound to two actions.
	ErrDuplicateKey = errors.New("key bound to more than one action")
	// ErrUnknownAction is returned for an action name that does not exist.
	ErrUnknownAction = errors.New("unknown action")
)

// KeyMap binds key codes to actions.
type KeyMap map[int]Action

// DefaultCalibrationKeys are the bindings of the calibration and overlay loop.
func DefaultCalibrationKeys() KeyMap {
	return KeyMap{
		's': Record,
		'c': Calibrate,
		'p': Snapshot,
		'h': ToggleCorners,
		'q': Quit,
	}
}

// DefaultHarrisKeys are the bindings of the Harris corner loop.
func DefaultHarrisKeys() KeyMap {
	return KeyMap{
		'p': Snapshot,
		'q': Quit,
	}
}

// Bind adds key for action. It fails if key already triggers a different action.
func (m KeyMap) Bind(key int, a Action) error {
	if prev, ok := m[key]; ok && prev != a {
		return errors.Wrapf(ErrDuplicateKey, "%q is %s and %s", rune(key), prev, a)
	}
	m[key] = a
	return nil
}

// Lookup returns the action for a key code as returned by the window's
// WaitKey. -1 means no key was pressed.
func (m KeyMap) Lookup(key int) Action {
	if key < 0 {
		return None
	}
	return m[key&0xff]
}

// Keys returns the keys bound to a, in ascending order.
func (m KeyMap) Keys(a Action) []int {
	var keys []int
	for k, v := range m {
		if v == a {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	return keys
}

// String renders the map as accepted by ParseKeyMap, sorted by key.
func (m KeyMap) String() string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%c", m[k], rune(k)))
	}
	return strings.Join(parts, ",")
}

// ParseKeyMap reads "action=key,action=key" and overlays it on base. An
// action named in bindings loses its default keys. Each key must be a single
// character.
func ParseKeyMap(bindings string, base KeyMap) (KeyMap, error) {
	out := KeyMap{}
	for k, v := range base {
		out[k] = v
	}
	bindings = strings.TrimSpace(bindings)
	if bindings == "" {
		return out, nil
	}

	type binding struct {
		action Action
		key    int
	}
	var parsed []binding
	for _, field := range strings.Split(bindings, ",") {
		name, key, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			return nil, errors.Errorf("bad key binding %q, want action=key", field)
		}
		a, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		r := []rune(key)
		if len(r) != 1 || r[0] > 0xff {
			return nil, errors.Errorf("bad key %q for %s, want one character", key, a)
		}
		parsed = append(parsed, binding{a, int(r[0])})
	}

	for _, b := range parsed {
		for _, k := range out.Keys(b.action) {
			delete(out, k)
		}
	}
	seen := KeyMap{}
	for _, b := range parsed {
		if err := seen.Bind(b.key, b.action); err != nil {
			return nil, err
		}
	}
	for k, a := range seen {
		if err := out.Bind(k, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}
