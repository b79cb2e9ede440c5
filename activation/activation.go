// Package activation parses protocol-activation URIs into boot requests.
//
// A frontend launches the host with a URI such as
//
//	consolehost://launch?cmd=xbsx2.exe%20%22E:\Games\Game.iso%22&launchOnExit=frontend://
//
// The cmd parameter carries a command line whose leading executable token
// is dropped; the rest is the image path. launchOnExit names a URI to
// open when the host exits.
package activation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Query parameter names understood by Parse.
const (
	ParamCmd          = "cmd"
	ParamLaunchOnExit = "launchOnExit"
)

// ErrNotProtocol is returned when the argument is not an absolute URI.
var ErrNotProtocol = errors.New("not a protocol activation URI")

// Activation is the result of parsing an activation URI.
type Activation struct {
	// BootPath is the image to boot, empty when the activation carried none.
	BootPath string
	// LaunchOnExit is opened by the host when it exits.
	LaunchOnExit string
}

// Parse extracts the boot path and the launch-on-exit URI from raw.
func Parse(raw string) (Activation, error) {
	var a Activation

	u, err := url.Parse(raw)
	if err != nil {
		return a, fmt.Errorf("parse activation uri: %w", err)
	}
	if u.Scheme == "" {
		return a, fmt.Errorf("%w: %s", ErrNotProtocol, raw)
	}

	// ParseQuery keeps going past malformed pairs and reports the first
	// error; the pairs it could read are still usable.
	query, _ := url.ParseQuery(u.RawQuery)

	if cmd := query.Get(ParamCmd); cmd != "" {
		a.BootPath = strings.Join(StripExecutable(SplitCommandLine(cmd)), "")
	}
	a.LaunchOnExit = query.Get(ParamLaunchOnExit)

	return a, nil
}

// StripExecutable drops the first token when it names an executable
// ("name.exe", quoted or not, with or without a directory).
func StripExecutable(tokens []string) []string {
	if len(tokens) == 0 || !strings.HasSuffix(strings.ToLower(tokens[0]), ".exe") {
		return tokens
	}
	return tokens[1:]
}

// SplitCommandLine splits s on unquoted whitespace. Double quotes group
// text and are removed; backslashes are kept as-is so Windows paths
// survive.
func SplitCommandLine(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		inQuote bool
		started bool
	)

	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		tokens = append(tokens, current.String())
	}

	return tokens
}
