package command

import (
	"fmt"
	"strings"
)

// Target addresses a command. The zero Target is Global and is handled by
// the editor loop itself; a named target is routed to the component
// registered under that name.
type Target struct {
	component string
}

// Global is the target handled by the editor loop.
var Global = Target{}

// Component returns a target addressing the named component.
func Component(name string) Target {
	return Target{component: name}
}

// IsGlobal reports whether t is the global target.
func (t Target) IsGlobal() bool {
	return t.component == ""
}

// Name returns the component name, or "" for the global target.
func (t Target) Name() string {
	return t.component
}

// String returns a printable form.
func (t Target) String() string {
	if t.IsGlobal() {
		return "global"
	}
	return "component:" + t.component
}

// Payload is the closed set of command variants. Only types in this package
// implement it.
type Payload interface {
	payload()
}

// Command is a targeted payload.
type Command struct {
	Target  Target
	Payload Payload
}

// New returns a global command.
func New(p Payload) Command {
	return Command{Target: Global, Payload: p}
}

// To returns a command addressed to the named component.
func To(name string, p Payload) Command {
	return Command{Target: Component(name), Payload: p}
}

// Kind returns the payload variant name, e.g. "UpdateStyle".
func (c Command) Kind() string {
	return KindOf(c.Payload)
}

// KindOf returns the variant name of p.
func KindOf(p Payload) string {
	name := fmt.Sprintf("%T", p)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
