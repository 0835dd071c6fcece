package scene

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SignalHandler receives the emit-time arguments of one signal firing.
type SignalHandler func(args []any)

type signalConnection struct {
	id      string
	signal  string
	handler SignalHandler
}

// Node is one element of the live scene graph. Nodes are owned by their
// Tree and mutated only from the dispatcher goroutine.
type Node struct {
	name     string
	class    string
	parent   *Node
	children []*Node
	owner    *Node

	properties map[string]any
	schema     *ClassInfo

	script      string
	groups      []string
	connections []signalConnection
}

// NewNode creates a detached node of the given class. Property defaults and
// the signal/property schema come from the class registry.
func NewNode(class, name string) *Node {
	info := Classes().lookup(class)
	n := &Node{
		name:       name,
		class:      class,
		properties: map[string]any{},
		schema:     info,
	}
	if info != nil {
		for prop, def := range info.defaults() {
			n.properties[prop] = def
		}
	}
	return n
}

func (n *Node) Name() string  { return n.name }
func (n *Node) Class() string { return n.class }
func (n *Node) Owner() *Node  { return n.owner }
func (n *Node) Parent() *Node { return n.parent }

func (n *Node) SetName(name string)   { n.name = name }
func (n *Node) SetOwner(owner *Node)  { n.owner = owner }
func (n *Node) Script() string        { return n.script }
func (n *Node) SetScript(path string) { n.script = path }
func (n *Node) Groups() []string      { return append([]string(nil), n.groups...) }

func (n *Node) ChildCount() int { return len(n.children) }

// Children returns the ordered child list. The slice is shared; callers must
// not append to it.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) AddChild(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Free detaches the node from its parent. Late signal emissions against a
// freed node are tolerated; its connections stay disconnectable.
func (n *Node) Free() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// IsInsideTree reports whether the node is reachable from a root ancestor.
func (n *Node) IsInsideTree() bool {
	return n.parent != nil || n.owner == n
}

func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p.parent == n {
			return true
		}
	}
	return false
}

// IsClass reports whether the node's class is p or inherits from it.
func (n *Node) IsClass(class string) bool {
	return n.class == class || Classes().IsParentClass(n.class, class)
}

// Get reads a property. The bool result is false for properties the node's
// class does not declare and that were never set dynamically.
func (n *Node) Get(property string) (any, bool) {
	v, ok := n.properties[property]
	if ok {
		return v, true
	}
	if n.schema != nil && n.schema.hasProperty(property) {
		return nil, true
	}
	return nil, false
}

// Set writes a property and reports validity, mirroring the engine's
// set-with-validity call. Unknown and read-only properties are invalid.
func (n *Node) Set(property string, value any) bool {
	if n.schema == nil {
		n.properties[property] = value
		return true
	}
	if !n.schema.hasProperty(property) {
		return false
	}
	if n.schema.isReadOnly(property) {
		return false
	}
	n.properties[property] = value
	return true
}

// PropertyNames returns the declared editor-visible property names in
// schema order, followed by dynamically added ones.
func (n *Node) PropertyNames() []string {
	if n.schema == nil {
		names := make([]string, 0, len(n.properties))
		for name := range n.properties {
			names = append(names, name)
		}
		return names
	}
	names := n.schema.propertyNames()
	for name := range n.properties {
		if !n.schema.hasProperty(name) {
			names = append(names, name)
		}
	}
	return names
}

// HasMethod reports whether the class declares a callable method.
func (n *Node) HasMethod(method string) bool {
	return n.schema != nil && n.schema.hasMethod(method)
}

// Call invokes a declared method. Missing methods are an error, not a panic.
func (n *Node) Call(method string, args ...any) (any, error) {
	if n.schema == nil || !n.schema.hasMethod(method) {
		return nil, fmt.Errorf("node %s has no method %q", n.name, method)
	}
	return n.schema.call(n, method, args)
}

// SignalNames returns the signals the node's class declares.
func (n *Node) SignalNames() []string {
	if n.schema == nil {
		return nil
	}
	return n.schema.signalNames()
}

func (n *Node) HasSignal(signal string) bool {
	if n.schema == nil {
		return false
	}
	for _, s := range n.schema.signalNames() {
		if s == signal {
			return true
		}
	}
	return false
}

// Connect attaches a handler to a declared signal and returns the
// connection handle required at disconnect time.
func (n *Node) Connect(signal string, handler SignalHandler) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("nil handler for signal %q", signal)
	}
	if !n.HasSignal(signal) {
		return "", fmt.Errorf("node %s (%s) has no signal %q", n.name, n.class, signal)
	}
	id := uuid.NewString()
	n.connections = append(n.connections, signalConnection{id: id, signal: signal, handler: handler})
	return id, nil
}

// Disconnect removes a connection by handle. Disconnecting an unknown or
// already-removed handle is a no-op, which keeps teardown idempotent.
func (n *Node) Disconnect(handle string) bool {
	for i, conn := range n.connections {
		if conn.id == handle {
			n.connections = append(n.connections[:i], n.connections[i+1:]...)
			return true
		}
	}
	return false
}

// Emit fires a signal synchronously. Handlers run re-entrantly on the
// caller's goroutine; the connection list is copied first so handlers may
// disconnect during dispatch.
func (n *Node) Emit(signal string, args ...any) {
	conns := append([]signalConnection(nil), n.connections...)
	for _, conn := range conns {
		if conn.signal == signal {
			conn.handler(args)
		}
	}
}

// GetNodeOrNil resolves a relative path using exact segment traversal, the
// engine-native lookup the tolerant resolver builds on.
func (n *Node) GetNodeOrNil(path string) *Node {
	if path == "" || path == "." {
		return n
	}
	current := n
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "." {
			continue
		}
		if segment == ".." {
			if current.parent == nil {
				return nil
			}
			current = current.parent
			continue
		}
		var next *Node
		for _, child := range current.children {
			if child.name == segment {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// PathTo returns the slash-joined relative path from n to target, or the
// target's name when no ancestry links them.
func (n *Node) PathTo(target *Node) string {
	if target == nil {
		return ""
	}
	if target == n {
		return "."
	}
	var segments []string
	for p := target; p != nil && p != n; p = p.parent {
		segments = append(segments, p.name)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "/")
}
