package scene

import (
	"fmt"
	"sort"
	"sync"
)

// methodFunc implements one callable engine method for a class.
type methodFunc func(n *Node, args []any) (any, error)

// ClassInfo describes one registered node class: its parent, declared
// properties with defaults, read-only markers, signals and methods.
type ClassInfo struct {
	Name   string
	Parent string

	propOrder []string
	propDefs  map[string]any
	readOnly  map[string]bool
	signals   []string
	methods   map[string]methodFunc
}

func (c *ClassInfo) hasProperty(name string) bool {
	if c == nil {
		return false
	}
	if _, ok := c.propDefs[name]; ok {
		return true
	}
	return Classes().parentOf(c).hasProperty(name)
}

func (c *ClassInfo) isReadOnly(name string) bool {
	if c == nil {
		return false
	}
	if _, ok := c.propDefs[name]; ok {
		return c.readOnly[name]
	}
	return Classes().parentOf(c).isReadOnly(name)
}

func (c *ClassInfo) defaults() map[string]any {
	out := map[string]any{}
	var walk func(info *ClassInfo)
	walk = func(info *ClassInfo) {
		if info == nil {
			return
		}
		walk(Classes().parentOf(info))
		for name, def := range info.propDefs {
			out[name] = def
		}
	}
	walk(c)
	return out
}

func (c *ClassInfo) propertyNames() []string {
	var names []string
	seen := map[string]bool{}
	var walk func(info *ClassInfo)
	walk = func(info *ClassInfo) {
		if info == nil {
			return
		}
		walk(Classes().parentOf(info))
		for _, name := range info.propOrder {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	walk(c)
	return names
}

func (c *ClassInfo) signalNames() []string {
	var names []string
	var walk func(info *ClassInfo)
	walk = func(info *ClassInfo) {
		if info == nil {
			return
		}
		walk(Classes().parentOf(info))
		names = append(names, info.signals...)
	}
	walk(c)
	return names
}

func (c *ClassInfo) hasMethod(name string) bool {
	if c == nil {
		return false
	}
	if _, ok := c.methods[name]; ok {
		return true
	}
	return Classes().parentOf(c).hasMethod(name)
}

func (c *ClassInfo) call(n *Node, name string, args []any) (any, error) {
	for info := c; info != nil; info = Classes().parentOf(info) {
		if fn, ok := info.methods[name]; ok {
			return fn(n, args)
		}
	}
	return nil, fmt.Errorf("class %s has no method %q", c.Name, name)
}

// Registry holds the known node classes.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*ClassInfo
}

var (
	registryOnce sync.Once
	registry     *Registry
)

// Classes returns the process-wide class registry, populated with the
// built-in classes on first use.
func Classes() *Registry {
	registryOnce.Do(func() {
		registry = &Registry{classes: map[string]*ClassInfo{}}
		registerBuiltins(registry)
	})
	return registry
}

type classBuilder struct {
	info *ClassInfo
}

func (r *Registry) define(name, parent string) *classBuilder {
	info := &ClassInfo{
		Name:     name,
		Parent:   parent,
		propDefs: map[string]any{},
		readOnly: map[string]bool{},
		methods:  map[string]methodFunc{},
	}
	r.classes[name] = info
	return &classBuilder{info: info}
}

func (b *classBuilder) prop(name string, def any) *classBuilder {
	b.info.propOrder = append(b.info.propOrder, name)
	b.info.propDefs[name] = def
	return b
}

func (b *classBuilder) readonlyProp(name string, def any) *classBuilder {
	b.prop(name, def)
	b.info.readOnly[name] = true
	return b
}

func (b *classBuilder) signal(names ...string) *classBuilder {
	b.info.signals = append(b.info.signals, names...)
	return b
}

func (b *classBuilder) method(name string, fn methodFunc) *classBuilder {
	b.info.methods[name] = fn
	return b
}

func (r *Registry) lookup(name string) *ClassInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[name]
}

func (r *Registry) parentOf(info *ClassInfo) *ClassInfo {
	if info == nil || info.Parent == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[info.Parent]
}

// CanInstantiate reports whether the class is registered.
func (r *Registry) CanInstantiate(name string) bool {
	return r.lookup(name) != nil
}

// IsParentClass reports whether parent appears in class's ancestry chain.
func (r *Registry) IsParentClass(class, parent string) bool {
	for info := r.lookup(class); info != nil; info = r.parentOf(info) {
		if info.Parent == parent {
			return true
		}
	}
	return false
}

// Instantiate creates a node of the named class, or nil when unknown.
func (r *Registry) Instantiate(class, nodeName string) *Node {
	if !r.CanInstantiate(class) {
		return nil
	}
	return NewNode(class, nodeName)
}

// InstantiableNodeClasses lists every registered class deriving from Node,
// sorted by name.
func (r *Registry) InstantiableNodeClasses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getBool(n *Node, prop string) bool {
	v, _ := n.Get(prop)
	b, _ := v.(bool)
	return b
}

func getProp(prop string) methodFunc {
	return func(n *Node, _ []any) (any, error) {
		v, _ := n.Get(prop)
		return v, nil
	}
}

func registerBuiltins(r *Registry) {
	r.define("Node", "").
		prop("process_mode", "inherit").
		readonlyProp("scene_file_path", "").
		signal("ready", "renamed", "tree_entered", "tree_exiting", "child_entered_tree")

	r.define("CanvasItem", "Node").
		prop("visible", true).
		prop("modulate", White).
		prop("self_modulate", White).
		prop("z_index", 0).
		prop("z_as_relative", true).
		signal("visibility_changed").
		method("is_visible", getProp("visible")).
		method("get_z_index", getProp("z_index")).
		method("get_z_as_relative", getProp("z_as_relative"))

	r.define("Node2D", "CanvasItem").
		prop("position", Vector2{}).
		prop("global_position", Vector2{}).
		prop("scale", Vector2{X: 1, Y: 1}).
		prop("rotation", 0.0)

	r.define("Sprite2D", "Node2D").
		prop("texture", nil).
		prop("centered", true).
		method("set_texture", func(n *Node, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("set_texture expects 1 argument, got %d", len(args))
			}
			n.Set("texture", args[0])
			return nil, nil
		})

	r.define("AnimatedSprite2D", "Node2D").
		prop("animation", "default").
		prop("frame", 0).
		prop("playing", false).
		prop("speed_scale", 1.0).
		signal("animation_finished", "frame_changed").
		method("is_playing", getProp("playing"))

	r.define("Camera2D", "Node2D").
		prop("enabled", true).
		prop("zoom", Vector2{X: 1, Y: 1}).
		prop("offset", Vector2{}).
		prop("limit_left", -10000000).
		prop("limit_right", 10000000).
		prop("limit_top", -10000000).
		prop("limit_bottom", 10000000)

	r.define("CollisionObject2D", "Node2D").
		prop("collision_layer", 1).
		prop("collision_mask", 1).
		signal("input_event")

	r.define("Area2D", "CollisionObject2D").
		signal("body_entered", "body_exited", "area_entered", "area_exited")

	r.define("PhysicsBody2D", "CollisionObject2D")

	r.define("StaticBody2D", "PhysicsBody2D")

	r.define("AnimatableBody2D", "StaticBody2D")

	r.define("CharacterBody2D", "PhysicsBody2D").
		prop("velocity", Vector2{}).
		prop("floor_snap_length", 1.0)

	r.define("RigidBody2D", "PhysicsBody2D").
		prop("mass", 1.0).
		prop("gravity_scale", 1.0).
		prop("linear_velocity", Vector2{}).
		prop("angular_velocity", 0.0).
		signal("body_entered", "body_exited", "sleeping_state_changed")

	r.define("CollisionShape2D", "Node2D").
		prop("shape", nil).
		prop("disabled", false)

	r.define("CanvasLayer", "Node").
		prop("layer", 1).
		prop("visible", true).
		signal("visibility_changed")

	r.define("Control", "CanvasItem").
		prop("position", Vector2{}).
		prop("size", Vector2{}).
		signal("resized", "gui_input")

	r.define("Label", "Control").
		prop("text", "").
		prop("color", White)

	r.define("ColorRect", "Control").
		prop("color", White)

	r.define("Timer", "Node").
		prop("wait_time", 1.0).
		prop("one_shot", false).
		prop("autostart", false).
		signal("timeout").
		method("is_stopped", func(n *Node, _ []any) (any, error) {
			return !getBool(n, "autostart"), nil
		})

	r.define("AnimationPlayer", "Node").
		prop("current_animation", "").
		prop("playback_speed", 1.0).
		prop("playing", false).
		prop("animation_list", []any{}).
		signal("animation_finished", "animation_started", "animation_changed").
		method("is_playing", getProp("playing")).
		method("get_animation_list", getProp("animation_list"))
}
