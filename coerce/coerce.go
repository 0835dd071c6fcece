// Package coerce normalizes weakly-typed tool argument values into the
// engine value types a property expects before assignment.
package coerce

import (
	"strconv"
	"strings"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/scene"
)

var vectorProperties = map[string]bool{
	"position":        true,
	"global_position": true,
	"scale":           true,
}

var colorProperties = map[string]bool{
	"color":         true,
	"modulate":      true,
	"self_modulate": true,
}

// Value coerces a raw argument value based on the target property name and
// the raw value's shape. Values with no applicable rule pass through
// unchanged; the property-set validity check remains the caller's job.
func Value(property string, raw any, loader scene.ResourceLoader) any {
	name := strings.ToLower(property)

	if vectorProperties[name] {
		if v, ok := toVector2(raw); ok {
			return v
		}
		return raw
	}

	if colorProperties[name] {
		if s, ok := raw.(string); ok {
			c, parsed := scene.ParseColor(s)
			if !parsed {
				logger.Warn("Unparseable color value, falling back to white", "property", property, "value", s)
			}
			return c
		}
		return raw
	}

	if s, ok := raw.(string); ok && scene.LooksLikeResourcePath(s) && loader != nil {
		res, err := loader.Load(s)
		if err != nil {
			// Leave the raw string to be attempted as a direct assignment.
			logger.Debug("Resource load failed during coercion", "property", property, "path", s, "error", err)
			return raw
		}
		return res
	}

	return raw
}

func toVector2(raw any) (scene.Vector2, bool) {
	switch v := raw.(type) {
	case scene.Vector2:
		return v, true
	case []any:
		if len(v) < 2 {
			return scene.Vector2{}, false
		}
		x, okX := toFloat(v[0])
		y, okY := toFloat(v[1])
		if !okX || !okY {
			return scene.Vector2{}, false
		}
		return scene.Vector2{X: x, Y: y}, true
	case map[string]any:
		x, okX := lookupComponent(v, "x")
		y, okY := lookupComponent(v, "y")
		if !okX || !okY {
			return scene.Vector2{}, false
		}
		return scene.Vector2{X: x, Y: y}, true
	case string:
		return parseVectorString(v)
	default:
		return scene.Vector2{}, false
	}
}

func lookupComponent(m map[string]any, key string) (float64, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return toFloat(v)
		}
	}
	return 0, false
}

func parseVectorString(s string) (scene.Vector2, bool) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")

	var parts []string
	if strings.Contains(trimmed, ",") {
		parts = strings.Split(trimmed, ",")
	} else {
		parts = strings.Fields(trimmed)
	}
	if len(parts) != 2 {
		return scene.Vector2{}, false
	}

	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return scene.Vector2{}, false
	}
	return scene.Vector2{X: x, Y: y}, true
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
