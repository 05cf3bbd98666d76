package gamedef

import (
	"fmt"
	"strings"

	"idlecore/noderef"
	"idlecore/unlock"
)

// SupportedSchemaMajor is the only schema-version major component this
// engine accepts. meta.schemaVersion is canonically "major.minor" (see
// DESIGN.md's resolution of the open question); only the major component
// is enforced.
const SupportedSchemaMajor = "1"

// ValidationError is one startup-fatal issue found while validating a Game
// Definition.
type ValidationError struct {
	Code    string
	Path    string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, e.Message)
}

// ValidationErrors aggregates every issue found; initialization never
// completes partially, so validation always reports the full list.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("gamedef: %d validation error(s): %s", len(errs), strings.Join(parts, "; "))
}

// Validate runs every schema and reference check against def, returning the
// full aggregated list of issues (nil if none).
func Validate(def *Definition) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, validateMeta(def)...)
	errs = append(errs, validateSiblingUniqueness(def)...)
	errs = append(errs, validateUnlockConditions(def)...)
	errs = append(errs, validateReferences(def)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateMeta(def *Definition) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(def.Meta.GameID) == "" {
		errs = append(errs, ValidationError{
			Code: "META_GAME_ID_REQUIRED", Path: "/meta/gameId",
			Message: "gameId must not be empty",
			Hint:    "set meta.gameId to a stable identifier for this content pack",
		})
	}
	major, _, ok := strings.Cut(def.Meta.SchemaVersion, ".")
	if !ok || major == "" {
		errs = append(errs, ValidationError{
			Code: "META_SCHEMA_VERSION_MALFORMED", Path: "/meta/schemaVersion",
			Message: fmt.Sprintf("schemaVersion %q is not major.minor", def.Meta.SchemaVersion),
			Hint:    "use the form \"1.0\"",
		})
	} else if major != SupportedSchemaMajor {
		errs = append(errs, ValidationError{
			Code: "META_SCHEMA_VERSION_UNSUPPORTED", Path: "/meta/schemaVersion",
			Message: fmt.Sprintf("schemaVersion major %q does not match supported major %q", major, SupportedSchemaMajor),
			Hint:    fmt.Sprintf("upgrade or downgrade content to schema major %q", SupportedSchemaMajor),
		})
	}
	if len(def.Layers) == 0 {
		errs = append(errs, ValidationError{
			Code: "LAYERS_REQUIRED", Path: "/layers",
			Message: "a definition must declare at least one layer",
			Hint:    "add at least one entry to layers[]",
		})
	}
	return errs
}

func validateSiblingUniqueness(def *Definition) ValidationErrors {
	var errs ValidationErrors

	checkUnique := func(path string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				errs = append(errs, ValidationError{
					Code: "DUPLICATE_SIBLING_ID", Path: path,
					Message: fmt.Sprintf("duplicate sibling id %q", id),
					Hint:    "sibling ids must be unique within their scope",
				})
			}
			seen[id] = true
		}
	}

	layerIDs := make([]string, len(def.Layers))
	for i, l := range def.Layers {
		layerIDs[i] = l.ID
	}
	checkUnique("/layers", layerIDs)

	for li, layer := range def.Layers {
		subIDs := make([]string, len(layer.Sublayers))
		for i, s := range layer.Sublayers {
			subIDs[i] = s.ID
		}
		checkUnique(fmt.Sprintf("/layers/%d/sublayers", li), subIDs)

		for si, sub := range layer.Sublayers {
			secIDs := make([]string, len(sub.Sections))
			for i, s := range sub.Sections {
				secIDs[i] = s.ID
			}
			checkUnique(fmt.Sprintf("/layers/%d/sublayers/%d/sections", li, si), secIDs)

			for ci, sec := range sub.Sections {
				elIDs := make([]string, len(sec.Elements))
				for i, e := range sec.Elements {
					elIDs[i] = e.ID
				}
				checkUnique(fmt.Sprintf("/layers/%d/sublayers/%d/sections/%d/elements", li, si, ci), elIDs)
			}
		}
	}

	return errs
}

func validateUnlockConditions(def *Definition) ValidationErrors {
	var errs ValidationErrors
	Walk(def, func(n VisitedNode) {
		if n.Unlock == nil {
			return
		}
		if _, err := unlock.ParseCondition(n.Unlock); err != nil {
			errs = append(errs, ValidationError{
				Code: "INVALID_UNLOCK_CONDITION", Path: "/" + strings.ReplaceAll(n.Ref, ":", "="),
				Message: fmt.Sprintf("unlock condition at %s is invalid: %v", n.Ref, err),
				Hint:    "unlock must be an object with exactly one recognized operator key",
			})
		}
	})
	return errs
}

func validateReferences(def *Definition) ValidationErrors {
	var errs ValidationErrors

	allRefs := make(map[string]bool)
	Walk(def, func(n VisitedNode) { allRefs[n.Ref] = true })

	Walk(def, func(n VisitedNode) {
		if n.Element != nil && n.Element.Effect != nil && n.Element.Effect.TargetRef != "" {
			canonical, err := noderef.Normalize(n.Element.Effect.TargetRef)
			if err != nil || !allRefs[canonical] {
				errs = append(errs, ValidationError{
					Code: "UNKNOWN_EFFECT_TARGET_REF", Path: "/" + strings.ReplaceAll(n.Ref, ":", "="),
					Message: fmt.Sprintf("effect.targetRef %q does not resolve to a node", n.Element.Effect.TargetRef),
					Hint:    "effect.targetRef must name an existing layer/sublayer/section/element",
				})
			}
		}
		if n.Unlock != nil {
			errs = append(errs, validateUnlockPaths(n, def.State)...)
		}
	})

	for li, layer := range def.Layers {
		for ci, sc := range layer.Softcaps {
			canonical, err := noderef.Normalize(sc.Scope)
			if err != nil || !allRefs[canonical] {
				errs = append(errs, ValidationError{
					Code: "UNKNOWN_SOFTCAP_SCOPE", Path: fmt.Sprintf("/layers/%d/softcaps/%d/scope", li, ci),
					Message: fmt.Sprintf("softcap scope %q does not resolve to a node", sc.Scope),
					Hint:    "softcap scope must name an existing node reference",
				})
			}
		}
		if layer.Reset != nil {
			for ki, keepPath := range layer.Reset.Keep {
				if !pathExistsIn(def.State, keepPath) {
					errs = append(errs, ValidationError{
						Code: "UNKNOWN_RESET_KEEP_PATH", Path: fmt.Sprintf("/layers/%d/reset/keep/%d", li, ki),
						Message: fmt.Sprintf("reset.keep path %q does not resolve to initial state", keepPath),
						Hint:    "reset.keep entries must name a path present in the definition's initial state",
					})
				}
			}
		}
	}

	return errs
}

func validateUnlockPaths(n VisitedNode, state map[string]any) ValidationErrors {
	var errs ValidationErrors
	collectPaths(n.Unlock, func(path string) {
		if path == "" || isDerivedStatePath(path) {
			return
		}
		if !pathExistsIn(state, path) {
			errs = append(errs, ValidationError{
				Code: "UNKNOWN_UNLOCK_STATE_PATH", Path: "/" + strings.ReplaceAll(n.Ref, ":", "="),
				Message: fmt.Sprintf("unlock condition at %s reads undeclared state path %q", n.Ref, path),
				Hint:    "unlock conditions must reference a path present in the definition's initial state",
			})
		}
	})
	return errs
}

// isDerivedStatePath exempts paths under the derived.* namespace (e.g.
// derived.unlocks), which are populated at runtime rather than declared in
// the definition's initial state tree.
func isDerivedStatePath(path string) bool {
	return path == "derived" || strings.HasPrefix(path, "derived.")
}

// collectPaths walks a raw (already JSON-decoded) condition object looking
// for every leaf "path" field, regardless of operator, without requiring a
// successful parse (parse errors are reported separately).
func collectPaths(raw map[string]any, visit func(string)) {
	for op, payload := range raw {
		switch op {
		case "resourceGte":
			if m, ok := payload.(map[string]any); ok {
				if p, ok := m["path"].(string); ok {
					visit(p)
				}
			}
		case "compare":
			if m, ok := payload.(map[string]any); ok {
				if p, ok := m["path"].(string); ok {
					visit(p)
				}
			}
		case "flag":
			if p, ok := payload.(string); ok {
				visit(p)
			}
		case "all", "any":
			if list, ok := payload.([]any); ok {
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						collectPaths(m, visit)
					}
				}
			}
		case "not":
			if m, ok := payload.(map[string]any); ok {
				collectPaths(m, visit)
			}
		}
	}
}

func pathExistsIn(tree map[string]any, path string) bool {
	if tree == nil || path == "" {
		return false
	}
	segments := strings.Split(path, ".")
	var cur any = tree
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		v, ok := m[seg]
		if !ok {
			return false
		}
		cur = v
	}
	return true
}
