package engine

import (
	"fmt"

	"idlecore/gamedef"
	"idlecore/unlock"
)

// UIElement is the leaf of the rendered UI tree.
type UIElement struct {
	ID      string `json:"id"`
	Type    string `json:"type,omitempty"`
	NodeRef string `json:"nodeRef"`
}

// UISection groups elements. Sections carry no type in the Game
// Definition, so none is rendered here either.
type UISection struct {
	ID       string      `json:"id"`
	NodeRef  string      `json:"nodeRef"`
	Elements []UIElement `json:"elements"`
}

// UISublayer groups sections. The Game Definition does not declare a type
// for sublayers; Type is carried as an empty field for shape parity with
// the layer and element nodes the UI tree schema names.
type UISublayer struct {
	ID       string      `json:"id"`
	Type     string      `json:"type,omitempty"`
	NodeRef  string      `json:"nodeRef"`
	Sections []UISection `json:"sections"`
}

// UILayer is a top-level rendered layer.
type UILayer struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	NodeRef   string       `json:"nodeRef"`
	Sublayers []UISublayer `json:"sublayers"`
}

// UITree is the pure object tree composed at render, filtered by the
// current unlock summary: a node is omitted iff it or any ancestor is
// locked.
type UITree struct {
	Layers []UILayer `json:"layers"`
}

// buildUITree composes the UI tree from def, keeping only nodes that are
// unlocked and whose every ancestor is unlocked. unlocked reports, per
// node reference, whether that specific node is unlocked; a ref absent
// from the map (no unlock target was registered for it, which cannot
// happen for an engine-constructed evaluator but is handled defensively)
// is treated as locked.
func buildUITree(def *gamedef.Definition, unlocked map[string]bool) UITree {
	isUnlocked := func(ref string) bool {
		v, ok := unlocked[ref]
		return ok && v
	}

	tree := UITree{}
	for _, layer := range def.Layers {
		layerRef := fmt.Sprintf("layer:%s", layer.ID)
		if !isUnlocked(layerRef) {
			continue
		}
		uiLayer := UILayer{ID: layer.ID, Type: layer.Type, NodeRef: layerRef}

		for _, sub := range layer.Sublayers {
			subRef := fmt.Sprintf("%s/sublayer:%s", layerRef, sub.ID)
			if !isUnlocked(subRef) {
				continue
			}
			uiSub := UISublayer{ID: sub.ID, NodeRef: subRef}

			for _, sec := range sub.Sections {
				secRef := fmt.Sprintf("%s/section:%s", subRef, sec.ID)
				if !isUnlocked(secRef) {
					continue
				}
				uiSec := UISection{ID: sec.ID, NodeRef: secRef}

				for _, el := range sec.Elements {
					elRef := fmt.Sprintf("%s/element:%s", secRef, el.ID)
					if !isUnlocked(elRef) {
						continue
					}
					uiSec.Elements = append(uiSec.Elements, UIElement{ID: el.ID, Type: el.Type, NodeRef: elRef})
				}

				uiSub.Sections = append(uiSub.Sections, uiSec)
			}

			uiLayer.Sublayers = append(uiLayer.Sublayers, uiSub)
		}

		tree.Layers = append(tree.Layers, uiLayer)
	}
	return tree
}

// unlockedSetFrom flattens an unlock.Summary into the ref→bool map
// buildUITree expects.
func unlockedSetFrom(summary unlock.Summary) map[string]bool {
	return summary.Unlocked
}
