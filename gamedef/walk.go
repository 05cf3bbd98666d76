package gamedef

import "fmt"

// NodeKind identifies which of the four content scopes a visited node is.
type NodeKind int

const (
	NodeLayer NodeKind = iota
	NodeSublayer
	NodeSection
	NodeElement
)

// VisitedNode is one stop in a depth-first definition walk: every layer,
// then its sublayers, their sections, and their elements, siblings in
// array order. This is the single enumeration order every core component
// that needs "every reachable node" (the unlock evaluator, the registry,
// the render step) must agree on.
type VisitedNode struct {
	Ref      string
	Kind     NodeKind
	Unlock   map[string]any
	Layer    *Layer
	Sublayer *Sublayer
	Section  *Section
	Element  *Element
}

// Walk visits every reachable node in the definition in depth-first,
// layer→sublayer→section→element order.
func Walk(def *Definition, visit func(VisitedNode)) {
	if def == nil {
		return
	}
	for li := range def.Layers {
		layer := &def.Layers[li]
		layerRef := fmt.Sprintf("layer:%s", layer.ID)
		visit(VisitedNode{Ref: layerRef, Kind: NodeLayer, Unlock: layer.Unlock, Layer: layer})

		for si := range layer.Sublayers {
			sub := &layer.Sublayers[si]
			subRef := fmt.Sprintf("%s/sublayer:%s", layerRef, sub.ID)
			visit(VisitedNode{Ref: subRef, Kind: NodeSublayer, Unlock: sub.Unlock, Layer: layer, Sublayer: sub})

			for ci := range sub.Sections {
				sec := &sub.Sections[ci]
				secRef := fmt.Sprintf("%s/section:%s", subRef, sec.ID)
				visit(VisitedNode{Ref: secRef, Kind: NodeSection, Unlock: sec.Unlock, Layer: layer, Sublayer: sub, Section: sec})

				for ei := range sec.Elements {
					el := &sec.Elements[ei]
					elRef := fmt.Sprintf("%s/element:%s", secRef, el.ID)
					visit(VisitedNode{Ref: elRef, Kind: NodeElement, Unlock: el.Unlock, Layer: layer, Sublayer: sub, Section: sec, Element: el})
				}
			}
		}
	}
}
