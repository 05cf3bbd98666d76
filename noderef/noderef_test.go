package noderef

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Parsed
	}{
		{"layer only", "layer:idle", Parsed{Layer: "idle"}},
		{"layer+sublayer", "layer:idle/sublayer:main", Parsed{Layer: "idle", Sublayer: "main", hasSublayer: true}},
		{
			"full depth",
			"layer:idle/sublayer:main/section:jobs/element:xp-gated",
			Parsed{Layer: "idle", Sublayer: "main", Section: "jobs", Element: "xp-gated", hasSublayer: true, hasSection: true, hasElement: true},
		},
		{"whitespace padded", "  layer: idle / sublayer: main  ", Parsed{Layer: "idle", Sublayer: "main", hasSublayer: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.raw)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code Code
	}{
		{"empty", "", CodeEmpty},
		{"whitespace only", "   ", CodeEmpty},
		{"empty segment", "layer:idle//sublayer:main", CodeEmptySegment},
		{"bad format", "idle", CodeBadFormat},
		{"empty id", "layer:", CodeEmptyID},
		{"unknown scope", "world:idle", CodeUnknownScope},
		{"duplicate scope", "layer:idle/layer:other", CodeDuplicateScope},
		{"out of order", "layer:idle/section:jobs", CodeOutOfOrder},
		{"reversed order", "sublayer:main/layer:idle", CodeOutOfOrder},
		{"layer required", "sublayer:main", CodeLayerRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if err == nil {
				t.Fatalf("Parse(%q) expected error code %s, got nil", tc.raw, tc.code)
			}
			var refErr *Error
			if !asError(err, &refErr) {
				t.Fatalf("Parse(%q) error not *Error: %v", tc.raw, err)
			}
			if refErr.Code != tc.code {
				t.Fatalf("Parse(%q) code = %s, want %s", tc.raw, refErr.Code, tc.code)
			}
		})
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestRoundTrip(t *testing.T) {
	refs := []string{
		"layer:idle",
		"layer:idle/sublayer:main",
		"layer:idle/sublayer:main/section:jobs",
		"layer:idle/sublayer:main/section:jobs/element:xp-gated",
	}
	for _, ref := range refs {
		p, err := Parse(ref)
		if err != nil {
			t.Fatalf("Parse(%q): %v", ref, err)
		}
		if got := Format(p); got != ref {
			t.Fatalf("Format(Parse(%q)) = %q, want %q", ref, got, ref)
		}
	}
}

func TestNormalizeWhitespaceVariants(t *testing.T) {
	canonical := "layer:idle/sublayer:main/section:jobs"
	variants := []string{
		canonical,
		" layer:idle / sublayer:main / section:jobs ",
		"layer: idle/sublayer: main/section: jobs",
	}
	for _, v := range variants {
		got, err := Normalize(v)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", v, err)
		}
		if got != canonical {
			t.Fatalf("Normalize(%q) = %q, want %q", v, got, canonical)
		}
	}
}

func TestAncestors(t *testing.T) {
	got, err := Ancestors("layer:idle/sublayer:main/section:jobs/element:xp-gated")
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	want := []string{"layer:idle", "layer:idle/sublayer:main", "layer:idle/sublayer:main/section:jobs"}
	if len(got) != len(want) {
		t.Fatalf("Ancestors length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ancestors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChild(t *testing.T) {
	layer, err := Parse("layer:idle")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sub, err := Child(layer, "main")
	if err != nil {
		t.Fatalf("Child: %v", err)
	}
	if Format(sub) != "layer:idle/sublayer:main" {
		t.Fatalf("Child produced %q", Format(sub))
	}
}
