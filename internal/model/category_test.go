package model

import "testing"

func TestParseCategory(t *testing.T) {
	tests := map[string]struct {
		label string
		want  Category
	}{
		"empty":               {label: "", want: CategoryNone},
		"outdated lower":      {label: "outdated", want: CategoryOutdated},
		"outdated title":      {label: "Outdated", want: CategoryOutdated},
		"outdated upper":      {label: "OUTDATED", want: CategoryOutdated},
		"unsupported mixed":   {label: "UnSupported", want: CategoryUnsupported},
		"surrounding spaces":  {label: "  Unsupported\n", want: CategoryUnsupported},
		"other badge":         {label: "Beta", want: CategoryNone},
		"substring not match": {label: "outdated-ish", want: CategoryNone},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ParseCategory(tt.label); got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range AllCategories() {
		if !c.IsValid() {
			t.Errorf("AllCategories() returned invalid category %q", c)
		}
	}
	if Category("beta").IsValid() {
		t.Error(`Category("beta").IsValid() = true, want false`)
	}
}
