package resolve

import (
	"reflect"
	"testing"

	"github.com/dumpty-dev/dumpty/internal/manifest"
)

func TestSelectCategoriesDedupesAndSorts(t *testing.T) {
	sel := SelectCategories([]string{"review", "development", "review", ""})
	if sel.All {
		t.Error("All = true")
	}
	want := []string{"development", "review"}
	if !reflect.DeepEqual(sel.Categories, want) {
		t.Errorf("Categories = %v, want %v", sel.Categories, want)
	}
}

func TestIncludes(t *testing.T) {
	cases := []struct {
		name string
		sel  Selection
		cats []string
		want bool
	}{
		{"all includes categorized", SelectAll(), []string{"dev"}, true},
		{"all includes universal", SelectAll(), nil, true},
		{"universal always included", SelectCategories([]string{"review"}), nil, true},
		{"empty list is universal", SelectCategories([]string{"review"}), []string{}, true},
		{"matching category", SelectCategories([]string{"dev"}), []string{"dev", "ops"}, true},
		{"no overlap", SelectCategories([]string{"review"}), []string{"dev"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sel.Includes(tc.cats); got != tc.want {
				t.Errorf("Includes(%v) = %v, want %v", tc.cats, got, tc.want)
			}
		})
	}
}

func TestResolveSelection(t *testing.T) {
	defined := []manifest.Category{{Name: "dev"}, {Name: "review"}}

	cases := []struct {
		name        string
		defined     []manifest.Category
		flagAll     bool
		flagCats    []string
		interactive bool
		wantAll     bool
		wantCats    []string
		wantPrompt  bool
	}{
		{"flag all wins", defined, true, []string{"dev"}, true, true, nil, false},
		{"explicit categories", defined, false, []string{"dev"}, true, false, []string{"dev"}, false},
		{"no categories defined", nil, false, nil, true, true, nil, false},
		{"non-interactive defaults to all", defined, false, nil, false, true, nil, false},
		{"interactive with categories prompts", defined, false, nil, true, false, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel, prompt := ResolveSelection(tc.defined, tc.flagAll, tc.flagCats, tc.interactive)
			if prompt != tc.wantPrompt {
				t.Fatalf("needPrompt = %v, want %v", prompt, tc.wantPrompt)
			}
			if tc.wantPrompt {
				return
			}
			if sel.All != tc.wantAll {
				t.Errorf("All = %v, want %v", sel.All, tc.wantAll)
			}
			if !reflect.DeepEqual(sel.Categories, tc.wantCats) {
				t.Errorf("Categories = %v, want %v", sel.Categories, tc.wantCats)
			}
		})
	}
}
