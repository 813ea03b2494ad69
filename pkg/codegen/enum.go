// Package codegen renders an enum description to Rust source text.
package codegen

import (
	"strings"

	"github.com/nikogura/notion-enum/pkg/achievement"
)

// FileExtension is the extension of generated source files.
const FileExtension = "rs"

// Variant is one case of the generated enum.
type Variant struct {
	// Name is the variant identifier.
	Name string
	// DisplayName is the original title, used in docs and Display output.
	DisplayName string
	// Docs holds description paragraphs. A variant without any gets no doc comment.
	Docs []string
	// URL links back to the record. Only rendered alongside Docs.
	URL string
}

// EnumSpec describes the enum to generate. Variants are appended in input
// order and never reordered.
type EnumSpec struct {
	Name       string
	Visibility string
	Derives    []string
	Variants   []Variant
}

// NewEnumSpec creates an empty spec. Spaces are stripped from name; derives
// keep the given order, duplicates included.
func NewEnumSpec(name string, derives []string) (spec *EnumSpec) {
	spec = &EnumSpec{
		Name:    TypeName(name),
		Derives: append([]string(nil), derives...),
	}
	return spec
}

// TypeName strips spaces from a raw enum name.
func TypeName(name string) (typeName string) {
	typeName = strings.ReplaceAll(name, " ", "")
	return typeName
}

// AddVariant appends a variant.
func (s *EnumSpec) AddVariant(v Variant) {
	s.Variants = append(s.Variants, v)
}

// AddAchievements appends one variant per achievement, in order.
func (s *EnumSpec) AddAchievements(achievements []achievement.Achievement) {
	for _, a := range achievements {
		s.AddVariant(Variant{
			Name:        a.Identifier,
			DisplayName: a.DisplayName,
			Docs:        a.Description,
			URL:         a.URL,
		})
	}
}
