package codegen

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TimestampFormat is RFC 3339 with a numeric offset, so UTC renders as +00:00.
const TimestampFormat = "2006-01-02T15:04:05.999999999-07:00"

const indent = "    "

// Options selects optional parts of the generated file.
type Options struct {
	// Display adds a std::fmt::Display implementation returning each
	// variant's display name.
	Display bool
}

// Generate renders spec as a Rust source file stamped with now (in UTC).
// Output depends only on its arguments.
func Generate(spec *EnumSpec, opts Options, now time.Time) (code string, err error) {
	err = validate(spec)
	if err != nil {
		return code, err
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("// Generated at %s\n", now.UTC().Format(TimestampFormat)))
	sb.WriteString("\n")

	writeEnum(&sb, spec)

	if opts.Display {
		sb.WriteString("\n")
		writeDisplay(&sb, spec)
	}

	code = sb.String()
	return code, err
}

func validate(spec *EnumSpec) (err error) {
	if spec == nil {
		err = errors.New("enum spec is nil")
		return err
	}

	if spec.Name == "" {
		err = errors.New("enum name is empty")
		return err
	}

	if !IsValidVisibility(spec.Visibility) {
		err = errors.Errorf("invalid visibility %q", spec.Visibility)
		return err
	}

	for i, v := range spec.Variants {
		if v.Name == "" {
			err = errors.Errorf("variant %d (%q) of enum %s has an empty name", i, v.DisplayName, spec.Name)
			return err
		}
	}

	return err
}

// writeEnum writes the derive attribute, the enum declaration and its variants.
func writeEnum(sb *strings.Builder, spec *EnumSpec) {
	if len(spec.Derives) > 0 {
		sb.WriteString(fmt.Sprintf("#[derive(%s)]\n", strings.Join(spec.Derives, ", ")))
	}

	if spec.Visibility != "" {
		sb.WriteString(spec.Visibility + " ")
	}
	if len(spec.Variants) == 0 {
		sb.WriteString(fmt.Sprintf("enum %s {}\n", spec.Name))
		return
	}
	sb.WriteString(fmt.Sprintf("enum %s {\n", spec.Name))

	for _, v := range spec.Variants {
		if len(v.Docs) > 0 {
			writeVariantDocs(sb, v)
		}
		sb.WriteString(fmt.Sprintf("%s%s,\n", indent, v.Name))
	}

	sb.WriteString("}\n")
}

// writeVariantDocs writes the doc block:
//
//	/// ## <title>
//	///
//	/// <paragraph>
//	///
//	/// Link to record: <url>
func writeVariantDocs(sb *strings.Builder, v Variant) {
	writeDocLines(sb, "## "+v.DisplayName)
	writeDocLines(sb, "")

	for i, paragraph := range v.Docs {
		if i > 0 {
			writeDocLines(sb, "")
		}
		writeDocLines(sb, paragraph)
	}

	writeDocLines(sb, "")
	writeDocLines(sb, "Link to record: "+v.URL)
}

// writeDocLines writes text as /// lines, one per embedded line break.
func writeDocLines(sb *strings.Builder, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			sb.WriteString(indent + "///\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("%s/// %s\n", indent, line))
	}
}

// writeDisplay writes an exhaustive Display impl, one match arm per variant.
func writeDisplay(sb *strings.Builder, spec *EnumSpec) {
	sb.WriteString(fmt.Sprintf("impl std::fmt::Display for %s {\n", spec.Name))
	sb.WriteString(indent + "fn fmt(&self, f: &mut std::fmt::Formatter) -> std::fmt::Result {\n")
	if len(spec.Variants) == 0 {
		sb.WriteString(indent + indent + "match *self {}\n")
		sb.WriteString(indent + "}\n")
		sb.WriteString("}\n")
		return
	}

	sb.WriteString(indent + indent + "match self {\n")

	for _, v := range spec.Variants {
		sb.WriteString(fmt.Sprintf("%sSelf::%s => f.write_str(%s),\n",
			strings.Repeat(indent, 3), v.Name, QuoteString(v.DisplayName)))
	}

	sb.WriteString(indent + indent + "}\n")
	sb.WriteString(indent + "}\n")
	sb.WriteString("}\n")
}
