package session

import (
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// MarkupDiff renders a character diff from want to got. Inserted text is
// shown as {+text+} and deleted text as [-text-]. Equal markup yields "".
func MarkupDiff(want, got string) string {
	if want == got {
		return ""
	}
	dmp := diffpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(d.Text)
			b.WriteString("+}")
		case diffpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
