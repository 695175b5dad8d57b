package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "desync",
			code:    CodeDesync,
			wantMsg: "Live document out of sync with snapshot",
			wantCat: CategoryReconcile,
		},
		{
			name:    "root not found",
			code:    CodeRootNotFound,
			wantMsg: "Mount element not found",
			wantCat: CategoryMount,
		},
		{
			name:    "protocol error",
			code:    CodeUnknownOp,
			wantMsg: "Unknown patch operation",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "Z999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "a.html")
	if err.Message != `file "a.html" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeDesync).With("path", "[0 1]").With("op", "delete")
	want := "R001: Live document out of sync with snapshot path=[0 1] op=delete"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}

	wrapped := New(CodeArchiveWrite).Wrap(fmt.Errorf("disk full"))
	if !strings.HasSuffix(wrapped.Error(), ": disk full") {
		t.Errorf("Error() = %q, want wrapped cause suffix", wrapped.Error())
	}
}

func TestErrorIsMatchesCode(t *testing.T) {
	sentinel := New(CodeDesync)
	err := New(CodeDesync).With("path", "[3]")

	if !stderrors.Is(err, sentinel) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New(CodeOutsideRoot)) {
		t.Error("errors with different codes should not match")
	}

	outer := fmt.Errorf("dispatch: %w", err)
	if !stderrors.Is(outer, sentinel) {
		t.Error("wrapped error should still match sentinel")
	}
	if stderrors.Is(err, &Error{Message: "no code"}) {
		t.Error("code-less target should never match")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := New(CodeArchiveWrite).Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("Unwrap should expose the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeDesync) != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New(CodeUnknownOp)
	if FromError(orig, CodeDesync) != orig {
		t.Error("FromError should return an existing *Error unchanged")
	}

	wrapped := FromError(fmt.Errorf("bad"), CodeInvalidMessage)
	if wrapped.Code != CodeInvalidMessage || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestAttr(t *testing.T) {
	err := New(CodeDesync).With("index", 2)
	v, ok := err.Attr("index")
	if !ok || v != "2" {
		t.Errorf("Attr(index) = %q, %v", v, ok)
	}
	if _, ok := err.Attr("missing"); ok {
		t.Error("Attr(missing) should not be found")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeDesync).
		With("path", "[0 2]").
		With("op", "delete").
		WithSuggestion("Remount the session")

	out := err.Format()
	for _, want := range []string{
		"ERROR R001: Live document out of sync with snapshot",
		"path = [0 2]",
		"op   = delete",
		"Hint: Remount the session",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeDesync).With("path", "[1]").Wrap(fmt.Errorf("no child"))

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if got["code"] != CodeDesync {
		t.Errorf("code = %v", got["code"])
	}
	if got["cause"] != "no child" {
		t.Errorf("cause = %v", got["cause"])
	}
	attrs, _ := got["attrs"].(map[string]any)
	if attrs["path"] != "[1]" {
		t.Errorf("attrs = %v", got["attrs"])
	}
}

func TestFprintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	FprintError(&buf, fmt.Errorf("outer: %w", New(CodeRootNotFound)))
	if !strings.Contains(buf.String(), "R003") {
		t.Errorf("expected structured output, got %q", buf.String())
	}

	buf.Reset()
	FprintError(&buf, fmt.Errorf("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("expected plain output, got %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}

func TestRegistry(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has incomplete template %+v", code, tmpl)
		}
	}

	Register("X001", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	if New("X001").Message != "custom" {
		t.Error("registered template not used")
	}
}
