// Package vtest provides testing helpers for components.
//
// The vtest package reduces boilerplate when testing components by
// mounting them into an in-memory document and driving events at paths.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, &Counter{})
//	    res := h.Click(0, 1)
//	    if len(res.Patches) != 1 {
//	        t.Fatalf("patches = %v", res.Patches)
//	    }
//	    h.ExpectMarkup("<div><span>Count</span><button>1</button></div>")
//	    h.ExpectInSync()
//	}
//
// # Render Assertions
//
// Assert on rendered HTML output without mounting:
//
//	vtest.ExpectContains(t, comp.Render(), "Welcome")
//	vtest.ExpectNotContains(t, comp.Render(), "Login")
package vtest
