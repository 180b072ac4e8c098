// ABOUTME: Tests for markdown-to-HTML rendering and the sha256-keyed cache.
// ABOUTME: Covers heading conversion, raw HTML handling, cache hits, expiry, and clearing.
package render

import (
	"strings"
	"testing"
	"time"
)

func TestToHTML(t *testing.T) {
	r := New()

	out := r.ToHTML("# Plan\n\nsome *emphasis*\n")
	if !strings.Contains(out, "<h1>Plan</h1>") {
		t.Errorf("output missing heading: %q", out)
	}
	if !strings.Contains(out, "<em>emphasis</em>") {
		t.Errorf("output missing emphasis: %q", out)
	}
}

func TestToHTMLDoesNotPassRawHTML(t *testing.T) {
	r := New()

	out := r.ToHTML("before <script>alert(1)</script> after")
	if strings.Contains(out, "<script>") {
		t.Errorf("raw HTML passed through: %q", out)
	}
}

func TestCacheHit(t *testing.T) {
	c := NewCache(New(), time.Minute)

	first := c.ToHTML("# Title")
	second := c.ToHTML("# Title")
	if first != second {
		t.Error("cache returned different output for same input")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.ToHTML("# Other")
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(New(), time.Nanosecond)

	c.ToHTML("# Title")
	time.Sleep(time.Millisecond)
	c.ToHTML("# Title")

	// Still one entry; the expired one was overwritten, not duplicated.
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(New(), time.Minute)
	c.ToHTML("# Title")
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Clear", c.Len())
	}
}
