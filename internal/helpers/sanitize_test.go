package helpers

import "testing"

func TestSanitizeHTMLStrict_RemovesTagsAndScripts(t *testing.T) {
	input := `<p>Hello <strong>world</strong><script>alert('x')</script></p>`
	got := SanitizeHTMLStrict(input)
	want := "Hello world"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPlainText_DecodesEntities(t *testing.T) {
	input := `<span class="searchmatch">Tom</span> &amp; Jerry`
	got := PlainText(input)
	want := "Tom & Jerry"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPlainText_Empty(t *testing.T) {
	if got := PlainText("   "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
