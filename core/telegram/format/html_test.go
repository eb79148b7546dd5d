package format

import "testing"

func TestCodeEscapes(t *testing.T) {
	got := Code(`<b>"x" & 'y'</b>`)
	want := "<code>&lt;b&gt;&#34;x&#34; &amp; &#39;y&#39;&lt;/b&gt;</code>"
	if got != want {
		t.Fatalf("Code = %q, want %q", got, want)
	}
}
