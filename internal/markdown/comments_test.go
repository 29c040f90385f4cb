package markdown

import (
	"strings"
	"testing"
)

func TestCleanWithExceptions(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "escapes disallowed tags",
			input: "hello <script>alert(1)</script>",
			want:  "hello &lt;script&gt;alert(1)&lt;/script&gt;",
		},
		{
			name:  "keeps inline allowlist",
			input: "a <b>bold</b> and <em>soft</em> word",
			want:  "a <b>bold</b> and <em>soft</em> word",
		},
		{
			name:  "keeps blockquote markers",
			input: "> quoted <div>x</div>\nplain",
			want:  "> quoted &lt;div&gt;x&lt;/div&gt;\nplain",
		},
		{
			name:  "protects fenced code",
			input: "before\n```html\n<div class=\"x\">y</div>\n```\nafter <i>it</i>",
			want:  "before\n```html\n<div class=\"x\">y</div>\n```\nafter <i>it</i>",
		},
		{
			name:  "filters attributes and unsafe links",
			input: `<a href="javascript:alert(1)" onclick="x" title="t">hi</a>`,
			want:  `<a title="t">hi</a>`,
		},
		{
			name:  "keeps safe links",
			input: `<a href="https://example.com">ok</a>`,
			want:  `<a href="https://example.com">ok</a>`,
		},
		{
			name:  "drops html comments",
			input: "a<!-- hidden -->b",
			want:  "ab",
		},
		{
			name:  "placeholder text disables exceptions",
			input: "___CODEBLOCK0___ <i>x</i> <div>",
			want:  "___CODEBLOCK0___ <i>x</i> &lt;div&gt;",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanWithExceptions(tc.input); got != tc.want {
				t.Fatalf("CleanWithExceptions(%q)\n got: %q\nwant: %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCleanWithExceptionsFullyCleansForgedQuotes(t *testing.T) {
	got := CleanWithExceptions("___BLOCKQUOTE___<img src=x onerror=alert(1)>")
	if strings.Contains(got, "<img") {
		t.Fatalf("expected img to be escaped, got %q", got)
	}
}

func TestShiftHeadings(t *testing.T) {
	input := `<h1 id="a">A</h1><h2 class="x">B</h2><h3>C</h3><H4>D</H4><h5>E</h5><h6>F</h6>`
	want := `<h3>A</h3><h4>B</h4><h5>C</h5><h6>D</h6><h6>E</h6><h6>F</h6>`
	if got := ShiftHeadings(input); got != want {
		t.Fatalf("ShiftHeadings\n got: %s\nwant: %s", got, want)
	}
}

func TestSanitizeComment(t *testing.T) {
	input := `<p onclick="steal()" class="lead">hi</p>` +
		`<script>alert(1)</script>` +
		`<a href="javascript:alert(1)">bad</a>` +
		`<a href="https://example.com" target="_blank">good</a>` +
		`<iframe src="https://evil.test"></iframe>` +
		`<img src="/a.png" alt="a" loading="lazy" onerror="x">` +
		`<mark>m</mark>`

	got := SanitizeComment(input)

	for _, banned := range []string{"onclick", "<script", "javascript:", "<iframe", "onerror"} {
		if strings.Contains(got, banned) {
			t.Fatalf("sanitized output contains %q: %s", banned, got)
		}
	}
	for _, kept := range []string{`class="lead"`, `href="https://example.com"`, `loading="lazy"`, "<mark>m</mark>"} {
		if !strings.Contains(got, kept) {
			t.Fatalf("sanitized output lost %q: %s", kept, got)
		}
	}
}
