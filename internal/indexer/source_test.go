package indexer

import (
	"strings"
	"testing"
)

func TestBlockEnd(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int // -1, or -2 meaning len(src)
	}{
		{"nested", "void a() { if (x) { y(); } } tail", len("void a() { if (x) { y(); } }")},
		{"brace in string", `void a() { String s = "}"; }`, -2},
		{"escaped quote", `void a() { String s = "\"}"; }`, -2},
		{"brace in char", `void a() { char c = '{'; }`, -2},
		{"line comment", "void a() { // }\n }", -2},
		{"block comment", "void a() { /* } */ }", -2},
		{"text block", "void a() { String s = \"\"\"\n}\n\"\"\"; }", -2},
		{"unclosed", "void a() { {", -1},
		{"no brace", "int x;", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.want
			if want == -2 {
				want = len(tt.src)
			}
			if got := NewSource(tt.src).BlockEnd(0); got != want {
				t.Errorf("BlockEnd() = %d, want %d", got, want)
			}
		})
	}
}

func TestBlockEnd_StartOffset(t *testing.T) {
	src := "class A { void b() { } }"
	s := NewSource(src)

	if got := s.BlockEnd(0); got != len(src) {
		t.Errorf("class BlockEnd = %d, want %d", got, len(src))
	}
	want := strings.Index(src, "{ } }") + 3
	if got := s.BlockEnd(strings.Index(src, "void")); got != want {
		t.Errorf("method BlockEnd = %d, want %d", got, want)
	}
}

func TestLeadingTrivia(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		wantAt string // substring where the trivia starts; "" means the declaration itself
	}{
		{
			name:   "javadoc comment and annotation",
			src:    "package a;\n\nimport b.C;\n\n/**\n * Doc.\n */\n// note\n@Service\npublic class A {\n}\n",
			wantAt: "/**",
		},
		{
			name:   "blank lines only",
			src:    "package a;\n\nimport b.C;\n\npublic class A {\n}\n",
			wantAt: "",
		},
		{
			name:   "same line annotation",
			src:    "package a;\n@Service public class A {\n}\n",
			wantAt: "@Service",
		},
		{
			name:   "block comment after code stops",
			src:    "package a; /* trailing */\npublic class A {\n}\n",
			wantAt: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := strings.Index(tt.src, "public class")
			want := decl
			if tt.wantAt != "" {
				want = strings.Index(tt.src, tt.wantAt)
			}
			if got := NewSource(tt.src).LeadingTrivia(decl); got != want {
				t.Errorf("LeadingTrivia() = %d (%q), want %d", got, tt.src[got:decl], want)
			}
		})
	}
}

func TestAnnotationStart(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		wantAt string
	}{
		{
			name:   "stacked annotations after field",
			src:    "    private Dao dao;\n\n    @Override\n    @Transactional(readOnly = true)\n    public void run() {\n    }\n",
			wantAt: "@Override",
		},
		{
			name:   "email in comment is not an annotation",
			src:    "    // by bob@corp.com\n    public void run() {\n    }\n",
			wantAt: "",
		},
		{
			name:   "javadoc tag is not an annotation",
			src:    "    /**\n     * @param x the x\n     */\n    public void run(int x) {\n    }\n",
			wantAt: "",
		},
		{
			name:   "previous method annotation is not reused",
			src:    "    @Test\n    void a() {\n    }\n    public void run() {\n    }\n",
			wantAt: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := strings.Index(tt.src, "public void run")
			want := decl
			if tt.wantAt != "" {
				want = strings.Index(tt.src, tt.wantAt)
			}
			if got := NewSource(tt.src).AnnotationStart(decl); got != want {
				t.Errorf("AnnotationStart() = %d, want %d", got, want)
			}
		})
	}
}

func TestLineAndInLiteral(t *testing.T) {
	src := "a\nb // c\nd"
	s := NewSource(src)

	if got := s.Line(0); got != 1 {
		t.Errorf("Line(0) = %d, want 1", got)
	}
	if got := s.Line(strings.Index(src, "d")); got != 3 {
		t.Errorf("Line(d) = %d, want 3", got)
	}
	if !s.InLiteral(strings.Index(src, "c")) {
		t.Error("comment text should be inside a literal span")
	}
	if s.InLiteral(strings.Index(src, "b")) {
		t.Error("code should not be inside a literal span")
	}
}
