package indexer

import (
	"reflect"
	"testing"
)

func TestParamTypes(t *testing.T) {
	tests := []struct {
		params string
		want   []string
	}{
		{"String name, int limit", []string{"String", "int"}},
		{"", nil},
		{"  ", nil},
		{"final @Valid List<User> users, Map<String,List<Long>> index", []string{"List<User>", "Map<String, List<Long>>"}},
		{"String... args", []string{"String..."}},
		{"int values[]", []string{"int[]"}},
		{`@RequestParam(value = "id", required = false) Long id`, []string{"Long"}},
		{"java.util.Map.Entry<K, V> e", []string{"java.util.Map.Entry<K, V>"}},
		{"String", []string{"String"}},
	}

	for _, tt := range tests {
		t.Run(tt.params, func(t *testing.T) {
			if got := ParamTypes(tt.params); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParamTypes(%q) = %#v, want %#v", tt.params, got, tt.want)
			}
		})
	}
}

func TestExtractMethods_SignatureStripping(t *testing.T) {
	src := NewSource("public List<User> findAll(String name, int limit) {\n    return null;\n}\n")

	methods := ExtractMethods(src)
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods))
	}
	if methods[0].Signature != "findAll(String, int)" {
		t.Errorf("Signature = %q, want findAll(String, int)", methods[0].Signature)
	}
	if methods[0].Name != "findAll" {
		t.Errorf("Name = %q, want findAll", methods[0].Name)
	}
}

func TestExtractMethods(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "throws clause",
			src:  "public void load(String path) throws IOException, SQLException {\n}\n",
			want: []string{"load(String)"},
		},
		{
			name: "generic method",
			src:  "public <T extends Base> List<T> cast(Class<T> type) {\n    return null;\n}\n",
			want: []string{"cast(Class<T>)"},
		},
		{
			name: "control flow is not a method",
			src:  "void run() {\n    if (a) {\n    } else if (b) {\n    }\n}\n",
			want: []string{"run()"},
		},
		{
			name: "annotated parameter with arguments",
			src:  "public void handle(@Qualifier(\"x\") Dao dao) {\n}\n",
			want: []string{"handle(Dao)"},
		},
		{
			name: "anonymous class body is part of the method",
			src:  "public void start() {\n    executor.submit(new Runnable() {\n        public void run() {\n        }\n    });\n}\n",
			want: []string{"start()"},
		},
		{
			name: "commented out method",
			src:  "// public void old() {\npublic void current() {\n}\n",
			want: []string{"current()"},
		},
		{
			name: "constructor with modifier",
			src:  "public OrderService(Dao dao) {\n}\n",
			want: []string{"OrderService(Dao)"},
		},
		{
			name: "unclosed body",
			src:  "public void broken() {\n    if (x) {\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range ExtractMethods(NewSource(tt.src)) {
				got = append(got, m.Signature)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("signatures = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractMethods_LineRange(t *testing.T) {
	src := NewSource("class A {\n    @Override\n    public void run() {\n        go();\n    }\n}\n")

	methods := ExtractMethods(src)
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods))
	}
	m := methods[0]
	if m.StartLine != 2 || m.EndLine != 5 {
		t.Errorf("lines = %d-%d, want 2-5", m.StartLine, m.EndLine)
	}
	want := "@Override\n    public void run() {\n        go();\n    }"
	if m.Source != want {
		t.Errorf("Source = %q, want %q", m.Source, want)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Map<String,List< Long >>", "Map<String, List<Long>>"},
		{"Map<String, Long>", "Map<String, Long>"},
		{"int [ ]", "int[]"},
		{" List < User > ", "List<User>"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatJavaCode(t *testing.T) {
	in := "\n\npublic void a() {\n\n\n\n    x();\n}\n\n"
	want := "public void a() {\n\n    x();\n}"
	if got := FormatJavaCode(in); got != want {
		t.Errorf("FormatJavaCode() = %q, want %q", got, want)
	}
}
