package indexer

import "regexp"

var (
	packagePattern = regexp.MustCompile(`(?m)^\s*package\s+([\w.]+)\s*;`)
	importPattern  = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`)

	// classPattern matches a type declaration up to its opening brace.
	// Groups: 1 kind, 2 simple name.
	classPattern = regexp.MustCompile(
		`\b(?:(?:public|protected|private|abstract|final|static|sealed|non-sealed|strictfp)\s+)*` +
			`(class|interface|enum|record)\s+(\w+)` +
			`(?:\s*<[^{;()]*>)?` +
			`(?:\s*\([^)]*\))?` +
			`[^{;()]*\{`)

	// methodPattern matches a method declaration up to its opening brace,
	// without leading annotations. Groups: 1 return type, 2 name, 3 params.
	methodPattern = regexp.MustCompile(
		`\b(?:(?:public|private|protected|static|final|abstract|synchronized|native|default|strictfp)\s+)*` +
			`(?:<[^<>]*(?:<[^<>]*>[^<>]*)*>\s+)?` +
			`([\w.$]+(?:\s*<[^;{}()=]*>)?(?:\s*\[\s*\])*)\s+` +
			`(\w+)\s*` +
			`\(((?:[^()]|\([^()]*\))*)\)\s*` +
			`(?:throws\s+[\w.$<>,\s]+?)?\s*\{`)

	// fieldPattern matches a class-level field declaration starting at the
	// beginning of a line. Groups: 1 full declaration, 2 type, 3 name.
	fieldPattern = regexp.MustCompile(
		`(?m)^[ \t]*(` +
			`(?:@\w+(?:\s*\([^)]*\))?\s+)*` +
			`(?:(?:public|private|protected|static|final|transient|volatile)\s+)*` +
			`([\w.$]+(?:\s*<[^;{}()=]*>)?(?:\s*\[\s*\])*)\s+` +
			`(\w+)\s*(?:=[^;]*)?;)`)

	annotationPattern = regexp.MustCompile(`@\w+(?:\.\w+)*(?:\s*\((?:[^()]|\([^()]*\))*\))?`)

	identifierPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
	spacePattern      = regexp.MustCompile(`\s+`)
	blankRunPattern   = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// statementWords cannot name a method; a match on them is control flow.
var statementWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"synchronized": true, "return": true, "new": true, "else": true,
	"try": true, "do": true, "super": true, "this": true, "throw": true,
	"case": true, "assert": true,
}

// nonTypeWords cannot start a return or field type.
var nonTypeWords = map[string]bool{
	"else": true, "return": true, "new": true, "throw": true, "case": true,
	"do": true, "try": true, "yield": true, "package": true, "import": true,
	"extends": true, "implements": true, "instanceof": true, "break": true,
	"continue": true, "goto": true, "assert": true, "class": true,
	"interface": true, "enum": true, "record": true,
}
