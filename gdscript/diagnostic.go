package gdscript

// DiagnosticType classifies which pipeline stage produced a diagnostic.
type DiagnosticType string

const (
	ParserError   DiagnosticType = "parser_error"
	AnalyzerError DiagnosticType = "analyzer_error"
	CompilerError DiagnosticType = "compiler_error"
	FileError     DiagnosticType = "file_error"
	Info          DiagnosticType = "info"
)

// Diagnostic is one line-addressed finding. Immutable once created.
type Diagnostic struct {
	Type    DiagnosticType `json:"type"`
	Line    int            `json:"line"`
	Column  int            `json:"column"`
	Message string         `json:"message"`
}
