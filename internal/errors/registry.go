package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Fetch Errors (Q001-Q099)
	// ============================================

	"Q001": {
		Category: CategoryFetch,
		Message:  "Fetch operation failed",
		Detail:   "The injected fetch operation returned an error. The error is kept as state and cleared by the next trigger.",
	},
	"Q002": {
		Category: CategoryFetch,
		Message:  "Stale fetch result",
		Detail:   "A fetch settled after a newer trigger or a cancel. Its result was discarded.",
	},
	"Q003": {
		Category: CategoryFetch,
		Message:  "Event loop closed",
		Detail:   "The session event loop has stopped and no longer accepts work.",
	},

	// ============================================
	// Config Errors (Q100-Q199)
	// ============================================

	"Q100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "Neither querybind.json nor querybind.toml exists in the directory.",
	},
	"Q101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration failed validation.",
	},
	"Q102": {
		Category: CategoryConfig,
		Message:  "Configuration parse error",
		Detail:   "The configuration file could not be parsed.",
	},

	// ============================================
	// Query Errors (Q200-Q299)
	// ============================================

	"Q200": {
		Category: CategoryQuery,
		Message:  "Missing query parameter name",
		Detail:   "A query parameter name is required.",
	},

	// ============================================
	// Server Errors (Q300-Q399)
	// ============================================

	"Q300": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		Detail:   "The HTTP listener could not be started.",
	},

	// ============================================
	// CLI Errors (Q400-Q499)
	// ============================================

	"Q400": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with invalid arguments.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
