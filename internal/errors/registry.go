package errors

// Template is a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Render (E001-E019)

	"E001": {
		Category: CategoryRender,
		Message:  "Render pass failed",
		Detail:   "The render target rejected a mutation. The root was reset and the next pass rebuilds it from scratch.",
	},
	"E002": {
		Category: CategoryRender,
		Message:  "Render loop",
		Detail:   "Every pass requested another one. A component is notifying its root unconditionally while it renders.",
	},
	"E003": {
		Category: CategoryRender,
		Message:  "Reentrant render",
		Detail:   "A component called Render on its own root. Call Notify instead to schedule a follow-up pass.",
	},
	"E004": {
		Category: CategoryRender,
		Message:  "Disposal incomplete",
		Detail:   "The pass took effect but some event listeners of discarded nodes could not be removed.",
	},
	"E005": {
		Category: CategoryRender,
		Message:  "Component failed",
		Detail:   "The component panicked or returned no snapshot.",
	},

	// Snapshot files (E100-E119)

	"E100": {
		Category: CategorySnapshot,
		Message:  "Cannot read snapshot file",
	},
	"E101": {
		Category: CategorySnapshot,
		Message:  "Invalid snapshot syntax",
		Detail:   "Snapshot files are YAML documents. JSON is accepted as well.",
	},
	"E102": {
		Category: CategorySnapshot,
		Message:  "Element without a tag",
		Detail:   "A mapping describes an element only when it has a tag key, or a text node when it has a text key.",
	},
	"E103": {
		Category: CategorySnapshot,
		Message:  "Unsupported node",
		Detail:   "Nodes are strings, numbers, lists, null, false or mappings with a tag or text key.",
	},
	"E104": {
		Category: CategorySnapshot,
		Message:  "Invalid attribute value",
		Detail:   "Attribute values are strings, numbers or booleans. true renders the bare attribute and false omits it.",
	},

	// Config (E120-E139)

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Port must be between 0 and 65535.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid log setting",
		Detail:   "log.level is one of debug, info, warn or error and log.format is text or json.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid render setting",
		Detail:   "render.maxPasses must be positive.",
	},
	"E125": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
	},

	// Export (E140-E159)

	"E140": {
		Category: CategoryExport,
		Message:  "Invalid export destination",
		Detail:   "Destinations have the form s3://bucket/prefix.",
	},
	"E141": {
		Category: CategoryExport,
		Message:  "Upload failed",
	},

	// Server and CLI (E160-E179)

	"E160": {
		Category: CategoryServer,
		Message:  "Server failed",
	},
	"E161": {
		Category: CategoryCLI,
		Message:  "Unknown demo",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns the number of registered codes.
func Codes() int {
	return len(registry)
}
