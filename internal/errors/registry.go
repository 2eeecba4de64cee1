package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Parse Errors (E100-E109)
	// ============================================

	"E100": {
		Category:   CategoryParse,
		Message:    "Markup parse made no progress",
		Suggestion: "Escape a literal '<' as &lt; or finish the tag",
	},
	"E101": {
		Category:   CategoryParse,
		Message:    "Raw-text element is never closed",
		Suggestion: "Add the matching </script> or </style> closing tag",
	},

	// ============================================
	// Selector Errors (E110-E119)
	// ============================================

	"E110": {
		Category:   CategorySelector,
		Message:    "Unterminated attribute selector",
		Suggestion: "Close the attribute filter with ']'",
	},
	"E111": {
		Category:   CategorySelector,
		Message:    "Empty selector in selector list",
		Suggestion: "Remove the stray comma",
	},
	"E112": {
		Category: CategorySelector,
		Message:  "Malformed compound selector",
	},
	"E113": {
		Category:   CategorySelector,
		Message:    "Unsupported pseudo-class",
		Suggestion: "Only :first-child, :last-child, :first-of-type and :last-of-type are supported",
	},

	// ============================================
	// Registry Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryRegistry,
		Message:  "Live handle already mirrored by another node",
	},
	"E121": {
		Category: CategoryRegistry,
		Message:  "Live handle not registered",
	},

	// ============================================
	// Host Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryHost,
		Message:  "Live document call failed",
	},

	// ============================================
	// Tree Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryTree,
		Message:  "Node is detached from its document",
	},
	"E141": {
		Category:   CategoryTree,
		Message:    "Replacement markup must contain exactly one top-level node",
		Suggestion: "Wrap the fragment in a single element or set the parent's inner HTML",
	},
	"E142": {
		Category: CategoryTree,
		Message:  "Node has no parent",
	},
	"E143": {
		Category: CategoryTree,
		Message:  "Operation not supported on this node kind",
	},

	// ============================================
	// Config Errors (E150-E159)
	// ============================================

	"E150": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create shadowdom.json or pass --config",
	},
	"E151": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that shadowdom.json is valid JSON",
	},
	"E152": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// Storage Errors (E160-E169)
	// ============================================

	"E160": {
		Category: CategoryStorage,
		Message:  "Snapshot not found",
	},
	"E161": {
		Category: CategoryStorage,
		Message:  "Snapshot backend failure",
	},
	"E162": {
		Category:   CategoryStorage,
		Message:    "Invalid snapshot name",
		Suggestion: "Use letters, digits, '.', '_' and '-' only",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
