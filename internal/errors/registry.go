package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

const (
	CodeResourceLoad     = "P001"
	CodeRender           = "P002"
	CodeMissingContainer = "P003"
	CodeDeniedOperation  = "P004"
	CodeStateKeyDenied   = "P005"
	CodeResponseSent     = "P006"
	CodeConfigInvalid    = "P007"
)

// Sentinels for errors.Is. They match any PageError with the same code.
var (
	ErrResourceLoad     = &PageError{Code: CodeResourceLoad}
	ErrRender           = &PageError{Code: CodeRender}
	ErrMissingContainer = &PageError{Code: CodeMissingContainer}
	ErrDeniedOperation  = &PageError{Code: CodeDeniedOperation}
	ErrStateKeyDenied   = &PageError{Code: CodeStateKeyDenied}
	ErrResponseSent     = &PageError{Code: CodeResponseSent}
	ErrConfigInvalid    = &PageError{Code: CodeConfigInvalid}
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodeResourceLoad: {
		Category: CategoryResource,
		Message:  "Page resource failed to load",
		Detail:   "A pending resource returned by load() or update() was rejected. Retries belong to the loader that produced it.",
	},
	CodeRender: {
		Category: CategoryRender,
		Message:  "Page render failed",
		Detail:   "The view could not be rendered to markup or into the live document.",
	},
	CodeMissingContainer: {
		Category: CategoryEnvironment,
		Message:  "Page container not found",
		Detail:   "The live document has no element with the configured container ID.",
	},
	CodeDeniedOperation: {
		Category: CategoryEnvironment,
		Message:  "Operation not available in this environment",
		Detail:   "The server renderer supports a single render pass per request; update() and setState() are client-only.",
	},
	CodeStateKeyDenied: {
		Category: CategoryState,
		Message:  "State key not allowed for extension",
		Detail:   "Extensions may only write the state keys they declare in AllowedStateKeys().",
	},
	CodeResponseSent: {
		Category: CategoryEnvironment,
		Message:  "Response already sent",
		Detail:   "The response for this request was already written.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file or environment contains an invalid value.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
