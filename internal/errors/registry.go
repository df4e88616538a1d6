package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Kind     error
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Argument Errors (E001-E009)
	// ============================================

	"E001": {
		Category: CategoryArgument,
		Kind:     ErrInvalidArgument,
		Message:  "Expected the listener to be a function",
		Detail:   "Subscribe requires a non-nil listener taking no arguments.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E001",
	},
	"E002": {
		Category: CategoryArgument,
		Kind:     ErrInvalidArgument,
		Message:  "Expected the limiter factory to be a function",
		Detail:   "Every declared channel needs a limiter factory that receives the flush trigger and returns the gated dispatch.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E002",
	},
	"E003": {
		Category: CategoryArgument,
		Kind:     ErrInvalidArgument,
		Message:  "Expected the observer to be an object",
		Detail:   "Observable.Subscribe requires a non-nil *Observer. Its Next callback is optional.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E003",
	},
	"E004": {
		Category: CategoryArgument,
		Kind:     ErrInvalidArgument,
		Message:  "Invalid action",
		Detail:   "Actions must carry a non-empty type. Batches and envelopes must not contain nil messages.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E004",
	},
	"E005": {
		Category: CategoryArgument,
		Kind:     ErrInvalidArgument,
		Message:  "Expected the reducer to be a function",
		Detail:   "The container needs a non-nil reducer.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E005",
	},

	// ============================================
	// Channel Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategoryChannel,
		Kind:     ErrUnknownChannel,
		Message:  "Invalid channel",
		Detail:   "Channels are declared once when the store is created. Dispatching to or clearing a channel that was never declared is rejected and nothing is queued.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E010",
	},

	// ============================================
	// Reentrancy Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategoryReentrancy,
		Kind:     ErrIllegalReentrantCall,
		Message:  "You may not call Subscribe while the reducer is executing",
		Detail:   "If you would like to be notified after the store has been updated, subscribe from outside the reducer and read GetState in the listener.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E020",
	},
	"E021": {
		Category: CategoryReentrancy,
		Kind:     ErrIllegalReentrantCall,
		Message:  "You may not unsubscribe from a store listener while the reducer is executing",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E021",
	},
	"E022": {
		Category: CategoryReentrancy,
		Kind:     ErrIllegalReentrantCall,
		Message:  "Reducers may not dispatch actions",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E022",
	},

	// ============================================
	// Protocol Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryProtocol,
		Kind:     ErrInvalidArgument,
		Message:  "Malformed message",
		Detail:   "Wire messages are a plain action object with a \"type\", an array of messages, or a {\"kind\":\"BATCH\"} envelope.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E040",
	},
	"E041": {
		Category: CategoryProtocol,
		Message:  "Message too large",
		Detail:   "Dispatch request bodies are limited to 1 MiB.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E041",
	},

	// ============================================
	// Config Errors (E050-E059)
	// ============================================

	"E050": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or failed validation.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E050",
	},
	"E051": {
		Category: CategoryConfig,
		Message:  "Unknown limiter kind",
		Detail:   "Channel kinds are throttle, debounce, budget and immediate.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E051",
	},

	// ============================================
	// CLI Errors (E060-E069)
	// ============================================

	"E060": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E060",
	},
	"E061": {
		Category: CategoryCLI,
		Message:  "Request failed",
		Detail:   "The batchstore server rejected the request or could not be reached.",
		DocURL:   "https://vango.dev/docs/batchstore/errors/E061",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
