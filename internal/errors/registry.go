package errors

// Registered error codes.
const (
	CodeDesync            = "R001"
	CodeOutsideRoot       = "R002"
	CodeRootNotFound      = "R003"
	CodeReentrantDispatch = "R004"
	CodeDispatchBusy      = "R005"
	CodeNoUpdater         = "R006"
	CodeUnmounted         = "R007"
	CodeMarkup            = "R008"
	CodeDispatchPanic     = "R009"

	CodeInvalidMessage = "P001"
	CodeUnknownOp      = "P002"
	CodeUnknownFrame   = "P003"
	CodeInvalidPath    = "P004"

	CodeInvalidConfig = "C001"
	CodeMissingConfig = "C002"

	CodeArchiveWrite    = "A001"
	CodeArchiveNotFound = "A002"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconcile Errors (R001-R099)
	// ============================================

	CodeDesync: {
		Category: CategoryReconcile,
		Message:  "Live document out of sync with snapshot",
		Detail:   "A patch addressed a node that does not exist in the live document. The stored snapshot no longer describes the document, so the dispatch was aborted.",
	},
	CodeOutsideRoot: {
		Category: CategoryReconcile,
		Message:  "Event target outside mounted tree",
		Detail:   "Walking parent links from the event target never reached the mount element.",
	},
	CodeReentrantDispatch: {
		Category: CategoryReconcile,
		Message:  "Re-entrant dispatch",
		Detail:   "An event was dispatched while another dispatch on the same session was still running. Handlers must not dispatch events synchronously.",
	},
	CodeDispatchBusy: {
		Category: CategoryReconcile,
		Message:  "Dispatch in progress",
		Detail:   "Session state is owned by the running dispatch and cannot be read until it completes.",
	},
	CodeNoUpdater: {
		Category: CategoryReconcile,
		Message:  "Handler returned a message but component has no Update method",
		Detail:   "Handlers that return a message require the root component to implement vdom.Updater.",
	},
	CodeMarkup: {
		Category: CategoryReconcile,
		Message:  "Markup did not produce exactly one node",
		Detail:   "Replacement and inserted content must serialize to a single node.",
	},
	CodeDispatchPanic: {
		Category: CategoryReconcile,
		Message:  "Handler or render panicked",
		Detail:   "The dispatch was aborted. The live document and stored snapshot are unchanged.",
	},

	// ============================================
	// Mount Errors (R003, R007)
	// ============================================

	CodeRootNotFound: {
		Category: CategoryMount,
		Message:  "Mount element not found",
		Detail:   "No element with the given id exists in the document. Nothing was mounted.",
	},
	CodeUnmounted: {
		Category: CategoryMount,
		Message:  "Session unmounted",
		Detail:   "The session was unmounted and no longer owns a live document.",
	},

	// ============================================
	// Protocol Errors (P001-P099)
	// ============================================

	CodeInvalidMessage: {
		Category: CategoryProtocol,
		Message:  "Invalid message format",
		Detail:   "The received message could not be decoded.",
	},
	CodeUnknownOp: {
		Category: CategoryProtocol,
		Message:  "Unknown patch operation",
		Detail:   "The patch operation is not one of replace, insert, delete or update_attributes.",
	},
	CodeUnknownFrame: {
		Category: CategoryProtocol,
		Message:  "Unknown frame type",
		Detail:   "The frame type is not recognized.",
	},
	CodeInvalidPath: {
		Category: CategoryProtocol,
		Message:  "Invalid path",
		Detail:   "Paths are sequences of non-negative child indices.",
	},

	// ============================================
	// Configuration Errors (C001-C099)
	// ============================================

	CodeInvalidConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file is malformed or holds an invalid value.",
	},
	CodeMissingConfig: {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
		Detail:   "A required configuration value is not set.",
	},

	// ============================================
	// Archive Errors (A001-A099)
	// ============================================

	CodeArchiveWrite: {
		Category: CategoryArchive,
		Message:  "Archive write failed",
		Detail:   "The dispatch record could not be stored.",
	},
	CodeArchiveNotFound: {
		Category: CategoryArchive,
		Message:  "Archive record not found",
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
