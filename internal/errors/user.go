package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Order matters: more specific errors come first because wrapped errors
// can match several sentinels.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Erasure
	// ===================
	{
		err: ErrPartialDestroy,
		info: ErrorInfo{
			Message: "File content was overwritten but the file could not be removed.",
			Action:  "Check directory permissions and remove the file manually. The attestation is recorded as PARTIAL.",
		},
	},
	{
		err: ErrNotFound,
		info: ErrorInfo{
			Message: "The file to erase does not exist.",
			Action:  "Check the path and try again. Nothing was recorded.",
		},
	},
	{
		err: ErrIO,
		info: ErrorInfo{
			Message: "A read or write on the target failed.",
			Action:  "Check disk health and permissions, then retry with a fresh erase.",
		},
	},

	// ===================
	// Keys & signatures
	// ===================
	{
		err: ErrStorage,
		info: ErrorInfo{
			Message: "The signing key could not be loaded or saved.",
			Action:  "Check the keys.path setting and its permissions. Do not regenerate the key unless you intend to rotate it.",
		},
	},
	{
		err: ErrSigning,
		info: ErrorInfo{
			Message: "The attestation could not be signed.",
			Action:  "Verify the signing key with 'wipecert keys show'.",
		},
	},
	{
		err: ErrFormat,
		info: ErrorInfo{
			Message: "The certificate or signature is malformed.",
			Action:  "Export the certificate again from the original source.",
		},
	},
	{
		err: ErrVerificationFailed,
		info: ErrorInfo{
			Message: "The certificate signature does not match.",
			Action:  "Treat the certificate as tampered or forged.",
		},
	},

	// ===================
	// Audit trail
	// ===================
	{
		err: ErrDuplicateRecord,
		info: ErrorInfo{
			Message: "A record with this id already exists in the audit trail.",
			Action:  "Investigate the trail with 'wipecert audit check'. Records are never merged.",
		},
	},
	{
		err: ErrTrailCorrupted,
		info: ErrorInfo{
			Message: "The audit trail files could not be parsed.",
			Action:  "Inspect the trail directory. Never edit the logs by hand.",
		},
	},
	{
		err: ErrIntegrityViolation,
		info: ErrorInfo{
			Message: "The audit trail failed its integrity check.",
			Action:  "Review the reported problems and escalate to your compliance officer.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Could not acquire lock. Another process may be using the resource.",
			Action:  "Wait and try again, or check for stuck processes.",
		},
	},

	// ===================
	// Input & configuration
	// ===================
	{
		err: ErrValidation,
		info: ErrorInfo{
			Message: "Operator and device identity are required.",
			Action:  "Pass --operator and --device or set identity.operator_id and identity.device_id.",
		},
	},
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "Configuration file not found.",
			Action:  "Run 'wipecert config init' to create one.",
		},
	},
	{
		err: ErrConfigExists,
		info: ErrorInfo{
			Message: "A configuration file already exists.",
			Action:  "Use --force to overwrite it.",
		},
	},
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure config.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidKeys,
		info: ErrorInfo{
			Message: "Invalid keys configuration.",
			Action:  "Check the 'keys' section in config.yaml.",
		},
	},
	{
		err: ErrConfigInvalidTrail,
		info: ErrorInfo{
			Message: "Invalid trail configuration.",
			Action:  "Check the 'trail' section in config.yaml.",
		},
	},
	{
		err: ErrConfigInvalidErase,
		info: ErrorInfo{
			Message: "Invalid erase configuration.",
			Action:  "Check the 'erase' section in config.yaml.",
		},
	},
	{
		err: ErrValueOutOfRange,
		info: ErrorInfo{
			Message: "Value is outside the allowed range.",
			Action:  "Check the documentation for valid value ranges.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was not provided.",
			Action:  "Provide the required value and try again.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
	{
		err: ErrNonInteractiveMode,
		info: ErrorInfo{
			Message: "This operation requires confirmation in non-interactive mode.",
			Action:  "Use --force flag to skip confirmation.",
		},
	},
	{
		err: ErrOperationCanceled,
		info: ErrorInfo{
			Message: "Operation was canceled.",
			Action:  "",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
