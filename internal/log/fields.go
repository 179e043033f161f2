package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldUserAgent   = "user_agent"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldPartition   = "partition"
	FieldRows        = "rows"
	FieldIndices     = "indices"
	FieldTxType      = "tx_type"
	FieldCategory    = "category"
	FieldMode        = "mode"
	FieldAmount      = "amount"
	FieldTxDate      = "tx_date"
	FieldBackend     = "backend"
	FieldStorageMode = "storage_mode"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentPeriod  = "period"
	ComponentSheets  = "sheets"
	ComponentXLSX    = "xlsx"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpAppend   = "append"
	OpDelete   = "delete"
	OpReplace  = "replace"
	OpList     = "list"
	OpValidate = "validate"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithPartition adds the partition key field
func (f LogFields) WithPartition(key string) LogFields {
	f[FieldPartition] = key
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(date, txType, category, mode, amount string) LogFields {
	f[FieldTxDate] = date
	f[FieldTxType] = txType
	f[FieldCategory] = category
	f[FieldMode] = mode
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
