package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorKind = "error_kind"
	FieldPage      = "page"
	FieldBillID    = "bill_id"
	FieldEmail     = "email"
	FieldUserType  = "user_type"
	FieldFileName  = "file_name"
	FieldMimeType  = "mime_type"
	FieldCount     = "count"
	FieldState     = "state"
	FieldBackend   = "backend"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentSession = "session"
	ComponentRouter  = "router"
	ComponentBills   = "bills"
	ComponentNewBill = "new_bill"
	ComponentLogin   = "login"
	ComponentAdmin   = "dashboard"
	ComponentAPI     = "api"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpList     = "list"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpLogin    = "login"
	OpUpload   = "upload"
	OpSubmit   = "submit"
	OpNavigate = "navigate"
	OpFormat   = "format"
	OpSync     = "sync"
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

// WithBill adds bill-related fields
func (f LogFields) WithBill(id, email string) LogFields {
	if id != "" {
		f[FieldBillID] = id
	}
	if email != "" {
		f[FieldEmail] = email
	}
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
