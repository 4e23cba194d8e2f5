package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUser        = "user"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldMonthKey    = "month_key"
	FieldBudget      = "budget"
	FieldTotal       = "total_expenses"
	FieldPercentUsed = "percent_used"
	FieldTier        = "tier"
	FieldEventID     = "event_id"
	FieldEventType   = "event_type"
	FieldReport      = "report"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentTracker   = "tracker"
	ComponentRollover  = "rollover"
	ComponentReport    = "report"
	ComponentCharts    = "charts"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations
const (
	OpOpen      = "open"
	OpRead      = "read"
	OpList      = "list"
	OpAppend    = "append"
	OpSetBudget = "set_budget"
	OpRollover  = "rollover"
	OpRender    = "render"
	OpExport    = "export"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields is a small builder for structured attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError records err's message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(user string) LogFields {
	f[FieldUser] = user
	return f
}

// WithExpense adds the fields describing one recorded expense.
func (f LogFields) WithExpense(user, category string, amount float64) LogFields {
	f[FieldUser] = user
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// WithStatus adds the budget evaluation fields.
func (f LogFields) WithStatus(budget, total, percentUsed float64, tier string) LogFields {
	f[FieldBudget] = budget
	f[FieldTotal] = total
	f[FieldPercentUsed] = percentUsed
	f[FieldTier] = tier
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
