package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/pkg/llm"
	"invoicing-agent-be/pkg/store"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrUnknownTool = errors.New("unknown tool")

// Tool is one named operation the LLM may call.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`

	call func(ctx context.Context, s *store.Session, raw json.RawMessage) (interface{}, error)
}

// CallRecord is what an Auditor receives after every invocation.
type CallRecord struct {
	SessionID   string
	WorkspaceID uint
	Tool        string
	Arguments   json.RawMessage
	Result      interface{}
	Err         *ToolError
	Duration    time.Duration
}

type Auditor interface {
	ToolCalled(ctx context.Context, record CallRecord)
}

// Registry dispatches tool calls by name. It does not lock the session;
// callers serialize calls per session.
type Registry struct {
	tools    map[string]*Tool
	order    []string
	validate *validator.Validate
	logger   logger.ILogger
	tracer   trace.Tracer
	auditor  Auditor
}

func NewRegistry(kit *Toolkit, log logger.ILogger) *Registry {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	r := &Registry{
		tools:    make(map[string]*Tool),
		validate: v,
		logger:   log,
		tracer:   otel.Tracer("invoicing-agent-be/agent/tools"),
	}

	register(r, "lookupCustomer",
		"Search the workspace's customers by part of their name or email. Returns up to 5 matches. Always confirm the match with the user before calling selectCustomer.",
		objectSchema(map[string]interface{}{
			"query": prop("string", "Part of the customer's name or email address."),
		}, "query"),
		kit.LookupCustomer)

	register(r, "selectCustomer",
		"Choose the customer the invoice is for, using an id returned by lookupCustomer. Do this first.",
		objectSchema(map[string]interface{}{
			"customerId": prop("integer", "Customer id from lookupCustomer."),
		}, "customerId"),
		kit.SelectCustomer)

	register(r, "listBusinesses",
		"List the businesses that can issue the invoice, default first. If exactly one is returned, select it immediately without asking; otherwise ask the user.",
		objectSchema(map[string]interface{}{}),
		kit.ListBusinesses)

	register(r, "selectBusiness",
		"Choose the business issuing the invoice, using an id returned by listBusinesses. Do this after selecting the customer.",
		objectSchema(map[string]interface{}{
			"businessId": prop("integer", "Business id from listBusinesses."),
		}, "businessId"),
		kit.SelectBusiness)

	register(r, "addInvoiceItem",
		"Add one line item to the invoice in progress. Call it once per item the user mentions and never repeat a call for the same item.",
		objectSchema(map[string]interface{}{
			"description": prop("string", "What was sold or done, e.g. 'Website design'."),
			"quantity":    prop("number", "How many units, hours or days. Greater than 0, at most 1000000."),
			"unitPrice":   prop("number", "Price of one unit. Greater than 0, at most 1000000000."),
			"quantityUnit": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"DAYS", "HOURS", "UNITS"},
				"description": "Unit of the quantity. Defaults to UNITS.",
			},
		}, "description", "quantity", "unitPrice"),
		kit.AddInvoiceItem)

	register(r, "createInvoice",
		"Create the invoice once a customer and a business are selected and at least one item is added. Ask the user for the due date first.",
		objectSchema(map[string]interface{}{
			"dueDate": prop("string", "Due date as YYYY-MM-DD. Today or later."),
			"notes":   prop("string", "Optional notes printed on the invoice."),
		}, "dueDate"),
		kit.CreateInvoice)

	register(r, "getCurrentInvoice",
		"Read back the invoice in progress: selected customer and business, items and subtotal.",
		objectSchema(map[string]interface{}{}),
		kit.GetCurrentInvoice)

	register(r, "countClients",
		"Count the clients in the workspace.",
		objectSchema(map[string]interface{}{}),
		kit.CountClients)

	register(r, "countInvoices",
		"Count the invoices in the workspace.",
		objectSchema(map[string]interface{}{}),
		kit.CountInvoices)

	return r
}

func register[P any, R any](r *Registry, name, description string, params map[string]interface{}, h func(context.Context, *store.Session, *P) (R, error)) {
	r.tools[name] = &Tool{
		Name:        name,
		Description: description,
		Parameters:  params,
		call: func(ctx context.Context, s *store.Session, raw json.RawMessage) (interface{}, error) {
			p := new(P)
			if err := r.decode(raw, p); err != nil {
				return nil, err
			}
			res, err := h(ctx, s, p)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
	r.order = append(r.order, name)
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// SetAuditor installs the sink for call records. Call before serving.
func (r *Registry) SetAuditor(a Auditor) {
	r.auditor = a
}

// List returns the tools in registration order.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, t := range r.List() {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Invoke runs one tool against the session. Every failure comes back as a
// *ToolError; anything unexpected, including a panic, is reported as
// UPSTREAM_UNAVAILABLE with the cause logged.
func (r *Registry) Invoke(ctx context.Context, s *store.Session, name string, raw json.RawMessage) (result interface{}, err error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, &ToolError{Kind: KindValidationFailed, Message: fmt.Sprintf("There is no tool called %s.", name), Err: ErrUnknownTool}
	}

	ctx, span := r.tracer.Start(ctx, "agent.tool."+name, trace.WithAttributes(
		attribute.String("agent.session_id", s.ID),
		attribute.Int64("agent.workspace_id", int64(s.WorkspaceID)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = Upstream(fmt.Errorf("panic in tool %s: %v", name, rec))
		}

		te := AsToolError(err)
		elapsed := time.Since(start)
		details := map[string]interface{}{
			"tool":         name,
			"session_id":   s.ID,
			"workspace_id": s.WorkspaceID,
			"duration_ms":  elapsed.Milliseconds(),
		}

		if te != nil {
			err = te
			details["error_kind"] = string(te.Kind)
			span.SetAttributes(attribute.String("agent.tool.error_kind", string(te.Kind)))
			if te.Kind == KindUpstreamUnavailable {
				details["error"] = fmt.Sprint(te.Err)
				span.RecordError(te)
				span.SetStatus(codes.Error, string(te.Kind))
				r.logger.Error(logModule, "Tool failed", details)
			} else {
				r.logger.Info(logModule, "Tool rejected call", details)
			}
		} else {
			span.SetStatus(codes.Ok, "")
			r.logger.Info(logModule, "Tool invoked", details)
		}

		if r.auditor != nil {
			r.auditor.ToolCalled(ctx, CallRecord{
				SessionID:   s.ID,
				WorkspaceID: s.WorkspaceID,
				Tool:        name,
				Arguments:   raw,
				Result:      result,
				Err:         te,
				Duration:    elapsed,
			})
		}
	}()

	return tool.call(ctx, s, raw)
}

type normalizer interface {
	normalize()
}

func (r *Registry) decode(raw json.RawMessage, p interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ToolError{
				Kind:    KindValidationFailed,
				Message: fmt.Sprintf("%s must be %s.", typeErr.Field, describeKind(typeErr.Type.Kind())),
				Err:     err,
			}
		}
		return &ToolError{Kind: KindValidationFailed, Message: "The tool arguments must be a JSON object.", Err: err}
	}

	if n, ok := p.(normalizer); ok {
		n.normalize()
	}

	if err := r.validate.Struct(p); err != nil {
		return &ToolError{Kind: KindValidationFailed, Message: validationMessage(err), Err: err}
	}
	return nil
}

func describeKind(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Int32:
		return "a whole number"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "text"
	default:
		return "a " + k.String()
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "The tool arguments are not valid."
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s.", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "lte":
		return fmt.Sprintf("%s must be at most %s.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long.", fe.Field())
	default:
		return fmt.Sprintf("%s is not valid.", fe.Field())
	}
}
