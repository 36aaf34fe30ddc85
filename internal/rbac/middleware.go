package rbac

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"

	"github.com/hrdesk/hrdesk/internal/platform/httpx"
	"github.com/hrdesk/hrdesk/internal/shared"
)

const maxPeekBytes = 1 << 20

var (
	errMalformedBody = errors.New("rbac: malformed request body")
	errAmbiguousBody = errors.New("rbac: request body repeats a field under different casing")
)

// DenialObserver counts denials, typically into a metrics registry.
type DenialObserver interface {
	ObserveDenial(resource, reason string)
}

// Guard wires the evaluator into HTTP handlers.
type Guard struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
	Observer  DenialObserver
}

// Payload carries the ownership fields of a create payload as the handler
// decoded them.
type Payload struct {
	Employee string
	Admin    bool
}

// Collection guards collection routes: GET lists, POST creates.
func (g Guard) Collection(resource ResourceType) func(http.Handler) http.Handler {
	return g.require(resource, collectionAction)
}

// Instance guards single-record routes. Handlers must call CheckObject once
// the record is loaded.
func (g Guard) Instance(resource ResourceType) func(http.Handler) http.Handler {
	return g.require(resource, instanceAction)
}

// CheckObject runs the fine-grained check for the record loaded by a handler
// mounted behind Instance.
func (g Guard) CheckObject(r *http.Request, target any) error {
	ga, ok := actionFromContext(r.Context())
	if !ok {
		return errors.New("rbac: request was not routed through an instance guard")
	}
	err := g.Evaluator.AuthorizeObject(r.Context(), PrincipalFromContext(r.Context()), ObjectRequest{
		Resource: ga.resource,
		Action:   ga.action,
		Target:   target,
	})
	g.observe(ga.resource, err)
	return err
}

// CheckPayload repeats the create check against the payload the handler
// decoded. Only the payload counts as ownership evidence here, so an
// employee_id the caller owns cannot vouch for a record filed on behalf of
// someone else.
func (g Guard) CheckPayload(r *http.Request, payload Payload) error {
	ga, ok := actionFromContext(r.Context())
	if !ok || ga.action != ActionCreate {
		return errors.New("rbac: request was not routed through a collection guard")
	}
	err := g.Evaluator.Authorize(r.Context(), PrincipalFromContext(r.Context()), Request{
		Resource:        ga.resource,
		Action:          ActionCreate,
		PayloadEmployee: payload.Employee,
		PayloadAdmin:    payload.Admin,
	})
	g.observe(ga.resource, err)
	return err
}

// LoadError translates a failed record load. When only an ownership rule let
// the request through, a missing record is reported as a denial so that
// record ids reveal nothing to the caller.
func (g Guard) LoadError(r *http.Request, err error) error {
	ga, ok := actionFromContext(r.Context())
	if !ok || ga.byPermission || !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	denial := denyInsufficient()
	g.observe(ga.resource, denial)
	return denial
}

func (g Guard) observe(resource ResourceType, err error) {
	if g.Observer == nil || err == nil {
		return
	}
	if d, ok := AsDenial(err); ok {
		g.Observer.ObserveDenial(string(resource), d.Reason.String())
	}
}

func (g Guard) require(resource ResourceType, mapAction func(string) (Action, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, ok := mapAction(r.Method)
			if !ok {
				httpx.Error(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
				return
			}
			hint := r.URL.Query().Get("employee_id")
			req := Request{Resource: resource, Action: action, EmployeeHint: hint}
			if action == ActionCreate {
				payload, err := peekPayload(w, r)
				if err != nil {
					respondBodyError(w, err)
					return
				}
				req.PayloadEmployee = payload.Employee
				req.PayloadAdmin = payload.Admin
			}
			byPermission, err := g.Evaluator.authorize(r.Context(), PrincipalFromContext(r.Context()), req)
			if err != nil {
				g.observe(resource, err)
				if _, denied := AsDenial(err); !denied && g.Logger != nil {
					g.Logger.Error("rbac authorize", slog.String("resource", string(resource)), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			ga := guardedAction{resource: resource, action: action, byPermission: byPermission}
			if hint != "" {
				id, ok := ParseEmployeeID(hint)
				if !ok {
					httpx.RespondError(w, shared.NewValidationError(fmt.Sprintf("employee_id: %q is not a valid employee id.", hint)))
					return
				}
				ga.employee = &id
			}
			next.ServeHTTP(w, r.WithContext(contextWithAction(r.Context(), ga)))
		})
	}
}

func respondBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpx.Error(w, http.StatusRequestEntityTooLarge, "Request body too large.")
		return
	}
	httpx.Error(w, http.StatusBadRequest, "Malformed request body.")
}

func collectionAction(method string) (Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionList, true
	case http.MethodPost:
		return ActionCreate, true
	}
	return "", false
}

func instanceAction(method string) (Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionRetrieve, true
	case http.MethodPut:
		return ActionUpdate, true
	case http.MethodPatch:
		return ActionPartialUpdate, true
	case http.MethodDelete:
		return ActionDestroy, true
	}
	return "", false
}

// peekPayload reads the ownership fields of a create payload and restores the
// body for the handler. Fields are matched the way struct decoding matches
// them, ignoring case, and a body naming the same field twice under different
// casing is rejected. Non-object payloads carry no hints.
func peekPayload(w http.ResponseWriter, r *http.Request) (Payload, error) {
	if r.Body == nil {
		return Payload{}, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPeekBytes))
	if err != nil {
		return Payload{}, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Payload{}, nil
	}
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(fields))
	for key := range fields {
		folded := fold.String(key)
		if _, dup := seen[folded]; dup {
			return Payload{}, errAmbiguousBody
		}
		seen[folded] = struct{}{}
	}

	var hints struct {
		Employee json.RawMessage `json:"employee"`
		IsAdmin  json.RawMessage `json:"is_admin"`
	}
	if err := json.Unmarshal(body, &hints); err != nil {
		return Payload{}, errMalformedBody
	}
	var payload Payload
	if len(hints.Employee) > 0 {
		payload.Employee = rawScalar(hints.Employee)
	}
	if len(hints.IsAdmin) > 0 {
		var admin bool
		if json.Unmarshal(hints.IsAdmin, &admin) == nil {
			payload.Admin = admin
		}
	}
	return payload, nil
}

// rawScalar renders a JSON number or string as its bare text.
func rawScalar(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}
