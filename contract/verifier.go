package contract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/launchdarkly/crud-contract-tests/framework"
	"github.com/launchdarkly/crud-contract-tests/framework/helpers"

	"github.com/cespare/xxhash/v2"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// InvalidPayload is a request body that the service ought to reject.
type InvalidPayload struct {
	// Description says what is wrong with it, such as "empty title".
	Description string

	// Field is the field that makes it invalid, if there is one in particular.
	Field string

	Body ldvalue.Value
}

// Verifier runs probes against a resource's endpoints.
//
// The probes are independent of each other: none of them relies on an earlier probe's side effect
// on the remote service, which is not assumed to persist anything.
type Verifier struct {
	transport    Transport
	logger       framework.Logger
	redactFields []string
}

// VerifierOption is an option for NewVerifier.
type VerifierOption helpers.ConfigOption[Verifier]

// VerifierLogger sets a logger for debug output, such as response bodies.
func VerifierLogger(logger framework.Logger) VerifierOption {
	return helpers.ConfigOptionFunc[Verifier](func(v *Verifier) error {
		v.logger = logger
		return nil
	})
}

// VerifierRedactFields names fields whose values must never appear in debug output. Dotted paths
// are reduced to their last component.
func VerifierRedactFields(fields ...string) VerifierOption {
	return helpers.ConfigOptionFunc[Verifier](func(v *Verifier) error {
		v.redactFields = append(v.redactFields, redactionKeys(fields)...)
		return nil
	})
}

func redactionKeys(fields []string) []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f[strings.LastIndex(f, ".")+1:])
	}
	return keys
}

// NewVerifier creates a Verifier.
func NewVerifier(transport Transport, options ...VerifierOption) (*Verifier, error) {
	v := &Verifier{transport: transport, logger: framework.NullLogger()}
	if err := helpers.ApplyOptions(v, options...); err != nil {
		return nil, err
	}
	return v, nil
}

// send issues a request and starts a ProbeResult for it. If the request could not be completed,
// the returned result is already classified as TransportError and ok is false. Fields named in
// alsoRedact are redacted from the logged body along with the verifier's own list.
func (v *Verifier) send(
	ctx context.Context,
	probe string,
	req Request,
	alsoRedact ...string,
) (resp Response, result ProbeResult, ok bool) {
	result = ProbeResult{Probe: probe, Request: RequestInfo{Method: req.Method, URL: req.URL}}
	resp, err := v.transport.Do(ctx, req)
	if err != nil {
		return resp, result.classify(TransportError, err), false
	}
	result.Status = resp.Status
	result.Elapsed = resp.Elapsed
	result.BodyDigest = xxhash.Sum64(resp.Raw)
	if resp.IsJSON {
		redactFields := v.redactFields
		if len(alsoRedact) != 0 {
			redactFields = append(redactionKeys(alsoRedact), v.redactFields...)
		}
		v.logger.Printf("%s response body: %s", probe, Redact(resp.Body, redactFields).JSONString())
	}
	return resp, result, true
}

func requireStatus(result ProbeResult, allowed ...int) (ProbeResult, bool) {
	for _, s := range allowed {
		if result.Status == s {
			return result, true
		}
	}
	return result.classify(UnexpectedFailure, &UnexpectedStatusError{Status: result.Status, Allowed: allowed}), false
}

func requireJSONObject(result ProbeResult, resp Response) (ProbeResult, bool) {
	if !resp.IsJSON {
		return result.violation("", "response body is not JSON"), false
	}
	if resp.Body.Type() != ldvalue.ObjectType {
		return result.violation("", fmt.Sprintf("response body is a JSON %s, not an object", resp.Body.Type())), false
	}
	return result, true
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// VerifyList requests the collection and checks that it is a non-empty array of objects. If the
// query has a limit, it also checks that exactly that many items were returned and that the limit
// is echoed in the response's "limit" property. The collection is returned so that the caller can
// sample it; it is null if the probe did not get that far.
func (v *Verifier) VerifyList(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	query ListQuery,
) (ProbeResult, ldvalue.Value) {
	probe := helpers.IfElse(query.Limit.IsDefined(), ProbeListLimit, ProbeList)
	resp, result, ok := v.send(ctx, probe, Request{Method: http.MethodGet, URL: endpoints.ListURL(query)})
	if !ok {
		return result, ldvalue.Null()
	}
	if result, ok = requireStatus(result, http.StatusOK); !ok {
		return result, ldvalue.Null()
	}
	if result, ok = requireJSONObject(result, resp); !ok {
		return result, ldvalue.Null()
	}

	items := resp.Body.GetByKey(schema.CollectionField)
	if items.Type() != ldvalue.ArrayType {
		return result.violation(schema.CollectionField, "missing or not an array"), ldvalue.Null()
	}
	for i := 0; i < items.Count(); i++ {
		if t := items.GetByIndex(i).Type(); t != ldvalue.ObjectType {
			return result.violation(schema.CollectionField, fmt.Sprintf("item %d is a %s, not an object", i, t)), items
		}
	}
	if items.Count() == 0 {
		return result.violation(schema.CollectionField, "collection is empty"), items
	}

	if query.Limit.IsDefined() {
		limit := query.Limit.Value()
		if items.Count() != limit {
			return result.violation(schema.CollectionField,
				fmt.Sprintf("expected %d items for limit=%d, got %d", limit, limit, items.Count())), items
		}
		if echoed := resp.Body.GetByKey("limit"); !echoed.IsNumber() || echoed.IntValue() != limit {
			return result.violation("limit", fmt.Sprintf("expected echoed limit %d, got %s", limit, echoed.JSONString())), items
		}
	}
	return result.withNote("%d items", items.Count()), items
}

// VerifyFieldShapes checks a sample item against every FieldSpec of the schema: presence, kind,
// and validator. It makes no requests; source is the result of the request that produced the
// sample. All mismatches are listed in the notes, and the first one is the result's Field.
//
// Calling it again with the same arguments produces the same result.
func (v *Verifier) VerifyFieldShapes(schema ResourceSchema, source ProbeResult, sample ldvalue.Value) ProbeResult {
	result := ProbeResult{
		Resource:   source.Resource,
		Probe:      ProbeFieldShapes,
		Request:    source.Request,
		Status:     source.Status,
		BodyDigest: source.BodyDigest,
	}
	if sample.Type() != ldvalue.ObjectType {
		return result.classify(Unvalidated, nil).withNote("no sample item to check")
	}

	var first *SchemaViolationError
	for _, spec := range schema.Fields {
		if reason := checkField(spec, sample); reason != "" {
			if first == nil {
				first = &SchemaViolationError{Field: spec.Name, Reason: reason}
			}
			result = result.withNote("%s: %s", spec.Name, reason)
		}
	}
	if first != nil {
		return result.violation(first.Field, first.Reason)
	}
	return result.withNote("%d fields checked", len(schema.Fields))
}

func checkField(spec FieldSpec, item ldvalue.Value) string {
	value, found := lookupField(item, spec.Name)
	if !found {
		return "missing"
	}
	if value.Type() != spec.Kind {
		return fmt.Sprintf("expected %s, got %s", spec.Kind, value.Type())
	}
	if spec.Validator != nil {
		return applyValidator(*spec.Validator, value)
	}
	return ""
}

// VerifyGetByID requests a known item and checks that its identifier is the one requested.
func (v *Verifier) VerifyGetByID(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	id ldvalue.Value,
) ProbeResult {
	resp, result, ok := v.send(ctx, ProbeGet, Request{Method: http.MethodGet, URL: endpoints.GetURL(id)})
	if !ok {
		return result
	}
	if result, ok = requireStatus(result, http.StatusOK); !ok {
		return result
	}
	if result, ok = requireJSONObject(result, resp); !ok {
		return result
	}
	return checkID(result, schema, resp.Body, id)
}

func checkID(result ProbeResult, schema ResourceSchema, body ldvalue.Value, id ldvalue.Value) ProbeResult {
	idField := schema.idField()
	returned, found := body.TryGetByKey(idField)
	if !found {
		return result.violation(idField, "missing")
	}
	if !idsEqual(returned, id) {
		return result.violation(idField, fmt.Sprintf("requested %s, got %s", id.JSONString(), returned.JSONString()))
	}
	return result
}

// VerifyGetMissing requests an id that should not exist. A not-found status is Expected; any
// success status is an UnexpectedSuccess.
func (v *Verifier) VerifyGetMissing(ctx context.Context, endpoints EndpointSet, missingID ldvalue.Value) ProbeResult {
	_, result, ok := v.send(ctx, ProbeGetMissing, Request{Method: http.MethodGet, URL: endpoints.GetURL(missingID)})
	if !ok {
		return result
	}
	switch {
	case result.Status == http.StatusNotFound:
		return result
	case isSuccess(result.Status):
		return result.classify(UnexpectedSuccess, nil).withNote("missing id %s returned success", idString(missingID))
	default:
		return result.withNote("rejected with status %d instead of %d", result.Status, http.StatusNotFound)
	}
}

// VerifyCreate submits a valid payload and checks that it was accepted with status 200 or 201,
// that every submitted field comes back unchanged, and that an identifier was generated.
func (v *Verifier) VerifyCreate(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	payload ldvalue.Value,
) ProbeResult {
	resp, result, ok := v.send(ctx, ProbeCreate, Request{Method: http.MethodPost, URL: endpoints.CreateURL(), Body: payload})
	if !ok {
		return result
	}
	if result, ok = requireStatus(result, http.StatusOK, http.StatusCreated); !ok {
		return result
	}
	if result, ok = requireJSONObject(result, resp); !ok {
		return result
	}
	if result, ok = checkRoundTrip(result, payload, resp.Body); !ok {
		return result
	}
	idField := schema.idField()
	id, found := resp.Body.TryGetByKey(idField)
	if !found || id.IsNull() {
		return result.violation(idField, "no identifier was generated")
	}
	return result.withNote("created with %s %s", idField, idString(id))
}

func checkRoundTrip(result ProbeResult, submitted, returned ldvalue.Value) (ProbeResult, bool) {
	keys := make([]string, 0, submitted.Count())
	for key := range submitted.AsValueMap().AsMap() {
		keys = append(keys, key)
	}
	for _, key := range helpers.Sorted(keys) {
		expected := submitted.GetByKey(key)
		actual, found := returned.TryGetByKey(key)
		if !found {
			return result.violation(key, "submitted value was not returned"), false
		}
		if !containsSubset(expected, actual) {
			return result.violation(key, fmt.Sprintf("submitted %s, got %s", expected.JSONString(), actual.JSONString())), false
		}
	}
	return result, true
}

// VerifyCreateRejected submits an invalid payload. A failure status of any kind is Expected; a
// success status is an UnexpectedSuccess noting what the service accepted.
func (v *Verifier) VerifyCreateRejected(ctx context.Context, endpoints EndpointSet, payload InvalidPayload) ProbeResult {
	req := Request{Method: http.MethodPost, URL: endpoints.CreateURL(), Body: payload.Body}
	return v.verifyRejected(ctx, ProbeCreateInvalid, req, payload, "accepted "+payload.Description)
}

// VerifyUpdateRejected submits a replace (PUT) or patch (PATCH) with a field of the wrong type. A
// success status is an UnexpectedSuccess with a "type not validated" note.
func (v *Verifier) VerifyUpdateRejected(
	ctx context.Context,
	endpoints EndpointSet,
	method string,
	id ldvalue.Value,
	payload InvalidPayload,
) ProbeResult {
	probe, url := ProbeReplaceInvalid, endpoints.ReplaceURL(id)
	if method == http.MethodPatch {
		probe, url = ProbePatchInvalid, endpoints.PatchURL(id)
	}
	req := Request{Method: method, URL: url, Body: payload.Body}
	return v.verifyRejected(ctx, probe, req, payload, "type not validated: "+payload.Description)
}

func (v *Verifier) verifyRejected(
	ctx context.Context,
	probe string,
	req Request,
	payload InvalidPayload,
	acceptedNote string,
) ProbeResult {
	_, result, ok := v.send(ctx, probe, req)
	if !ok {
		return result
	}
	if !isSuccess(result.Status) {
		return result.withNote("rejected with status %d", result.Status)
	}
	result = result.classify(UnexpectedSuccess, nil).withNote("%s", acceptedNote)
	if payload.Field != "" {
		result.Field = payload.Field
		result = result.withNote("field %q", payload.Field)
	}
	return result
}

// VerifyReplace sends a full update (PUT) and checks that the submitted values are reflected.
func (v *Verifier) VerifyReplace(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	id ldvalue.Value,
	payload ldvalue.Value,
) ProbeResult {
	req := Request{Method: http.MethodPut, URL: endpoints.ReplaceURL(id), Body: payload}
	return v.verifyUpdate(ctx, ProbeReplace, schema, req, id, payload)
}

// VerifyPartialUpdate sends a partial update (PATCH) and checks that the submitted values are
// reflected.
func (v *Verifier) VerifyPartialUpdate(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	id ldvalue.Value,
	payload ldvalue.Value,
) ProbeResult {
	req := Request{Method: http.MethodPatch, URL: endpoints.PatchURL(id), Body: payload}
	return v.verifyUpdate(ctx, ProbePatch, schema, req, id, payload)
}

func (v *Verifier) verifyUpdate(
	ctx context.Context,
	probe string,
	schema ResourceSchema,
	req Request,
	id ldvalue.Value,
	payload ldvalue.Value,
) ProbeResult {
	resp, result, ok := v.send(ctx, probe, req)
	if !ok {
		return result
	}
	if result, ok = requireStatus(result, http.StatusOK); !ok {
		return result
	}
	if result, ok = requireJSONObject(result, resp); !ok {
		return result
	}
	if result, ok = checkRoundTrip(result, payload, resp.Body); !ok {
		return result
	}
	if _, found := resp.Body.TryGetByKey(schema.idField()); found {
		return checkID(result, schema, resp.Body, id)
	}
	return result
}

// VerifyDelete deletes a known item and checks that the response marks it as deleted and says
// when.
func (v *Verifier) VerifyDelete(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	id ldvalue.Value,
) ProbeResult {
	resp, result, ok := v.send(ctx, ProbeDelete, Request{Method: http.MethodDelete, URL: endpoints.DeleteURL(id)})
	if !ok {
		return result
	}
	if result, ok = requireStatus(result, http.StatusOK); !ok {
		return result
	}
	if result, ok = requireJSONObject(result, resp); !ok {
		return result
	}

	flagField := schema.deletedFlagField()
	if flag := resp.Body.GetByKey(flagField); !flag.IsBool() || !flag.BoolValue() {
		return result.violation(flagField, fmt.Sprintf("expected true, got %s", flag.JSONString()))
	}
	if atField := schema.deletedAtField(); atField != NoField {
		at := resp.Body.GetByKey(atField)
		if !at.IsString() || strings.TrimSpace(at.StringValue()) == "" {
			return result.violation(atField, fmt.Sprintf("expected a timestamp, got %s", at.JSONString()))
		}
	}
	return result
}

// VerifyDeleteMissing deletes an id that should not exist. A success status is an
// UnexpectedSuccess, since the service cannot have deleted something that was never there.
func (v *Verifier) VerifyDeleteMissing(ctx context.Context, endpoints EndpointSet, missingID ldvalue.Value) ProbeResult {
	_, result, ok := v.send(ctx, ProbeDeleteMissing, Request{Method: http.MethodDelete, URL: endpoints.DeleteURL(missingID)})
	if !ok {
		return result
	}
	if isSuccess(result.Status) {
		return result.classify(UnexpectedSuccess, nil).withNote("delete of missing resource reported as success")
	}
	return result.withNote("rejected with status %d", result.Status)
}

// VerifySensitiveFieldExposure requests an item and checks that none of the forbidden fields
// appear in it. Values of forbidden fields never appear in the result or in debug output, whether
// or not the verifier was configured to redact them.
//
// There must be at least one forbidden field; otherwise there is nothing to probe for, and
// ErrNoForbiddenFields is returned without sending a request.
func (v *Verifier) VerifySensitiveFieldExposure(
	ctx context.Context,
	endpoints EndpointSet,
	id ldvalue.Value,
	forbiddenFields []string,
) (ProbeResult, error) {
	if len(forbiddenFields) == 0 {
		return ProbeResult{}, ErrNoForbiddenFields
	}
	return v.verifySensitiveFields(ctx, endpoints, id, forbiddenFields), nil
}

func (v *Verifier) verifySensitiveFields(
	ctx context.Context,
	endpoints EndpointSet,
	id ldvalue.Value,
	forbiddenFields []string,
) ProbeResult {
	resp, result, ok := v.send(ctx, ProbeSensitiveFields, Request{Method: http.MethodGet, URL: endpoints.GetURL(id)},
		forbiddenFields...)
	if !ok {
		return result
	}
	if !isSuccess(result.Status) || !resp.IsJSON {
		return result.classify(Unvalidated, nil).withNote("could not inspect item, status %d", result.Status)
	}

	var exposed []string
	for _, field := range forbiddenFields {
		if _, found := lookupField(resp.Body, field); found {
			exposed = append(exposed, field)
		}
	}
	if len(exposed) == 0 {
		return result.withNote("none of %s present", strings.Join(forbiddenFields, ", "))
	}
	result = result.classify(SecurityViolation, &SecurityViolationError{Field: exposed[0]})
	result.Field = exposed[0]
	for _, field := range exposed {
		result = result.withNote("field %q exposed (value %s)", field, RedactedValue)
	}
	return result
}

// VerifyOwnerFilter lists the items belonging to one owner and checks that every item's owner
// field is that owner.
func (v *Verifier) VerifyOwnerFilter(
	ctx context.Context,
	schema ResourceSchema,
	endpoints EndpointSet,
	ownerField string,
	ownerID ldvalue.Value,
) ProbeResult {
	url := endpoints.ListByOwnerURL(ownerID)
	resp, result, ok := v.send(ctx, ProbeOwnerFilter, Request{Method: http.MethodGet, URL: url})
	if !ok {
		return result
	}
	if result, ok = requireStatus(result, http.StatusOK); !ok {
		return result
	}
	if result, ok = requireJSONObject(result, resp); !ok {
		return result
	}
	items := resp.Body.GetByKey(schema.CollectionField)
	if items.Type() != ldvalue.ArrayType {
		return result.violation(schema.CollectionField, "missing or not an array")
	}
	if items.Count() == 0 {
		return result.classify(Unvalidated, nil).withNote("no items for owner %s", idString(ownerID))
	}
	for i := 0; i < items.Count(); i++ {
		owner, found := lookupField(items.GetByIndex(i), ownerField)
		if !found || !idsEqual(owner, ownerID) {
			return result.violation(ownerField,
				fmt.Sprintf("item %d belongs to %s, not %s", i, owner.JSONString(), idString(ownerID)))
		}
	}
	return result.withNote("%d items, all owned by %s", items.Count(), idString(ownerID))
}
