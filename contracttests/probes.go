package contracttests

import (
	"net/http"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework/ldtest"
	o "github.com/launchdarkly/crud-contract-tests/framework/opt"
	"github.com/launchdarkly/crud-contract-tests/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

func doAllProbes(t *ldtest.T) {
	t.Run(contract.ProbeList, doListProbe)
	t.Run(contract.ProbeListLimit, doListLimitProbe)
	t.Run(contract.ProbeFieldShapes, doFieldShapesProbe)
	t.Run(contract.ProbeGet, doGetProbe)
	t.Run(contract.ProbeGetMissing, doGetMissingProbe)
	t.Run(contract.ProbeCreate, doCreateProbe)
	t.Run(contract.ProbeCreateInvalid, doCreateInvalidProbes)
	t.Run(contract.ProbeReplace, doReplaceProbe)
	t.Run(contract.ProbeReplaceInvalid, doReplaceInvalidProbes)
	t.Run(contract.ProbePatch, doPatchProbe)
	t.Run(contract.ProbePatchInvalid, doPatchInvalidProbes)
	t.Run(contract.ProbeDelete, doDeleteProbe)
	t.Run(contract.ProbeDeleteMissing, doDeleteMissingProbe)
	t.Run(contract.ProbeSensitiveFields, doSensitiveFieldsProbe)
	t.Run(contract.ProbeOwnerFilter, doOwnerFilterProbe)
}

func doListProbe(t *ldtest.T) {
	r := runFor(t)
	result, _ := r.verifier.VerifyList(r.ctx, r.resource.Schema, r.resource.Endpoints, contract.ListQuery{})
	r.record(t, result)
}

func doListLimitProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityListLimit)
	r := runFor(t)
	query := contract.ListQuery{Limit: o.Some(r.resource.Def.ListLimit.Value())}
	result, _ := r.verifier.VerifyList(r.ctx, r.resource.Schema, r.resource.Endpoints, query)
	r.record(t, result)
}

// The sample item comes from a single-item list, so that its shape is the one a paging client sees.
func doFieldShapesProbe(t *ldtest.T) {
	r := runFor(t)
	source, items := r.verifier.VerifyList(r.ctx, r.resource.Schema, r.resource.Endpoints,
		contract.ListQuery{Limit: o.Some(1)})
	sample := ldvalue.Null()
	if source.Classification == contract.Expected {
		sample = items.GetByIndex(0)
	} else {
		t.Debug("could not get a sample item: %s", source.Summary())
	}
	r.record(t, r.verifier.VerifyFieldShapes(r.resource.Schema, source, sample))
}

func doGetProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	r := runFor(t)
	r.record(t, r.verifier.VerifyGetByID(r.ctx, r.resource.Schema, r.resource.Endpoints, r.resource.Def.FirstKnownID()))
}

func doGetMissingProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityMissingID)
	r := runFor(t)
	r.record(t, r.verifier.VerifyGetMissing(r.ctx, r.resource.Endpoints, r.resource.Def.MissingID))
}

func doCreateProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityCreate)
	r := runFor(t)
	r.record(t, r.verifier.VerifyCreate(r.ctx, r.resource.Schema, r.resource.Endpoints, r.resource.Def.Create.Valid))
}

func doCreateInvalidProbes(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityCreateInvalid)
	for _, p := range runFor(t).resource.Def.Create.Invalid {
		payload := invalidPayload(p)
		t.Run(p.Description, func(t *ldtest.T) {
			r := runFor(t)
			r.record(t, r.verifier.VerifyCreateRejected(r.ctx, r.resource.Endpoints, payload))
		})
	}
}

func doReplaceProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	t.RequireCapability(servicedef.CapabilityReplace)
	r := runFor(t)
	r.record(t, r.verifier.VerifyReplace(r.ctx, r.resource.Schema, r.resource.Endpoints,
		r.resource.Def.FirstKnownID(), r.resource.Def.Replace.Valid))
}

func doReplaceInvalidProbes(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	t.RequireCapability(servicedef.CapabilityReplaceInvalid)
	doUpdateInvalidProbes(t, http.MethodPut, runFor(t).resource.Def.Replace.Invalid)
}

func doPatchProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	t.RequireCapability(servicedef.CapabilityPatch)
	r := runFor(t)
	r.record(t, r.verifier.VerifyPartialUpdate(r.ctx, r.resource.Schema, r.resource.Endpoints,
		r.resource.Def.FirstKnownID(), r.resource.Def.Patch.Valid))
}

func doPatchInvalidProbes(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	t.RequireCapability(servicedef.CapabilityPatchInvalid)
	doUpdateInvalidProbes(t, http.MethodPatch, runFor(t).resource.Def.Patch.Invalid)
}

func doUpdateInvalidProbes(t *ldtest.T, method string, payloads []servicedef.InvalidPayloadDef) {
	for _, p := range payloads {
		payload := invalidPayload(p)
		t.Run(p.Description, func(t *ldtest.T) {
			r := runFor(t)
			r.record(t, r.verifier.VerifyUpdateRejected(r.ctx, r.resource.Endpoints, method,
				r.resource.Def.FirstKnownID(), payload))
		})
	}
}

func doDeleteProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	r := runFor(t)
	r.record(t, r.verifier.VerifyDelete(r.ctx, r.resource.Schema, r.resource.Endpoints, r.resource.Def.FirstKnownID()))
}

func doDeleteMissingProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityMissingID)
	r := runFor(t)
	r.record(t, r.verifier.VerifyDeleteMissing(r.ctx, r.resource.Endpoints, r.resource.Def.MissingID))
}

func doSensitiveFieldsProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityKnownID)
	t.RequireCapability(servicedef.CapabilitySensitiveFields)
	r := runFor(t)
	result, err := r.verifier.VerifySensitiveFieldExposure(r.ctx, r.resource.Endpoints,
		r.resource.Def.FirstKnownID(), r.resource.Def.ForbiddenFields)
	if err != nil {
		t.SkipWithReason(err.Error())
	}
	r.record(t, result)
}

func doOwnerFilterProbe(t *ldtest.T) {
	t.RequireCapability(servicedef.CapabilityOwnerFilter)
	r := runFor(t)
	owner := r.resource.Def.OwnerFilter.Value()
	r.record(t, r.verifier.VerifyOwnerFilter(r.ctx, r.resource.Schema, r.resource.Endpoints, owner.Field, owner.ID))
}

func invalidPayload(def servicedef.InvalidPayloadDef) contract.InvalidPayload {
	return contract.InvalidPayload{Description: def.Description, Field: def.Field, Body: def.Body}
}
