package contract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/launchdarkly/crud-contract-tests/framework/opt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Placeholders that can appear in EndpointSet templates.
const (
	PlaceholderBase = "{base}"
	PlaceholderPath = "{path}"
	PlaceholderID   = "{id}"
)

// EndpointSet holds the URL templates for one resource kind's operations.
type EndpointSet struct {
	BaseURL string
	Path    string

	List        string
	Get         string
	Create      string
	Replace     string
	Patch       string
	Delete      string
	ListByOwner string
}

// DefaultEndpoints returns the conventional layout: items at {base}/{path}/{id}, creation at
// {base}/{path}/add, and listing by owner at {base}/{path}/user/{id}.
func DefaultEndpoints(baseURL, path string) EndpointSet {
	item := PlaceholderBase + "/" + PlaceholderPath + "/" + PlaceholderID
	return EndpointSet{
		BaseURL:     baseURL,
		Path:        path,
		List:        PlaceholderBase + "/" + PlaceholderPath,
		Get:         item,
		Create:      PlaceholderBase + "/" + PlaceholderPath + "/add",
		Replace:     item,
		Patch:       item,
		Delete:      item,
		ListByOwner: PlaceholderBase + "/" + PlaceholderPath + "/user/" + PlaceholderID,
	}
}

// ListQuery holds optional query parameters for a list request.
type ListQuery struct {
	Limit opt.Maybe[int]
	Skip  opt.Maybe[int]
}

func (q ListQuery) encode() string {
	values := url.Values{}
	if q.Limit.IsDefined() {
		values.Set("limit", strconv.Itoa(q.Limit.Value()))
	}
	if q.Skip.IsDefined() {
		values.Set("skip", strconv.Itoa(q.Skip.Value()))
	}
	return values.Encode()
}

func (e EndpointSet) expand(template string, id ldvalue.Value) string {
	idPart := ""
	if !id.IsNull() {
		idPart = url.PathEscape(idString(id))
	}
	return strings.NewReplacer(
		PlaceholderBase, strings.TrimRight(e.BaseURL, "/"),
		PlaceholderPath, strings.Trim(e.Path, "/"),
		PlaceholderID, idPart,
	).Replace(template)
}

func (e EndpointSet) ListURL(query ListQuery) string {
	u := e.expand(e.List, ldvalue.Null())
	if q := query.encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (e EndpointSet) GetURL(id ldvalue.Value) string     { return e.expand(e.Get, id) }
func (e EndpointSet) CreateURL() string                  { return e.expand(e.Create, ldvalue.Null()) }
func (e EndpointSet) ReplaceURL(id ldvalue.Value) string { return e.expand(e.Replace, id) }
func (e EndpointSet) PatchURL(id ldvalue.Value) string   { return e.expand(e.Patch, id) }
func (e EndpointSet) DeleteURL(id ldvalue.Value) string  { return e.expand(e.Delete, id) }

func (e EndpointSet) ListByOwnerURL(ownerID ldvalue.Value) string {
	return e.expand(e.ListByOwner, ownerID)
}
