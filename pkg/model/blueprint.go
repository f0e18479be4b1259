package model

import "time"

// ParameterLocation says where a parameter travels in the request.
type ParameterLocation string

// Parameter locations.
const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
)

// ParameterType is the inferred value type of a parameter.
type ParameterType string

// Parameter types, in inference preference order.
const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// MaxObservedValues bounds the number of sample values retained per
// parameter.
const MaxObservedValues = 10

// Parameter is one inferred API parameter.
type Parameter struct {
	Name           string            `json:"name"`
	Location       ParameterLocation `json:"location"`
	Type           ParameterType     `json:"type"`
	Required       bool              `json:"required"`
	ObservedValues []string          `json:"observed_values,omitempty"`
	Example        string            `json:"example,omitempty"`
	Description    string            `json:"description,omitempty"`
}

// BodySchema describes observed request bodies for an endpoint.
type BodySchema struct {
	ContentType string                   `json:"content_type,omitempty"`
	Fields      map[string]ParameterType `json:"fields,omitempty"`
	Examples    []string                 `json:"examples,omitempty"`
}

// ResponseSchema describes observed responses for one status code.
type ResponseSchema struct {
	Status      int      `json:"status"`
	ContentType string   `json:"content_type,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// EndpointMetadata carries per-endpoint aggregates computed during
// extraction.
type EndpointMetadata struct {
	HitCount       int           `json:"hit_count"`
	FirstSeen      time.Time     `json:"first_seen"`
	LastSeen       time.Time     `json:"last_seen"`
	AverageLatency time.Duration `json:"average_latency"`
	SuccessRate    float64       `json:"success_rate"`
}

// Endpoint is one logical API operation: the unique combination of HTTP
// method, host, and path template. Exactly one Endpoint exists per
// (method, host, template) tuple in a blueprint.
type Endpoint struct {
	ID                 string           `json:"id"`
	Method             string           `json:"method"`
	Host               string           `json:"host"`
	PathTemplate       string           `json:"path_template"`
	PathParameters     []Parameter      `json:"path_parameters,omitempty"`
	QueryParameters    []Parameter      `json:"query_parameters,omitempty"`
	HeaderParameters   []Parameter      `json:"header_parameters,omitempty"`
	RequestBody        *BodySchema      `json:"request_body,omitempty"`
	Responses          []ResponseSchema `json:"responses,omitempty"`
	AuthRequired       bool             `json:"auth_required"`
	ExampleExchangeIDs []string         `json:"example_exchange_ids,omitempty"`
	Metadata           EndpointMetadata `json:"metadata"`
	Tags               []string         `json:"tags,omitempty"`
}

// AuthScheme classifies an authentication mechanism.
type AuthScheme string

// Detected authentication schemes.
const (
	AuthBearerToken   AuthScheme = "bearer_token"
	AuthSessionCookie AuthScheme = "session_cookie"
	AuthAPIKey        AuthScheme = "api_key"
	AuthBasic         AuthScheme = "basic"
	AuthOAuth2        AuthScheme = "oauth2"
)

// AuthPattern is one detected authentication mechanism. Fields beyond
// Scheme are populated per scheme: header-carried schemes set HeaderName
// (and Prefix for bearer/basic), cookie-based schemes set CookieName,
// OAuth2 sets TokenURL.
type AuthPattern struct {
	Scheme     AuthScheme `json:"scheme"`
	HeaderName string     `json:"header_name,omitempty"`
	Prefix     string     `json:"prefix,omitempty"`
	CookieName string     `json:"cookie_name,omitempty"`
	TokenURL   string     `json:"token_url,omitempty"`
}

// BindingKind discriminates the Binding variant.
type BindingKind string

// Binding kinds.
const (
	BindStatic   BindingKind = "static"
	BindUser     BindingKind = "user_input"
	BindVariable BindingKind = "variable"
)

// Binding says where a flow step's parameter value comes from: a literal
// observed value, a user-supplied input, or a variable extracted from an
// earlier step's response.
type Binding struct {
	Kind        BindingKind `json:"kind"`
	Value       string      `json:"value,omitempty"`
	InputName   string      `json:"input_name,omitempty"`
	Description string      `json:"description,omitempty"`
	Extractor   string      `json:"extractor,omitempty"`
}

// ExtractorSource says where an extracted variable came from.
type ExtractorSource string

// Extractor sources.
const (
	ExtractBody   ExtractorSource = "body"
	ExtractHeader ExtractorSource = "header"
)

// Extractor names a value a flow step exposes to later steps.
type Extractor struct {
	Name   string          `json:"name"`
	Source ExtractorSource `json:"source"`
	Key    string          `json:"key"`
}

// FlowStep is one endpoint call inside a flow.
type FlowStep struct {
	Order          int                `json:"order"`
	EndpointID     string             `json:"endpoint_id"`
	Description    string             `json:"description,omitempty"`
	Bindings       map[string]Binding `json:"bindings,omitempty"`
	ExpectedStatus int                `json:"expected_status,omitempty"`
	Extractors     []Extractor        `json:"extractors,omitempty"`
}

// Flow is an ordered sequence of endpoint calls with data dependencies
// between steps. Steps are ordered by Order starting at 0, contiguous.
type Flow struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Steps           []FlowStep `json:"steps"`
	SourceActionIDs []string   `json:"source_action_ids,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
}

// BlueprintMetadata carries capture-wide aggregates for a blueprint.
type BlueprintMetadata struct {
	ExchangeCount    int           `json:"exchange_count"`
	ExcludedCount    int           `json:"excluded_count"`
	CorrelatedCount  int           `json:"correlated_count"`
	AnalysisDuration time.Duration `json:"analysis_duration"`
}

// Blueprint is the aggregate analysis result for one capture: the
// deduplicated endpoint catalog, detected auth patterns, and mined flows.
// The analysis pipeline constructs blueprints; persistence belongs to the
// calling application.
type Blueprint struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id,omitempty"`
	Name         string            `json:"name"`
	BaseURL      string            `json:"base_url,omitempty"`
	Endpoints    []Endpoint        `json:"endpoints"`
	AuthPatterns []AuthPattern     `json:"auth_patterns,omitempty"`
	Flows        []Flow            `json:"flows,omitempty"`
	Metadata     BlueprintMetadata `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// EndpointByID returns the endpoint with the given id, or nil.
func (b *Blueprint) EndpointByID(id string) *Endpoint {
	for i := range b.Endpoints {
		if b.Endpoints[i].ID == id {
			return &b.Endpoints[i]
		}
	}
	return nil
}
