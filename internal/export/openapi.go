package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// WriteOpenAPI renders a blueprint as an OpenAPI 3.0 document, as JSON
// or YAML.
func WriteOpenAPI(w io.Writer, bp *model.Blueprint, asYAML bool) error {
	doc := buildOpenAPI(bp)
	if asYAML {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal OpenAPI YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func buildOpenAPI(bp *model.Blueprint) map[string]interface{} {
	paths := make(map[string]interface{})
	for _, ep := range bp.Endpoints {
		operations, _ := paths[ep.PathTemplate].(map[string]interface{})
		if operations == nil {
			operations = make(map[string]interface{})
			paths[ep.PathTemplate] = operations
		}
		operations[strings.ToLower(ep.Method)] = buildOperation(&ep)
	}

	doc := map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   bp.Name,
			"version": "1.0.0",
		},
		"paths": paths,
	}
	if bp.BaseURL != "" {
		doc["servers"] = []interface{}{
			map[string]interface{}{"url": bp.BaseURL},
		}
	}
	if schemes := buildSecuritySchemes(bp.AuthPatterns); len(schemes) > 0 {
		doc["components"] = map[string]interface{}{
			"securitySchemes": schemes,
		}
	}
	return doc
}

func buildOperation(ep *model.Endpoint) map[string]interface{} {
	op := map[string]interface{}{
		"operationId": ep.ID,
		"summary":     fmt.Sprintf("%s %s", ep.Method, ep.PathTemplate),
	}

	parameters := make([]interface{}, 0)
	for _, group := range [][]model.Parameter{ep.PathParameters, ep.QueryParameters, ep.HeaderParameters} {
		for _, p := range group {
			parameters = append(parameters, map[string]interface{}{
				"name":     p.Name,
				"in":       string(p.Location),
				"required": p.Required,
				"schema":   map[string]interface{}{"type": string(p.Type)},
			})
		}
	}
	if len(parameters) > 0 {
		op["parameters"] = parameters
	}

	if ep.RequestBody != nil && ep.RequestBody.ContentType != "" {
		op["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{
				ep.RequestBody.ContentType: map[string]interface{}{},
			},
		}
	}

	responses := make(map[string]interface{})
	for _, r := range ep.Responses {
		responses[strconv.Itoa(r.Status)] = map[string]interface{}{
			"description": fmt.Sprintf("observed %s response", r.ContentType),
		}
	}
	if len(responses) == 0 {
		responses["default"] = map[string]interface{}{"description": "no response captured"}
	}
	op["responses"] = responses

	if len(ep.Tags) > 0 {
		op["tags"] = ep.Tags
	}
	return op
}

func buildSecuritySchemes(patterns []model.AuthPattern) map[string]interface{} {
	schemes := make(map[string]interface{})
	for _, p := range patterns {
		switch p.Scheme {
		case model.AuthBearerToken:
			schemes["bearerAuth"] = map[string]interface{}{
				"type":   "http",
				"scheme": "bearer",
			}
		case model.AuthBasic:
			schemes["basicAuth"] = map[string]interface{}{
				"type":   "http",
				"scheme": "basic",
			}
		case model.AuthAPIKey:
			schemes["apiKeyAuth"] = map[string]interface{}{
				"type": "apiKey",
				"in":   "header",
				"name": p.HeaderName,
			}
		case model.AuthSessionCookie:
			schemes["cookieAuth"] = map[string]interface{}{
				"type": "apiKey",
				"in":   "cookie",
				"name": p.CookieName,
			}
		case model.AuthOAuth2:
			schemes["oauth2"] = map[string]interface{}{
				"type": "oauth2",
				"flows": map[string]interface{}{
					"password": map[string]interface{}{
						"tokenUrl": p.TokenURL,
						"scopes":   map[string]interface{}{},
					},
				},
			}
		}
	}
	return schemes
}
